// Command demo is a small CLI client for a running legichat server. It
// starts a thread, streams one turn while printing deltas as they
// arrive, and finally fetches the normalized transcript.
//
// Usage:
//
//	demo -url http://localhost:8080 -message "Who is Senator Patterson?"
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/legichat/legichat/pkg/api"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "legichat server base URL")
	message := flag.String("message", "Who is Senator Patterson?", "opening message")
	flag.Parse()

	if err := run(*url, *message); err != nil {
		fmt.Fprintln(os.Stderr, "demo failed:", err)
		os.Exit(1)
	}
}

func run(baseURL, message string) error {
	// 1. Start a thread.
	threadID, err := startThread(baseURL, message)
	if err != nil {
		return fmt.Errorf("starting thread: %w", err)
	}
	fmt.Printf("thread: %s\n\n", threadID)

	// 2. Stream one turn, printing deltas as they arrive.
	fmt.Printf("> %s\n", message)
	if err := streamTurn(baseURL, threadID, message); err != nil {
		return fmt.Errorf("streaming turn: %w", err)
	}

	// 3. Fetch the transcript.
	return printTranscript(baseURL, threadID)
}

func startThread(baseURL, message string) (string, error) {
	body, _ := json.Marshal(api.StartThreadRequest{Message: message})
	resp, err := http.Post(baseURL+"/v1/threads", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", decodeAPIError(resp)
	}

	var started api.StartThreadResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		return "", err
	}
	return started.ThreadID, nil
}

func streamTurn(baseURL, threadID, message string) error {
	body, _ := json.Marshal(api.StreamTurnRequest{Message: message})
	resp, err := http.Post(baseURL+"/v1/threads/"+threadID+"/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	// Deltas are raw text fragments; print them as they come in.
	reader := bufio.NewReader(resp.Body)
	buf := make([]byte, 512)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	fmt.Println()
	return nil
}

func printTranscript(baseURL, threadID string) error {
	resp, err := http.Get(baseURL + "/v1/threads/" + threadID + "/messages")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	var transcript api.TranscriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return err
	}

	fmt.Printf("\ntranscript (%d messages):\n", len(transcript.Messages))
	for _, msg := range transcript.Messages {
		fmt.Printf("  [%s] %s: %s\n", msg.ID, msg.Role, msg.Content)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != nil {
		return errResp.Error
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
