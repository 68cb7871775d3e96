package chat

import (
	"strconv"

	"github.com/legichat/legichat/pkg/api"
)

// NormalizeTranscript converts stored turns into client-visible
// messages. User turns always appear; assistant turns appear only when
// they carry text. Message IDs are positions in the filtered list, so
// they stay dense even when turns are dropped.
func NormalizeTranscript(turns []api.Turn) []api.TranscriptMessage {
	messages := make([]api.TranscriptMessage, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == api.RoleAssistant && turn.Content == "" {
			continue
		}
		messages = append(messages, api.TranscriptMessage{
			ID:      strconv.Itoa(len(messages)),
			Role:    turn.Role,
			Content: turn.Content,
		})
	}
	return messages
}
