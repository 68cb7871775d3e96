// Package chat contains the conversational engine. It orchestrates one
// turn at a time: load the thread history, stream a reply from the
// reasoning backend, dispatch tool calls in between generation rounds,
// and persist the user/assistant turn pair only after the reply
// completed. A failed or cancelled turn leaves the thread exactly as it
// was.
package chat
