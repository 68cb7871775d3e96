// Package openaichat implements a Reasoner backed by an OpenAI-compatible
// Chat Completions endpoint. It streams SSE chunks, assembles incremental
// tool call arguments, and accumulates text deltas into the growing frame
// snapshots the chat engine expects.
package openaichat
