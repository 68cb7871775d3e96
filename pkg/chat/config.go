package chat

import "time"

// Config holds configuration for the chat engine.
type Config struct {
	// Model is the model name sent to the reasoning backend.
	Model string

	// SystemPrompt is prepended to every generation when non-empty.
	SystemPrompt string

	// MaxToolRounds is the maximum number of generation rounds in one
	// turn before the turn fails. Zero or negative means the default
	// of 10.
	MaxToolRounds int

	// GenerationTimeout is the wall-clock budget for one turn. Zero
	// means the default of 120 seconds.
	GenerationTimeout time.Duration
}

// maxRounds returns the effective round limit, defaulting to 10.
func (c Config) maxRounds() int {
	if c.MaxToolRounds <= 0 {
		return 10
	}
	return c.MaxToolRounds
}

// timeout returns the effective generation budget, defaulting to 120s.
func (c Config) timeout() time.Duration {
	if c.GenerationTimeout <= 0 {
		return 120 * time.Second
	}
	return c.GenerationTimeout
}
