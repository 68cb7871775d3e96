// Package store defines the conversation store contract: a per-thread
// append-only log of turns. Adapters (memory, postgres) implement
// ThreadStore; this package contains the interface and shared sentinel
// errors only and performs no interpretation of turn content.
package store
