// Package api defines the core domain types of the legichat service:
// threads, turns, transcript messages, the request/response DTOs of the
// HTTP surface, and the shared error taxonomy.
//
// The package has no dependencies on other legichat packages so that
// every layer (store, chat engine, transport) can share these types
// without import cycles.
package api
