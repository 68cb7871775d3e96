// Package tools defines the tool execution layer of the chat engine.
// Tools run in-process: the reasoning backend requests an invocation,
// the engine dispatches it to an Executor, and the textual result is
// fed back into the next generation round.
package tools
