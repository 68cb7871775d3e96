// Package reasoner abstracts the reasoning backend that generates
// assistant replies. A Reasoner streams generation frames, where each
// frame carries the full accumulated reply text so far rather than an
// increment. Tool call requests surface as their own events; the chat
// engine executes them and re-invokes the reasoner with the results
// appended.
package reasoner
