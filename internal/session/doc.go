// Package session implements the core engine: the one-shot session
// lifecycle and tool-call loop (§4.6), sub-agent invocation (§4.7), and the
// conversational driver built on the same engine (§4.8). It supersedes the
// teacher's TypeScript-SDK-compatible session/processor/stream/compact
// pipeline, which existed to mirror an external CLI's message/part storage
// model this runtime does not have.
package session
