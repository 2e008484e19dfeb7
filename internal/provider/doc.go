// Package provider adapts LLM backends to the session engine's LLMProvider
// contract. The only backend wired is Anthropic Claude, via Eino's
// ToolCallingChatModel (cloudwego/eino, eino-ext/components/model/claude);
// the engine always calls Generate, never Stream, because this runtime's
// contract returns one complete response per turn.
package provider
