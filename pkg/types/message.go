// Package types holds the wire-level data model shared across the session
// engine, the tool executor, and the storage layer: messages, content
// blocks, tool calls, provider responses, and the persisted session state.
package types

// Role identifies who authored a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason is why the provider ended a turn.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
)

// BlockType discriminates the variants of ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is a tagged union over a message's content. Exactly one of
// the type-specific fields is populated, selected by Type. Ordering of
// blocks within a Message is semantically significant and must be
// preserved; this is why Message.Blocks is a slice, not a set.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockToolUse
	ToolUseID string         `json:"id,omitempty"`
	ToolName  string         `json:"name,omitempty"`
	ToolInput map[string]any `json:"input,omitempty"`

	// BlockToolResult
	ToolResultID string `json:"tool_use_id,omitempty"`
	Content      string `json:"content,omitempty"`
	IsError      bool   `json:"is_error,omitempty"`
}

// NewTextBlock builds a plain text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// NewToolUseBlock builds a tool-invocation content block.
func NewToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ToolUseID: id, ToolName: name, ToolInput: input}
}

// NewToolResultBlock builds the answer to a prior tool-use block.
func NewToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolResultID: toolUseID, Content: content, IsError: isError}
}

// Message is one turn submitted to / returned from the provider. Content is
// either a flat string (Text) or a sequence of blocks (Blocks); exactly one
// is set for any message actually exchanged.
type Message struct {
	Role   Role           `json:"role"`
	Text   string         `json:"text,omitempty"`
	Blocks []ContentBlock `json:"blocks,omitempty"`
}

// HasBlocks reports whether this message carries structured content blocks
// rather than flat text.
func (m Message) HasBlocks() bool {
	return len(m.Blocks) > 0
}

// ToolUseBlocks returns the tool_use blocks in declaration order.
func (m Message) ToolUseBlocks() []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Blocks {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// TextContent concatenates every text block (or returns Text) in order.
func (m Message) TextContent() string {
	if !m.HasBlocks() {
		return m.Text
	}
	var sb []byte
	for _, b := range m.Blocks {
		if b.Type == BlockText {
			sb = append(sb, b.Text...)
		}
	}
	return string(sb)
}

// Tool declares one callable capability to the provider.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Usage is token accounting for a single provider turn.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderResponse is the complete, non-streamed result of one provider turn.
type ProviderResponse struct {
	Message    Message    `json:"message"`
	Usage      Usage      `json:"usage"`
	StopReason StopReason `json:"stop_reason"`
}

// CompletionOptions tunes a single sendMessage call.
type CompletionOptions struct {
	MaxOutputTokens int
	Temperature     *float64
}

// DefaultMaxOutputTokens is used when CompletionOptions.MaxOutputTokens is 0.
const DefaultMaxOutputTokens = 4096

// MessageError mirrors a fatal provider-side failure surfaced to a session.
type MessageError struct {
	Type    string `json:"type"` // "api" | "auth" | "max_steps" | "cost_limit"
	Message string `json:"message"`
}
