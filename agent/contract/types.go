package contract

// Role tags one transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the per-turn transcript fed to the chat model.
// Assistant messages may carry tool invocations; tool messages carry the
// serialized result keyed by ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"name,omitempty"`
}

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON string exactly as the model emitted it; decoding happens later and
// fails closed.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition declares one invocable tool to the model. Parameters is a
// JSON Schema object in the OpenAI function-calling format.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ModelResponse is one chat completion turn as seen by the orchestrator.
type ModelResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// Snippet is one ranked knowledge-base excerpt.
type Snippet struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// TurnRequest identifies one inbound user utterance and the scope it runs in.
// Tenant and conversation identifiers here are authoritative; model-supplied
// values are never trusted.
type TurnRequest struct {
	TenantID       string `json:"tenant_id"`
	ConversationID string `json:"conversation_id"`
	CustomerPhone  string `json:"customer_phone"`
	UserText       string `json:"user_text"`
}

// FinishReason values returned at the end of a turn.
const (
	FinishStop          = "stop"
	FinishMaxIterations = "max_iterations"
)

// ToolCallRecord logs one executed tool call for observability. It is not
// persisted as domain state.
type ToolCallRecord struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result"`
}

// TurnDebug carries per-turn counters.
type TurnDebug struct {
	Iterations   int `json:"iterations"`
	KBChunksUsed int `json:"kb_chunks_used"`
}

// TurnResult is what the core hands back to its caller after one turn.
type TurnResult struct {
	ReplyText     string           `json:"reply_text"`
	ToolCallsMade []ToolCallRecord `json:"tool_calls_made"`
	FinishReason  string           `json:"finish_reason"`
	Debug         TurnDebug        `json:"debug"`
}
