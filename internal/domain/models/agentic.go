package models

// Conversation wire types. These mirror the Gemini generateContent content
// shape (user/model/function turns with text or function-call parts) so the
// loop state and the wire payload are one representation.

// FunctionCall is a model-requested tool invocation.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back into the conversation.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Part is one content fragment of a conversation turn.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// Content is one ordered turn of the conversation history.
type Content struct {
	Role  string `json:"role"` // user, model or function
	Parts []Part `json:"parts"`
}

// ToolDeclaration describes one callable tool to the model.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// GenerationConfig bounds a single model turn.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// ModelTurn is the decoded outcome of one model response: any function
// calls requested plus any text emitted.
type ModelTurn struct {
	Calls []FunctionCall
	Text  string
}

// HasCalls reports whether the model requested at least one tool.
func (t *ModelTurn) HasCalls() bool { return t != nil && len(t.Calls) > 0 }

// AgenticAnalysisRequest is the /agentic-analysis request body.
type AgenticAnalysisRequest struct {
	Ticker       string   `json:"ticker" validate:"required,min=1,max=10"`
	AnalysisType string   `json:"analysis_type" default:"comprehensive" validate:"oneof=comprehensive quick specific"`
	FocusAreas   []string `json:"focus_areas,omitempty"`
	GeminiAPIKey string   `json:"gemini_api_key" validate:"required,min=10"`
}

// AgenticResult is the terminal state of one agentic loop run.
type AgenticResult struct {
	FinalAnalysis string                    `json:"final_analysis"`
	ToolCallsMade int                       `json:"tool_calls_made"`
	ToolsUsed     []string                  `json:"tools_used"`
	ToolResults   map[string]map[string]any `json:"tool_results"`
	Iterations    int                       `json:"iterations"`
	Note          string                    `json:"note,omitempty"`
}
