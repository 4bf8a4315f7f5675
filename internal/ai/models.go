package ai

// ModelInfo describes one selectable model.
type ModelInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SupportedModels is the catalog offered by the model dropdown. The first
// entry doubles as the default selection.
var SupportedModels = []ModelInfo{
	{Value: "gpt-5", Label: "ChatGPT 5"},
	{Value: "gpt-4o", Label: "GPT-4o"},
	{Value: "gpt-4o-mini", Label: "GPT-4o Mini"},
	{Value: "claude-3-5-sonnet", Label: "Claude 3.5 Sonnet"},
	{Value: "claude-3-5-haiku", Label: "Claude 3.5 Haiku"},
	{Value: "deepseek-chat", Label: "DeepSeek Chat"},
	{Value: "deepseek-reasoner", Label: "DeepSeek Reasoner"},
	{Value: "deepseek-v3", Label: "DeepSeek V3.1"},
	{Value: "grok-beta", Label: "Grok"},
	{Value: "gemini-2.0-flash-exp", Label: "Gemini 2.0 Flash"},
	{Value: "o1", Label: "OpenAI o1"},
	{Value: "o1-mini", Label: "OpenAI o1 Mini"},
}

// DefaultModel returns the catalog's default selection.
func DefaultModel() string {
	return SupportedModels[0].Value
}
