package ai

// ChatRequest is a single-turn generation request.
type ChatRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Supported chat providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ChatProviders lists the accepted values for Config.ChatProvider.
var ChatProviders = []string{ProviderOpenAI, ProviderAnthropic}
