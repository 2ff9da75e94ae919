package gemini

// Wire types for the generateContent REST endpoint.

// Content is one message in a request or response.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is one content fragment. Only text parts are used here.
type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerationConfig carries the determinism controls passed on every call.
// Temperature is a pointer so an explicit 0 survives serialization.
type GenerationConfig struct {
	Temperature      *float64       `json:"temperature,omitempty"`
	TopP             float64        `json:"topP,omitempty"`
	TopK             int            `json:"topK,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []Content        `json:"contents"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// SafetyRating is one per-category safety assessment on a candidate.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

type candidate struct {
	Content       Content        `json:"content"`
	FinishReason  string         `json:"finishReason"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

type promptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	Error          *apiError       `json:"error,omitempty"`
}

// GenOptions fixes the sampling controls for one use-site. Synthesis and
// analysis run at temperature 0 for reproducibility; free-form Q&A uses a
// small positive temperature.
type GenOptions struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}
