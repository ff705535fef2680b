package genai

// Wire types for the generativelanguage.googleapis.com REST API. Only the
// fields this service reads or writes are modeled.

// Content is an ordered sequence of parts attributed to a role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part is one element of a content sequence: text, inline bytes, or a
// reference to a previously uploaded file. Exactly one field is set.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
	FileData   *FileData   `json:"fileData,omitempty"`
}

// InlineData carries base64-encoded bytes directly in the response body.
type InlineData struct {
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// FileData references an uploaded file by URI.
type FileData struct {
	MIMEType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

// GenerationConfig holds the sampling parameters and requested output
// modalities attached to a generation call.
type GenerationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	TopP               float64  `json:"topP,omitempty"`
	TopK               int      `json:"topK,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMIMEType   string   `json:"responseMimeType,omitempty"`
}

// GenerateContentRequest is the body of a models/*:generateContent call.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one alternative output produced by the model.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback signals that the prompt itself was rejected.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the body returned by a generateContent call.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// FileRef is the opaque handle returned by the file upload service. It stands
// in for the raw bytes in a generation call.
type FileRef struct {
	URI      string
	MIMEType string
}

type uploadedFile struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	MIMEType    string `json:"mimeType,omitempty"`
	URI         string `json:"uri,omitempty"`
}

type uploadFileResponse struct {
	File uploadedFile `json:"file"`
}

type uploadFileMetadata struct {
	File struct {
		DisplayName string `json:"display_name,omitempty"`
	} `json:"file"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}
