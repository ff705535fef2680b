package genai

import "errors"

var (
	// ErrEmptyPrompt indicates a generation request without an instruction.
	ErrEmptyPrompt = errors.New("genai: prompt is required")
	// ErrRefCount indicates an edit request with a reference count other
	// than one (single edit) or two (combine).
	ErrRefCount = errors.New("genai: expected one or two image references")
)

// editGenerationConfig is attached identically to every edit call. The values
// are process-wide constants, not per-request parameters.
var editGenerationConfig = GenerationConfig{
	Temperature:        1,
	TopP:               0.95,
	TopK:               40,
	MaxOutputTokens:    8192,
	ResponseModalities: []string{"image", "text"},
	ResponseMIMEType:   "text/plain",
}

// NewEditRequest assembles an image edit call: the prompt always comes first,
// followed by the references in the order supplied by the caller. The model
// interprets input position semantically ("first image", "second image"), so
// the order must match upload order.
func NewEditRequest(prompt string, refs []FileRef) (GenerateContentRequest, error) {
	if prompt == "" {
		return GenerateContentRequest{}, ErrEmptyPrompt
	}
	if len(refs) != 1 && len(refs) != 2 {
		return GenerateContentRequest{}, ErrRefCount
	}

	parts := make([]Part, 0, len(refs)+1)
	parts = append(parts, Part{Text: prompt})
	for _, ref := range refs {
		parts = append(parts, Part{FileData: &FileData{MIMEType: ref.MIMEType, FileURI: ref.URI}})
	}

	cfg := editGenerationConfig
	return GenerateContentRequest{
		Contents:         []Content{{Role: "user", Parts: parts}},
		GenerationConfig: &cfg,
	}, nil
}
