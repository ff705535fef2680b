package genai

import (
	"fmt"
	"strings"
)

const imageMIMEPrefix = "image/"

// EditedImage is the inline image payload extracted from a model response.
type EditedImage struct {
	Base64Data string
	MIMEType   string
}

// NoImageError reports a well-formed response that carried no image part. The
// model describing the edit instead of performing it is a valid outcome, not
// a protocol error; Text holds the model's descriptive output.
type NoImageError struct {
	Text string
}

func (e *NoImageError) Error() string {
	return "genai: model returned no image data"
}

// BlockedError reports a response with no usable candidate: either a safety
// block indicator or an empty candidate list.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("genai: request blocked: %s", e.Reason)
}

// ExtractImage scans the response for an inline image. Only the first
// candidate is consulted, and within it the first part carrying inline data
// with an image MIME type wins; later image parts are never aggregated. When
// no image part exists the candidate's text is surfaced via NoImageError.
func ExtractImage(resp *GenerateContentResponse) (*EditedImage, error) {
	if resp == nil {
		return nil, &BlockedError{Reason: "empty response"}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: resp.PromptFeedback.BlockReason}
	}
	if len(resp.Candidates) == 0 {
		return nil, &BlockedError{Reason: "no candidates returned"}
	}

	candidate := resp.Candidates[0]
	for _, part := range candidate.Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		if !strings.HasPrefix(part.InlineData.MIMEType, imageMIMEPrefix) {
			continue
		}
		return &EditedImage{
			Base64Data: part.InlineData.Data,
			MIMEType:   part.InlineData.MIMEType,
		}, nil
	}

	return nil, &NoImageError{Text: candidateText(candidate)}
}

// candidateText concatenates the candidate's text parts in order.
func candidateText(candidate Candidate) string {
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
