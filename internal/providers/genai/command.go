package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput indicates the model did not respond with valid JSON.
var ErrMalformedOutput = errors.New("genai: model returned malformed json")

// commandGenerationConfig keeps the command parser deterministic.
var commandGenerationConfig = GenerationConfig{
	Temperature:     0.3,
	TopK:            1,
	TopP:            1,
	MaxOutputTokens: 2048,
}

// ParseCommand asks the text model to turn a free-form user command into the
// structured task/transaction JSON and returns the raw parsed document.
func (c *Client) ParseCommand(ctx context.Context, command, locale string) (json.RawMessage, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyPrompt
	}

	cfg := commandGenerationConfig
	req := GenerateContentRequest{
		Contents: []Content{{
			Role:  "user",
			Parts: []Part{{Text: commandPrompt(command, locale)}},
		}},
		GenerationConfig: &cfg,
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return nil, err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: resp.PromptFeedback.BlockReason}
	}
	if len(resp.Candidates) == 0 {
		return nil, &BlockedError{Reason: "no candidates returned"}
	}

	raw := stripCodeFences(candidateText(resp.Candidates[0]))
	if raw == "" || !json.Valid([]byte(raw)) {
		c.logger.Warn().Str("output", raw).Msg("genai: command output is not valid json")
		return nil, ErrMalformedOutput
	}
	return json.RawMessage(raw), nil
}

func commandPrompt(command, locale string) string {
	hint := ""
	if locale != "" {
		hint = fmt.Sprintf("\nThe user's preferred locale is %q.\n", locale)
	}
	return fmt.Sprintf(`
Analyze the following user command (which might be in Hindi, English, or Hinglish) related to tasks and financial transactions. Extract the relevant information and return ONLY a valid JSON object with the following structure:

{
  "type": "TASK" | "TRANSACTION" | "UNKNOWN",
  "status": "COMPLETE" | "PENDING" | "NEEDS_TIME" | "UNKNOWN",
  "description": "string",
  "time": "YYYY-MM-DDTHH:mm:ssZ" | null,
  "isCompleted": boolean,
  "amount": number | null,
  "isIncome": boolean | null,
  "person": "string" | null,
  "currency": "INR" | null,
  "followUpQuestion": "string" | null
}

Important Rules:
- If it's clearly a task (e.g., "roti banayi", "doctor ke paas jana hai"), set type to TASK.
- If it clearly involves money ('rupay', 'rs', 'bheje', 'aaye'), set type to TRANSACTION.
- If unsure about type, set to UNKNOWN.
- Analyze tense carefully for 'isCompleted' and 'status'.
- Time Extraction: Be precise. Return ISO 8601 UTC or null.
- Amount Extraction: Extract only the number.
- Description: Make it meaningful.
- JSON Only: Respond ONLY with the JSON object.
%s
User Command: %q

JSON Response:
`, hint, command)
}

// stripCodeFences removes a surrounding markdown code fence from the model
// output, with or without a json language tag.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
