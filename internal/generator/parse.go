package generator

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hoaithanhsp/english-assistant-pro/internal/model"
)

// ErrResponseTooLarge is returned when the stage-2 output cannot be parsed
// as JSON. The usual cause is the model truncating its output because the
// exam was too large; the message tells the user what to do about it. The
// raw parse diagnostic is deliberately not exposed.
var ErrResponseTooLarge = errors.New("the generated exam could not be parsed, most likely because the response was truncated for size: reduce the reference material, matrix or specification text and try again")

// ParseExamResponse normalizes a raw model response into ExamData. It
// strips a surrounding markdown code fence if present, trims whitespace and
// parses the rest as JSON. No bracket-completion repair is attempted:
// truncated output is treated as unrecoverable.
func ParseExamResponse(raw string) (*model.ExamData, error) {
	cleaned := stripFence(raw)

	var data model.ExamData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, ErrResponseTooLarge
	}
	return &data, nil
}

// stripFence removes a leading ```json (case-insensitive) or ``` marker and
// a trailing ``` marker, then trims surrounding whitespace.
func stripFence(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		rest := s[3:]
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		s = rest
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
