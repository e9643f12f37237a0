package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates the answer from its reasoning in generated responses.
const Delimiter = ":"

// ErrMalformedResponse is returned when a response does not contain the delimiter.
var ErrMalformedResponse = errors.New("malformed generation response")

// SplitResponse parses "answer: reason". Delimiters after the first are folded
// into the reason by joining the remaining segments with "-", so "A: B: C"
// yields ("A", "B-C"). Both parts are trimmed.
func SplitResponse(resp string) (answer, reason string, err error) {
	parts := strings.Split(resp, Delimiter)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: no %q in %q", ErrMalformedResponse, Delimiter, resp)
	}

	trimmed := make([]string, len(parts)-1)
	for i, p := range parts[1:] {
		trimmed[i] = strings.TrimSpace(p)
	}

	answer = strings.TrimSpace(parts[0])
	reason = strings.Join(trimmed, "-")
	if answer == "" {
		return "", "", fmt.Errorf("%w: empty answer in %q", ErrMalformedResponse, resp)
	}
	return answer, reason, nil
}
