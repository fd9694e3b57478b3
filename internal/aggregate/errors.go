// internal/aggregate/errors.go
package aggregate

import (
	"fmt"
	"strings"
)

type MalformedDate struct {
	Index int    `json:"index"`
	ID    string `json:"_id,omitempty"`
	Value string `json:"date"`
}

// DateError is returned when one or more expenses carry a date that is not
// an ISO-8601 calendar date.
type DateError struct {
	Records []MalformedDate
}

func (e *DateError) Error() string {
	parts := make([]string, len(e.Records))
	for i, r := range e.Records {
		if r.ID != "" {
			parts[i] = fmt.Sprintf("expense %s (#%d): %q", r.ID, r.Index, r.Value)
		} else {
			parts[i] = fmt.Sprintf("expense #%d: %q", r.Index, r.Value)
		}
	}
	return "malformed expense dates: " + strings.Join(parts, ", ")
}
