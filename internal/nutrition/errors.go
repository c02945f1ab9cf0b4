package nutrition

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResponse means the model returned nothing usable at all.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrNoJSONFound means the model answered with pure prose.
	ErrNoJSONFound = errors.New("no JSON object in model response")

	// ErrNoProductsRecognized means the recognition stage saw no food on
	// the photo; aggregation is never attempted in that case.
	ErrNoProductsRecognized = errors.New("no products recognized on photo")
)

// MalformedJSONError carries the decoder diagnostic for a reply that looked
// like JSON but did not parse.
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in model response: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }
