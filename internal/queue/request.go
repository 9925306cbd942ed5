// Package queue defines the analysis request wire contract and the
// publisher that puts requests on the ingest queue.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AttrScanID is the message attribute carrying the producer scan identifier.
const AttrScanID = "ScanId"

// ErrMalformedRequest is returned when a message body is not valid JSON.
var ErrMalformedRequest = errors.New("queue: malformed analysis request")

// AnalysisRequest asks the consumer to analyze one object.
type AnalysisRequest struct {
	// Bucket is the source bucket name.
	Bucket string `json:"bucket" validate:"required"`
	// Key is the object key within Bucket.
	Key string `json:"key" validate:"required"`
}

// String returns bucket/key.
func (r AnalysisRequest) String() string {
	return r.Bucket + "/" + r.Key
}

// ValidationError reports the fields missing from a decoded request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("queue: invalid analysis request: missing %s", strings.Join(e.Fields, ", "))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that bucket and key are present.
func (r AnalysisRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("queue: validate analysis request: %w", err)
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, strings.ToLower(fe.Field()))
	}
	return verr
}

// Decode parses a message body into a validated AnalysisRequest.
// Invalid JSON yields ErrMalformedRequest; missing fields a *ValidationError.
func Decode(body []byte) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return AnalysisRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if err := req.Validate(); err != nil {
		return AnalysisRequest{}, err
	}
	return req, nil
}

// Encode serializes a request into a message body.
func Encode(req AnalysisRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode analysis request: %w", err)
	}
	return string(b), nil
}
