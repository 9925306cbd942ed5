// Package handler provides the Lambda handlers for the producer and the
// consumer, the response envelope they return, and invocation middleware.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Response is the envelope returned by both functions.
type Response struct {
	// StatusCode is always 200; failures are returned as invocation errors.
	StatusCode int `json:"statusCode"`
	// Body is a JSON document of the form {"message": "..."}.
	Body string `json:"body"`
	// BatchItemFailures lists records the trigger should redeliver.
	BatchItemFailures []events.SQSBatchItemFailure `json:"batchItemFailures,omitempty"`
}

// MessageBody is the decoded form of Response.Body.
type MessageBody struct {
	Message string `json:"message"`
}

// newResponse builds a 200 response carrying message.
func newResponse(message string) Response {
	// Marshalling a struct with a single string field cannot fail.
	body, _ := json.Marshal(MessageBody{Message: message})
	return Response{
		StatusCode: http.StatusOK,
		Body:       string(body),
	}
}
