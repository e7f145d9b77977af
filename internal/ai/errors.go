package ai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError represents a structured error response from the runtime.
type APIError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates a 4xx request problem (e.g., 400 validation).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// ServerError indicates 5xx errors from the runtime.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

// UnreachableError indicates the target runtime is not reachable (e.g., local Ollama down).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// errorFromResponse reads a non-2xx response and maps it onto the error types above.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw}
	if msg, ok := raw["error"].(string); ok {
		apiErr.Message = msg
	}
	if msg, ok := raw["message"].(string); ok && apiErr.Message == "" {
		apiErr.Message = msg
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Ollama answers 404 for a model that was never pulled
		return &ModelNotFoundError{APIError: apiErr}
	case resp.StatusCode >= 500:
		return &ServerError{APIError: apiErr}
	case resp.StatusCode == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	}
	return apiErr
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	switch err.(type) {
	case *ServerError:
		return true
	}
	return false
}
