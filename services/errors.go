package services

import (
	"fmt"
	"time"
)

// ConfigurationError means a required API key or setting is absent. It is
// raised before any network call is attempted.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Missing)
}

// ExternalServiceError wraps a non-success response from an external
// collaborator (model, weather provider).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// MalformedResponseError means the model payload could not be parsed or
// lacks required fields. Never retried.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// RateLimitedError means the sliding window for a resource is full. Wait is
// how long until the oldest request leaves the window.
type RateLimitedError struct {
	Resource string
	Wait     time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit reached for %s, retry in %s", e.Resource, e.Wait.Round(time.Millisecond))
}

// AnalysisTimeoutError means image analysis exceeded its deadline. A timeout
// is terminal, not transient.
type AnalysisTimeoutError struct {
	After time.Duration
}

func (e *AnalysisTimeoutError) Error() string {
	return fmt.Sprintf("image analysis timed out after %s", e.After)
}

// AnalysisFailedError means image analysis failed after retry exhaustion.
type AnalysisFailedError struct {
	Attempts int
	Err      error
}

func (e *AnalysisFailedError) Error() string {
	return fmt.Sprintf("image analysis failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AnalysisFailedError) Unwrap() error {
	return e.Err
}
