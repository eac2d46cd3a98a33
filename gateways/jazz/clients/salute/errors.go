package salute

import "fmt"

// ConfigError reports a missing or malformed SDK credential blob. It is
// fatal: the client is never constructed around a partial credential.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid sdk credential: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid sdk credential: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AuthError reports a failed access token exchange: transport failure,
// non-2xx response, or a body without a token field.
type AuthError struct {
	Reason     string
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth exchange failed: %s: status %d: %s", e.Reason, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth exchange failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth exchange failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RoomServiceError reports a room operation that returned a non-success
// status or an unparsable body.
type RoomServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RoomServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RoomServiceError) Unwrap() error {
	return e.Err
}
