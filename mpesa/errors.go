package mpesa

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCallback is returned when a webhook body does not carry the
// Body.stkCallback envelope this system requires before touching any row.
var ErrMalformedCallback = errors.New("malformed M-Pesa callback body")

// ConfigError reports which gateway environment variables are missing.
// It is fatal to the call; retrying cannot help.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "missing M-Pesa configuration: " + strings.Join(e.Missing, ", ")
}

// GatewayError is a non-zero acknowledgment from the gateway. It carries the
// gateway-supplied description and is not retried automatically.
type GatewayError struct {
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("M-Pesa gateway rejected the request (code %s): %s", e.Code, e.Description)
}

// TransientError wraps a network or timeout failure contacting the gateway.
// The caller may retry the whole initiation; a fresh correlation identifier
// will be issued.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "M-Pesa gateway unreachable: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
