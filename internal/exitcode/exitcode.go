package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/stride/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an invalid or unreadable configuration file
	ConfigError = 3

	// ProviderError indicates an AI provider failure
	ProviderError = 4

	// DecompositionError indicates the goal breakdown pipeline failed
	DecompositionError = 5

	// NetworkError indicates a backend connectivity or sync issue
	NetworkError = 6

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	// Coded errors map directly by taxonomy prefix.
	if code := errors.CodeOf(err); code != "" {
		switch {
		case strings.HasPrefix(string(code), "CONFIG-"):
			return ConfigError
		case strings.HasPrefix(string(code), "PROVIDER-"):
			return ProviderError
		case strings.HasPrefix(string(code), "BREAKDOWN-"), strings.HasPrefix(string(code), "PIPELINE-"):
			return DecompositionError
		case strings.HasPrefix(string(code), "SYNC-"), strings.HasPrefix(string(code), "BACKEND-"):
			return NetworkError
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case ProviderError:
		return "AI provider error"
	case DecompositionError:
		return "Goal decomposition failed"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
