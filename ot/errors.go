package ot

import "fmt"

func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}

// ErrorSeverity represents the severity level of a lookup parsing error.
type ErrorSeverity int

const (
	// SeverityCritical indicates a severe error that makes the lookup unusable or unreliable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates a significant error that may affect functionality but doesn't prevent usage.
	SeverityMajor
	// SeverityMinor indicates a minor issue that can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the error severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// FontError represents an error encountered while decoding lookup data.
type FontError struct {
	Section  string        // Specific section within the lookup (e.g., "PairSet", "Coverage")
	Issue    string        // Human-readable description of the issue
	Severity ErrorSeverity // Severity level of the error
	Offset   uint32        // Byte offset where the error occurred (0 if unknown)
}

// Error implements the error interface.
func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s at offset %d: %s", e.Severity, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Section, e.Issue)
}
