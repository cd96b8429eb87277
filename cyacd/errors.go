package cyacd

import "fmt"

// FormatErrorKind classifies why a firmware file was rejected.
type FormatErrorKind int

const (
	// EmptyFile means the input had no non-blank lines
	EmptyFile FormatErrorKind = iota + 1

	// HeaderTooShort means the header line has fewer than HeaderLength characters
	HeaderTooShort

	// RowTooShort means a row line has fewer than MinimumRowLength characters
	RowTooShort

	// RowDataLengthMismatch means the data digits do not match the declared length
	RowDataLengthMismatch

	// InvalidHex means a field contains a non-hexadecimal character
	InvalidHex
)

func (k FormatErrorKind) String() string {
	switch k {
	case EmptyFile:
		return "empty file"
	case HeaderTooShort:
		return "header too short"
	case RowTooShort:
		return "row too short"
	case RowDataLengthMismatch:
		return "data length mismatch"
	case InvalidHex:
		return "invalid hex data"
	default:
		return fmt.Sprintf("format error %d", int(k))
	}
}

// Sentinels for use with errors.Is.
var (
	ErrEmptyFile             = &FileFormatError{Kind: EmptyFile}
	ErrHeaderTooShort        = &FileFormatError{Kind: HeaderTooShort}
	ErrRowTooShort           = &FileFormatError{Kind: RowTooShort}
	ErrRowDataLengthMismatch = &FileFormatError{Kind: RowDataLengthMismatch}
	ErrInvalidHex            = &FileFormatError{Kind: InvalidHex}
)

// FileFormatError reports a malformed firmware file.
// Line is the 1-based line number in the cleaned input (0 when not tied to a line).
type FileFormatError struct {
	Kind   FormatErrorKind
	Line   int
	Detail string
}

func (e *FileFormatError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

// Is reports whether target is a FileFormatError of the same kind.
func (e *FileFormatError) Is(target error) bool {
	t, ok := target.(*FileFormatError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
