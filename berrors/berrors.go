package berrors

import (
	"errors"
	"fmt"
)

// Error numbers match the ones the original interpreter reports in its
// ERROR- banner. Only the codes the tokenization engine can raise get
// names here; the rest of the number space belongs to the runtime.
const (
	OutOfMemory      = 2  // program or table space exhausted
	ValueError       = 3  // numeric constant out of range or malformed
	TooManyVariables = 4  // variable name table is limited to 128 entries
	OutOfData        = 6
	BadLineNumber    = 7 // line number missing, zero, or above 32767
	LineNotFound     = 12
	LineTooLong      = 14 // tokenized line exceeds 255 bytes
	GarbledLine      = 17 // syntax error, unknown keyword
	InvalidString    = 18 // unterminated string or invalid character
	LoadFileError    = 21 // malformed tokenized file or snapshot
)

// TextForError returns the error text based on error number
func TextForError(code int) string {
	switch code {
	case OutOfMemory:
		return "Out of memory"
	case ValueError:
		return "Value error"
	case TooManyVariables:
		return "Too many variables"
	case OutOfData:
		return "Out of data"
	case BadLineNumber:
		return "Bad line number"
	case LineNotFound:
		return "Line not found"
	case LineTooLong:
		return "Line too long"
	case GarbledLine:
		return "Garbled line"
	case InvalidString:
		return "Invalid string"
	case LoadFileError:
		return "Load file error"
	}

	return "Unprintable error"
}

// BasicError carries everything a line editor needs to report a failure
// against the exact spot in the source line. Column is 1-based and zero
// when the error has no useful position. Suggestion holds the closest
// keyword for a misspelled word, empty otherwise.
type BasicError struct {
	Code       int
	Message    string
	Column     int
	Suggestion string
}

func (e *BasicError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = TextForError(e.Code)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s (did you mean %s?)", msg, e.Suggestion)
	}
	if e.Column > 0 {
		msg = fmt.Sprintf("%s at column %d", msg, e.Column)
	}
	return msg
}

// New builds a BasicError with just a code and message.
func New(code int, msg string) *BasicError {
	return &BasicError{Code: code, Message: msg}
}

// Newf builds a BasicError with a formatted message.
func Newf(code int, format string, args ...interface{}) *BasicError {
	return &BasicError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AtColumn builds a BasicError tied to a source column.
func AtColumn(code int, col int, msg string) *BasicError {
	return &BasicError{Code: code, Message: msg, Column: col}
}

// CodeOf digs the error number out of err, or zero if err doesn't
// carry one.
func CodeOf(err error) int {
	var be *BasicError
	if errors.As(err, &be) {
		return be.Code
	}
	return 0
}

// SuggestionOf returns the keyword suggestion attached to err, if any.
func SuggestionOf(err error) string {
	var be *BasicError
	if errors.As(err, &be) {
		return be.Suggestion
	}
	return ""
}
