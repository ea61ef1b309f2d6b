package berrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextForError(t *testing.T) {
	tests := []struct {
		inp int
		exp string
	}{
		{inp: OutOfMemory, exp: "Out of memory"},
		{inp: ValueError, exp: "Value error"},
		{inp: TooManyVariables, exp: "Too many variables"},
		{inp: BadLineNumber, exp: "Bad line number"},
		{inp: LineNotFound, exp: "Line not found"},
		{inp: LineTooLong, exp: "Line too long"},
		{inp: GarbledLine, exp: "Garbled line"},
		{inp: InvalidString, exp: "Invalid string"},
		{inp: LoadFileError, exp: "Load file error"},
		{inp: 100, exp: "Unprintable error"},
	}

	for _, tt := range tests {
		rc := TextForError(tt.inp)

		assert.EqualValuesf(t, tt.exp, rc, "TextForError(%d) got %s, wanted %s", tt.inp, rc, tt.exp)
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		err *BasicError
		exp string
	}{
		{err: New(GarbledLine, "unknown keyword PRANT"), exp: "unknown keyword PRANT"},
		{err: &BasicError{Code: GarbledLine, Message: "unknown keyword PRANT", Suggestion: "PRINT"},
			exp: "unknown keyword PRANT (did you mean PRINT?)"},
		{err: AtColumn(InvalidString, 12, "unterminated string"), exp: "unterminated string at column 12"},
		{err: New(LineTooLong, ""), exp: "Line too long"},
		{err: &BasicError{Code: GarbledLine, Message: "unknown keyword GOTTO", Column: 4, Suggestion: "GOTO"},
			exp: "unknown keyword GOTTO (did you mean GOTO?) at column 4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.exp, tt.err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	err := Newf(BadLineNumber, "line number %d out of range", 40000)
	assert.Equal(t, BadLineNumber, CodeOf(err))

	wrapped := fmt.Errorf("storing line: %w", err)
	assert.Equal(t, BadLineNumber, CodeOf(wrapped))

	assert.Zero(t, CodeOf(errors.New("plain error")))
	assert.Zero(t, CodeOf(nil))
}

func TestSuggestionOf(t *testing.T) {
	err := &BasicError{Code: GarbledLine, Message: "unknown keyword PRANT", Suggestion: "PRINT"}
	assert.Equal(t, "PRINT", SuggestionOf(fmt.Errorf("line 10: %w", err)))
	assert.Empty(t, SuggestionOf(errors.New("plain error")))
}
