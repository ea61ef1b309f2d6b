// Package lexer splits one line of source into tokens. It knows
// nothing about statement context; the tokenizer layers that on top.
package lexer

import (
	"strconv"

	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/token"
)

// Kind classifies a scanned token.
type Kind int

const (
	EOL        Kind = iota // end of the line
	LineNumber             // leading digit run
	Keyword                // word found in the keyword tables
	Identifier             // word that is not a keyword
	Number                 // numeric constant, decimal or $hex
	String                 // quoted literal, quotes stripped
	Operator               // + - * / ^ = < > <= >= <>
	Punct                  // , ; : # ( )
	Comment                // text after REM or a lone period
)

func (k Kind) String() string {
	switch k {
	case EOL:
		return "EOL"
	case LineNumber:
		return "LineNumber"
	case Keyword:
		return "Keyword"
	case Identifier:
		return "Identifier"
	case Number:
		return "Number"
	case String:
		return "String"
	case Operator:
		return "Operator"
	case Punct:
		return "Punct"
	case Comment:
		return "Comment"
	}
	return "Unknown"
}

// Token is one scanned token. Text holds the literal as written,
// except String drops its quotes and Comment drops the REM keyword.
// Num carries the value of a LineNumber. Col is the 1-based column of
// the token's first character.
type Token struct {
	Kind Kind
	Text string
	Num  int
	Col  int
}

// Lexer a lexical analyzer over a single source line
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	first        bool // no token scanned yet, a digit run is the line number
	done         bool // a comment or the line end was reached
}

// New creates a lexer for one line of source.
func New(input string) *Lexer {
	l := &Lexer{input: input, first: true}
	l.readChar()
	return l
}

// Scan tokenizes the whole line including the closing EOL token. On
// error no partial token list comes back.
func (l *Lexer) Scan() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOL {
			return toks, nil
		}
	}
}

// NextToken scans for the next token.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.done || l.ch == 0 || l.ch == '\n' {
		l.done = true
		return Token{Kind: EOL, Col: l.col()}, nil
	}

	if l.first {
		l.first = false
		if isDigit(l.ch) {
			return l.readLineNumber()
		}
	}

	col := l.col()

	switch l.ch {
	case '"':
		return l.readString()
	case '$':
		if isHexDigit(l.peekChar()) {
			return l.readHexNumber()
		}
		return Token{}, berrors.AtColumn(berrors.InvalidString, col, "invalid character '$'")
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		// a lone period abbreviates REM
		l.readChar()
		return l.readComment(col), nil
	case '<':
		if l.peekChar() == '=' || l.peekChar() == '>' {
			sym := l.input[l.position : l.position+2]
			l.readChar()
			l.readChar()
			return Token{Kind: Operator, Text: sym, Col: col}, nil
		}
		l.readChar()
		return Token{Kind: Operator, Text: "<", Col: col}, nil
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Kind: Operator, Text: ">=", Col: col}, nil
		}
		l.readChar()
		return Token{Kind: Operator, Text: ">", Col: col}, nil
	case '=', '+', '-', '*', '/', '^':
		sym := string(l.ch)
		l.readChar()
		return Token{Kind: Operator, Text: sym, Col: col}, nil
	case ',', ';', ':', '#', '(', ')':
		sym := string(l.ch)
		l.readChar()
		return Token{Kind: Punct, Text: sym, Col: col}, nil
	}

	if isLetter(l.ch) {
		return l.readWord()
	}
	if isDigit(l.ch) {
		return l.readNumber()
	}

	return Token{}, berrors.AtColumn(berrors.InvalidString, col, "invalid character "+strconv.QuoteRune(rune(l.ch)))
}

func (l *Lexer) readLineNumber() (Token, error) {
	col := l.col()
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[position:l.position]
	num, err := strconv.Atoi(lit)
	if err != nil {
		return Token{}, berrors.AtColumn(berrors.BadLineNumber, col, "line number "+lit+" is not usable")
	}
	return Token{Kind: LineNumber, Text: lit, Num: num, Col: col}, nil
}

// readWord consumes letters and digits plus one trailing $ or period.
// The $ marks a string variable or function name, the period an
// abbreviated keyword.
func (l *Lexer) readWord() (Token, error) {
	col := l.col()
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '$' || l.ch == '.' {
		l.readChar()
	}
	word := l.input[position:l.position]

	if b, ok := token.LookupStatement(word); ok {
		if b == token.StmtRem {
			return l.readComment(col), nil
		}
		return Token{Kind: Keyword, Text: word, Col: col}, nil
	}
	if _, ok := token.LookupFunction(word); ok {
		return Token{Kind: Keyword, Text: word, Col: col}, nil
	}
	if _, ok := token.LookupOperatorWord(word); ok {
		return Token{Kind: Keyword, Text: word, Col: col}, nil
	}
	return Token{Kind: Identifier, Text: word, Col: col}, nil
}

// readComment grabs the rest of the line verbatim. One space after the
// keyword is the separator and is not part of the text.
func (l *Lexer) readComment(col int) Token {
	if l.ch == ' ' {
		l.readChar()
	}
	position := l.position
	for l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
	l.done = true
	return Token{Kind: Comment, Text: l.input[position:l.position], Col: col}
}

func (l *Lexer) readString() (Token, error) {
	col := l.col()
	l.readChar()
	position := l.position
	for l.ch != '"' {
		if l.ch == 0 || l.ch == '\n' {
			return Token{}, berrors.AtColumn(berrors.InvalidString, col, "unterminated string")
		}
		l.readChar()
	}
	lit := l.input[position:l.position]
	l.readChar()
	return Token{Kind: String, Text: lit, Col: col}, nil
}

// readNumber consumes digits with at most one decimal point and an
// optional exponent. The E only belongs to the number when a digit or
// a signed digit follows, so 10E stays a constant and a word.
func (l *Lexer) readNumber() (Token, error) {
	col := l.col()
	position := l.position
	seenPoint := false
	for {
		switch {
		case isDigit(l.ch):
			l.readChar()
		case l.ch == '.' && !seenPoint:
			seenPoint = true
			l.readChar()
		case l.ch == 'E' || l.ch == 'e':
			if !l.exponentFollows() {
				return Token{Kind: Number, Text: l.input[position:l.position], Col: col}, nil
			}
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
			return Token{Kind: Number, Text: l.input[position:l.position], Col: col}, nil
		default:
			return Token{Kind: Number, Text: l.input[position:l.position], Col: col}, nil
		}
	}
}

func (l *Lexer) readHexNumber() (Token, error) {
	col := l.col()
	position := l.position
	l.readChar()
	for isHexDigit(l.ch) {
		l.readChar()
	}
	return Token{Kind: Number, Text: l.input[position:l.position], Col: col}, nil
}

// exponentFollows peeks past the current E for a digit or a signed
// digit.
func (l *Lexer) exponentFollows() bool {
	if isDigit(l.peekChar()) {
		return true
	}
	if l.peekChar() == '+' || l.peekChar() == '-' {
		if l.readPosition+1 < len(l.input) && isDigit(l.input[l.readPosition+1]) {
			return true
		}
	}
	return false
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar - take a look at, but don't consume the next character
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}

	return l.input[l.readPosition]
}

func (l *Lexer) col() int {
	return l.position + 1
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
