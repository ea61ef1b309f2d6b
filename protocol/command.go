package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind selects what a Command asks the server to do.
type Kind int

const (
	CmdPing Kind = iota
	CmdVersion
	CmdStatus
	CmdQuit
	CmdShutdown

	// program editing
	CmdLine
	CmdNew
	CmdList
	CmdDel
	CmdRenum
	CmdVars
	CmdVar
	CmdInfo

	// host files
	CmdExport
	CmdImport
	CmdSave
	CmdLoad
	CmdDir
	CmdStateSave
	CmdStateLoad

	// one-shot conversions
	CmdTokenize
	CmdDetok
)

// ErrLineTooLong flags a protocol line over MaxLineLength bytes.
var ErrLineTooLong = errors.New("protocol line too long")

// Command is one parsed request. Only the fields its Kind reads are
// set.
type Command struct {
	Kind Kind

	Line    string // CmdLine, CmdTokenize: BASIC source text
	Path    string // file commands
	Name    string // CmdVar
	First   *int   // CmdList, CmdDel
	Last    *int
	Start   *int // CmdRenum
	Step    *int
	Atascii bool   // CmdList
	Data    []byte // CmdDetok
}

// Parse reads one request line, with or without its CMD: prefix.
func Parse(line string) (Command, error) {
	text := strings.TrimSpace(line)
	text = strings.TrimPrefix(text, CommandPrefix)
	if len(text) > MaxLineLength {
		return Command{}, ErrLineTooLong
	}

	word, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "ping":
		return Command{Kind: CmdPing}, nil
	case "version":
		return Command{Kind: CmdVersion}, nil
	case "status":
		return Command{Kind: CmdStatus}, nil
	case "quit":
		return Command{Kind: CmdQuit}, nil
	case "shutdown":
		return Command{Kind: CmdShutdown}, nil
	case "basic":
		return parseBasic(rest)
	case "state":
		return parseState(rest)
	case "tokenize":
		if rest == "" {
			return Command{}, errors.New("tokenize needs a BASIC line")
		}
		return Command{Kind: CmdTokenize, Line: rest}, nil
	case "detokenize":
		data, err := ParseHexBytes(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdDetok, Data: data}, nil
	case "":
		return Command{}, errors.New("empty command")
	}
	return Command{}, fmt.Errorf("unknown command %q", word)
}

// parseBasic handles the editing keywords. Anything that is not one of
// them is a numbered BASIC line for the program store.
func parseBasic(args string) (Command, error) {
	if args == "" {
		return Command{}, errors.New("basic needs a line or a keyword")
	}
	word, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToUpper(word) {
	case "NEW":
		return Command{Kind: CmdNew}, nil
	case "LIST":
		return parseList(rest)
	case "DEL":
		if rest == "" {
			return Command{}, errors.New("DEL needs a line number or range")
		}
		first, last, err := parseRange(rest)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdDel, First: first, Last: last}, nil
	case "RENUM", "RENUMBER":
		return parseRenum(rest)
	case "VARS":
		return Command{Kind: CmdVars}, nil
	case "VAR":
		if rest == "" {
			return Command{}, errors.New("VAR needs a variable name")
		}
		return Command{Kind: CmdVar, Name: rest}, nil
	case "INFO":
		return Command{Kind: CmdInfo}, nil
	case "EXPORT":
		return pathCommand(CmdExport, "EXPORT", rest)
	case "IMPORT":
		return pathCommand(CmdImport, "IMPORT", rest)
	case "SAVE":
		return pathCommand(CmdSave, "SAVE", rest)
	case "LOAD":
		return pathCommand(CmdLoad, "LOAD", rest)
	case "DIR":
		return Command{Kind: CmdDir, Path: rest}, nil
	}
	return Command{Kind: CmdLine, Line: args}, nil
}

func parseList(args string) (Command, error) {
	cmd := Command{Kind: CmdList}
	fields := strings.Fields(args)
	if n := len(fields); n > 0 && strings.EqualFold(fields[n-1], "ATASCII") {
		cmd.Atascii = true
		fields = fields[:n-1]
	}
	switch len(fields) {
	case 0:
		return cmd, nil
	case 1:
		first, last, err := parseRange(fields[0])
		if err != nil {
			return Command{}, err
		}
		cmd.First, cmd.Last = first, last
		return cmd, nil
	}
	return Command{}, fmt.Errorf("LIST takes at most a range and ATASCII, got %q", args)
}

func parseRenum(args string) (Command, error) {
	cmd := Command{Kind: CmdRenum}
	fields := strings.Fields(args)
	if len(fields) > 2 {
		return Command{}, fmt.Errorf("RENUM takes at most a start and step, got %q", args)
	}
	into := []**int{&cmd.Start, &cmd.Step}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("bad renumber value %q", f)
		}
		*into[i] = &n
	}
	return cmd, nil
}

func parseState(args string) (Command, error) {
	word, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	var kind Kind
	switch strings.ToLower(word) {
	case "save":
		kind = CmdStateSave
	case "load":
		kind = CmdStateLoad
	default:
		return Command{}, fmt.Errorf("state wants save or load, got %q", word)
	}
	if rest == "" {
		return Command{}, fmt.Errorf("state %s needs a file path", word)
	}
	return Command{Kind: kind, Path: rest}, nil
}

func pathCommand(kind Kind, word, path string) (Command, error) {
	if path == "" {
		return Command{}, fmt.Errorf("%s needs a file path", word)
	}
	return Command{Kind: kind, Path: path}, nil
}

// parseRange reads "10", "10-50", or "10,50".
func parseRange(s string) (*int, *int, error) {
	sep := "-"
	if strings.Contains(s, ",") {
		sep = ","
	}
	lo, hi, split := strings.Cut(s, sep)

	first, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, nil, fmt.Errorf("bad line number %q", lo)
	}
	last := first
	if split {
		if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return nil, nil, fmt.Errorf("bad line number %q", hi)
		}
	}
	return &first, &last, nil
}

// ParseHexBytes reads a comma-separated hex byte list, with or
// without $ prefixes.
func ParseHexBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("detokenize needs hex bytes")
	}
	parts := strings.Split(s, ",")
	data := make([]byte, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimPrefix(strings.TrimSpace(part), "$")
		b, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad hex byte %q", part)
		}
		data = append(data, byte(b))
	}
	return data, nil
}

// HexBytes renders data the way detokenize reads it back.
func HexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ",")
}

// Format renders the command for the wire, without prefix or newline.
// Parse(Format()) gives the command back.
func (c Command) Format() string {
	switch c.Kind {
	case CmdPing:
		return "ping"
	case CmdVersion:
		return "version"
	case CmdStatus:
		return "status"
	case CmdQuit:
		return "quit"
	case CmdShutdown:
		return "shutdown"
	case CmdLine:
		return "basic " + c.Line
	case CmdNew:
		return "basic NEW"
	case CmdList:
		out := "basic LIST"
		if r := formatRange(c.First, c.Last); r != "" {
			out += " " + r
		}
		if c.Atascii {
			out += " ATASCII"
		}
		return out
	case CmdDel:
		return "basic DEL " + formatRange(c.First, c.Last)
	case CmdRenum:
		out := "basic RENUM"
		if c.Start != nil {
			out += fmt.Sprintf(" %d", *c.Start)
		}
		if c.Step != nil {
			out += fmt.Sprintf(" %d", *c.Step)
		}
		return out
	case CmdVars:
		return "basic VARS"
	case CmdVar:
		return "basic VAR " + c.Name
	case CmdInfo:
		return "basic INFO"
	case CmdExport:
		return "basic EXPORT " + c.Path
	case CmdImport:
		return "basic IMPORT " + c.Path
	case CmdSave:
		return "basic SAVE " + c.Path
	case CmdLoad:
		return "basic LOAD " + c.Path
	case CmdDir:
		if c.Path == "" {
			return "basic DIR"
		}
		return "basic DIR " + c.Path
	case CmdStateSave:
		return "state save " + c.Path
	case CmdStateLoad:
		return "state load " + c.Path
	case CmdTokenize:
		return "tokenize " + c.Line
	case CmdDetok:
		return "detokenize " + HexBytes(c.Data)
	}
	return ""
}

// FormatLine is the complete wire line for the command.
func (c Command) FormatLine() string {
	return CommandPrefix + c.Format() + "\n"
}

func formatRange(first, last *int) string {
	switch {
	case first == nil:
		return ""
	case last == nil || *last == *first:
		return strconv.Itoa(*first)
	}
	return fmt.Sprintf("%d-%d", *first, *last)
}
