// Package cli is the interactive side of the tool: a line loop that
// forwards what the user types to a protocol server and prints what
// comes back, the way the machine's full-screen editor would.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/atticemu/atbasic/protocol"
)

// Sender is the slice of the protocol client the loop needs. The real
// client satisfies it; tests drive the loop with a loopback.
type Sender interface {
	SendRaw(line string) (protocol.Response, error)
	Connect(path string) error
	ConnectedPath() string
}

// Options tune the loop.
type Options struct {
	Prompt  bool // print READY between commands
	Atascii bool // ask for ATASCII listings
}

// Interactive reports whether stdout is a terminal, which is how the
// binary decides to show prompts.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Run reads commands from in until EOF, .quit, or a dead connection.
// Everything that isn't a dot-command travels to the server as wire
// text, so the server stays the only place that parses BASIC.
func Run(c Sender, in io.Reader, out io.Writer, opts Options) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1024), 4*protocol.MaxLineLength)

	if opts.Prompt {
		fmt.Fprintf(out, "connected to %s\n", c.ConnectedPath())
		fmt.Fprintln(out, "READY")
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "."):
			if dotCommand(c, out, line) {
				return nil
			}
		default:
			resp, err := c.SendRaw(wire(line, opts.Atascii))
			if err != nil {
				return err
			}
			printResponse(out, resp)
			switch strings.ToLower(firstWord(line)) {
			case "quit", "shutdown":
				return nil
			}
		}
		if opts.Prompt {
			fmt.Fprintln(out, "READY")
		}
	}
	return sc.Err()
}

// wire builds the protocol line for what the user typed. A handful of
// words are protocol commands in their own right; everything else is
// program text for the basic command.
func wire(line string, atascii bool) string {
	switch strings.ToLower(firstWord(line)) {
	case "ping", "version", "status", "quit", "shutdown", "state", "tokenize", "detokenize":
		return line
	case "list":
		fields := strings.Fields(line)
		if atascii && !strings.EqualFold(fields[len(fields)-1], "ATASCII") {
			line += " ATASCII"
		}
	}
	return "basic " + line
}

// printResponse expands multi-line payloads. Errors come out with the
// banner the real machine used.
func printResponse(out io.Writer, resp protocol.Response) {
	if !resp.OK {
		fmt.Fprintf(out, "ERROR- %s\n", resp.Data)
		return
	}
	for _, line := range resp.Lines() {
		fmt.Fprintln(out, line)
	}
}

// dotCommand handles the client-side commands. It reports whether the
// loop should stop.
func dotCommand(c Sender, out io.Writer, line string) bool {
	word, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(word) {
	case ".quit", ".q":
		return true
	case ".connect":
		path := strings.TrimSpace(rest)
		if path == "" {
			fmt.Fprintln(out, ".connect needs a socket path")
			return false
		}
		if err := c.Connect(path); err != nil {
			fmt.Fprintf(out, "ERROR- %s\n", err)
			return false
		}
		fmt.Fprintf(out, "connected to %s\n", c.ConnectedPath())
	case ".help", ".h":
		printHelp(out)
	default:
		fmt.Fprintf(out, "unknown command %s (try .help)\n", word)
	}
	return false
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `.quit            leave the session, server keeps running
.connect PATH    attach to a different server socket
.help            this text
10 PRINT "HI"    numbered lines go into the program
LIST / DEL / RENUM / VARS / INFO / SAVE / LOAD ...  editor commands
quit / shutdown  protocol commands, shutdown stops the server
`)
}

func firstWord(line string) string {
	word, _, _ := strings.Cut(line, " ")
	return word
}
