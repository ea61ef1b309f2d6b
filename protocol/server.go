package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/atticemu/atbasic/basfile"
	"github.com/atticemu/atbasic/detok"
	"github.com/atticemu/atbasic/program"
	"github.com/atticemu/atbasic/snapshot"
	"github.com/atticemu/atbasic/tokenizer"
	"github.com/atticemu/atbasic/vartab"
)

// Server owns a program image and answers protocol commands against
// it. One mutex serializes the commands, so wire clients and
// in-process callers always see the same program.
type Server struct {
	mu   sync.Mutex
	prog *program.Program

	lnMu    sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{}
	closing bool
}

// NewServer wraps prog in a server. A nil prog starts empty.
func NewServer(prog *program.Program) *Server {
	if prog == nil {
		prog = program.New()
	}
	return &Server{prog: prog}
}

// ServeUnix listens on a unix socket at path and serves until Close.
// The socket file is removed on the way out.
func (s *Server) ServeUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	defer os.Remove(path)
	return s.Serve(ln)
}

// Serve accepts clients until Close, one goroutine each.
func (s *Server) Serve(ln net.Listener) error {
	s.lnMu.Lock()
	if s.closing {
		s.lnMu.Unlock()
		ln.Close()
		return net.ErrClosed
	}
	s.ln = ln
	s.lnMu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.lnMu.Lock()
			closing := s.closing
			s.lnMu.Unlock()
			if closing {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops the accept loop and hangs up on every client after a
// shutdown event.
func (s *Server) Close() error {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.closing {
		return nil
	}
	s.closing = true

	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for conn := range s.conns {
		fmt.Fprintln(conn, Event{Name: "shutdown"}.Format())
		conn.Close()
	}
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	if s.closing {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	conn.Close()
	s.lnMu.Lock()
	delete(s.conns, conn)
	s.lnMu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)

	session := uuid.NewString()[:8]
	log.Printf("session %s connected", session)
	defer log.Printf("session %s closed", session)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 1024), 4*MaxLineLength)

	for sc.Scan() {
		cmd, err := Parse(sc.Text())
		if err != nil {
			if _, werr := fmt.Fprintln(conn, Errf("%s", err).Format()); werr != nil {
				return
			}
			continue
		}

		if _, err := fmt.Fprintln(conn, s.Execute(cmd).Format()); err != nil {
			return
		}

		// connection control happens out here, not in Execute
		switch cmd.Kind {
		case CmdQuit:
			return
		case CmdShutdown:
			s.Close()
			return
		}
	}
}

// HandleLine runs one raw request line and returns the reply line,
// both without newlines. quit and shutdown only answer here; hanging
// up is the transport's job.
func (s *Server) HandleLine(line string) string {
	cmd, err := Parse(line)
	if err != nil {
		return Errf("%s", err).Format()
	}
	return s.Execute(cmd).Format()
}

// Locked runs f on the program under the same lock Execute takes, for
// in-process callers that want typed access instead of wire text.
func (s *Server) Locked(f func(*program.Program)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.prog)
}

// Execute runs one command against the program.
func (s *Server) Execute(cmd Command) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Kind {
	case CmdPing:
		return OK("pong")
	case CmdVersion:
		return OK("atbasic " + Version)
	case CmdStatus:
		info := s.prog.Info()
		return OK(fmt.Sprintf("ready lines=%d bytes=%d variables=%d", info.Lines, info.Bytes, info.Variables))
	case CmdQuit:
		return OK("bye")
	case CmdShutdown:
		return OK("shutting down")

	case CmdLine:
		num, stored, err := s.prog.Enter(cmd.Line)
		if err != nil {
			return Errf("%s", err)
		}
		if !stored {
			return OK(fmt.Sprintf("deleted %d", num))
		}
		return OK(fmt.Sprintf("stored %d", num))
	case CmdNew:
		s.prog.Clear()
		return OK("cleared")
	case CmdList:
		lines := s.prog.List(detok.LineRange{First: cmd.First, Last: cmd.Last}, cmd.Atascii)
		texts := make([]string, len(lines))
		for i, dl := range lines {
			texts[i] = dl.Text
		}
		return OKLines(texts)
	case CmdDel:
		if cmd.First == nil || cmd.Last == nil {
			return Errf("DEL needs a line number or range")
		}
		n := s.prog.Delete(*cmd.First, *cmd.Last)
		return OK(fmt.Sprintf("removed %d lines", n))
	case CmdRenum:
		start, step := 10, 10
		if cmd.Start != nil {
			start = *cmd.Start
		}
		if cmd.Step != nil {
			step = *cmd.Step
		}
		missed, err := s.prog.Renumber(start, step)
		if err != nil {
			return Errf("%s", err)
		}
		msg := fmt.Sprintf("renumbered %d lines", s.prog.Info().Lines)
		if len(missed) > 0 {
			msg += ", unresolved targets " + joinInts(missed)
		}
		return OK(msg)
	case CmdVars:
		vars := s.prog.Vars().Variables()
		lines := make([]string, len(vars))
		for i, v := range vars {
			lines[i] = fmt.Sprintf("%d %s %s", i, v.Kind, v.Display())
		}
		return OKLines(lines)
	case CmdVar:
		want := displayVariable(cmd.Name)
		i, ok := s.prog.Vars().Lookup(want)
		if !ok {
			return Errf("no variable %s", want.Display())
		}
		v, _ := s.prog.Vars().At(i)
		return OK(fmt.Sprintf("%d %s %s", i, v.Kind, v.Display()))
	case CmdInfo:
		info := s.prog.Info()
		return OK(fmt.Sprintf("lines=%d bytes=%d variables=%d", info.Lines, info.Bytes, info.Variables))

	case CmdExport:
		f, err := os.Create(cmd.Path)
		if err != nil {
			return Errf("%s", err)
		}
		if err := basfile.ExportText(f, s.prog, false); err != nil {
			f.Close()
			return Errf("%s", err)
		}
		if err := f.Close(); err != nil {
			return Errf("%s", err)
		}
		return OK(fmt.Sprintf("exported %d lines to %s", s.prog.Info().Lines, cmd.Path))
	case CmdImport:
		f, err := os.Open(cmd.Path)
		if err != nil {
			return Errf("%s", err)
		}
		loaded, err := basfile.ImportText(f)
		f.Close()
		if err != nil {
			return Errf("%s", err)
		}
		s.prog.ReplaceWith(loaded)
		return OK(fmt.Sprintf("imported %d lines", s.prog.Info().Lines))
	case CmdSave:
		var buf bytes.Buffer
		if err := basfile.Save(&buf, s.prog); err != nil {
			return Errf("%s", err)
		}
		if err := os.WriteFile(cmd.Path, buf.Bytes(), 0o644); err != nil {
			return Errf("%s", err)
		}
		return OK(fmt.Sprintf("saved %d bytes to %s", buf.Len(), cmd.Path))
	case CmdLoad:
		f, err := os.Open(cmd.Path)
		if err != nil {
			return Errf("%s", err)
		}
		loaded, err := basfile.Load(f)
		f.Close()
		if err != nil {
			return Errf("%s", err)
		}
		s.prog.ReplaceWith(loaded)
		return OK(fmt.Sprintf("loaded %d lines", s.prog.Info().Lines))
	case CmdDir:
		dir := cmd.Path
		if dir == "" {
			dir = "."
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return Errf("%s", err)
		}
		var lines []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".bas", ".lst", ".atsn":
			default:
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s %d", e.Name(), info.Size()))
		}
		return OKLines(lines)

	case CmdStateSave:
		f, err := os.Create(cmd.Path)
		if err != nil {
			return Errf("%s", err)
		}
		if err := snapshot.Write(f, s.prog); err != nil {
			f.Close()
			return Errf("%s", err)
		}
		if err := f.Close(); err != nil {
			return Errf("%s", err)
		}
		return OK("state saved to " + cmd.Path)
	case CmdStateLoad:
		f, err := os.Open(cmd.Path)
		if err != nil {
			return Errf("%s", err)
		}
		loaded, err := snapshot.Read(f)
		f.Close()
		if err != nil {
			return Errf("%s", err)
		}
		s.prog.ReplaceWith(loaded)
		return OK(fmt.Sprintf("state loaded, %d lines", s.prog.Info().Lines))

	case CmdTokenize:
		tl, err := tokenizer.Tokenize(cmd.Line, vartab.New())
		if err != nil {
			return Errf("%s", err)
		}
		return OK(HexBytes(tl.Bytes))
	case CmdDetok:
		dl := detok.Detokenizer{}.Line(cmd.Data, s.prog.Vars())
		if dl == nil {
			return Errf("bytes do not form a stored line")
		}
		return OK(dl.Text)
	}
	return Errf("unknown command kind %d", cmd.Kind)
}

// displayVariable turns a listing-form name (A, A$, M() into a lookup
// key.
func displayVariable(name string) vartab.Variable {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(name, "$"):
		return vartab.Variable{Name: strings.TrimSuffix(name, "$"), Kind: vartab.Str}
	case strings.HasSuffix(name, "("):
		return vartab.Variable{Name: strings.TrimSuffix(name, "("), Kind: vartab.Array}
	}
	return vartab.Variable{Name: name, Kind: vartab.Numeric}
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
