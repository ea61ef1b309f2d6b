// Package httpapi puts the program store on an HTTP port, for editors
// and front ends that would rather speak JSON than the socket protocol.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/atticemu/atbasic/berrors"
	"github.com/atticemu/atbasic/detok"
	"github.com/atticemu/atbasic/program"
	"github.com/atticemu/atbasic/protocol"
	"github.com/atticemu/atbasic/tokenizer"
	"github.com/atticemu/atbasic/vartab"
)

// Handler serves the JSON API on top of a protocol server, so the
// socket and the web always see the same program.
type Handler struct {
	srv      *protocol.Server
	upgrader websocket.Upgrader
}

func New(srv *protocol.Server) *Handler {
	return &Handler{
		srv: srv,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the daemon binds to localhost, so any page on this
			// machine may talk to it
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes hangs all my endpoints off the router.
func (h *Handler) Routes(rtr *mux.Router) {
	rtr.HandleFunc("/program", h.getProgram).Methods("GET")
	rtr.HandleFunc("/program", h.postProgram).Methods("POST")
	rtr.HandleFunc("/program/{line:[0-9]+}", h.getLine).Methods("GET")
	rtr.HandleFunc("/program/{line:[0-9]+}", h.deleteLine).Methods("DELETE")
	rtr.HandleFunc("/vars", h.getVars).Methods("GET")
	rtr.HandleFunc("/info", h.getInfo).Methods("GET")
	rtr.HandleFunc("/tokenize", h.postTokenize).Methods("POST")
	rtr.HandleFunc("/detokenize", h.postDetokenize).Methods("POST")
	rtr.HandleFunc("/ws", h.serveWS)
}

type lineJSON struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	Bytes  string `json:"bytes,omitempty"`
}

type programJSON struct {
	Lines []lineJSON `json:"lines"`
}

type infoJSON struct {
	Lines     int `json:"lines"`
	Bytes     int `json:"bytes"`
	Variables int `json:"variables"`
}

type varJSON struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
}

type enterJSON struct {
	Number int  `json:"number"`
	Stored bool `json:"stored"`
}

type errorJSON struct {
	Error      string `json:"error"`
	Code       int    `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, status int, err error) {
	sendJSON(w, status, errorJSON{
		Error:      err.Error(),
		Code:       berrors.CodeOf(err),
		Suggestion: berrors.SuggestionOf(err),
	})
}

// getProgram lists the whole store. ?first= and ?last= narrow the
// range, ?format=text gives the plain listing, ?atascii=1 keeps the
// screen codes.
func (h *Handler) getProgram(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r)
	if err != nil {
		sendError(w, 400, err)
		return
	}
	rich := r.URL.Query().Get("atascii") == "1"

	var lines []detok.DetokenizedLine
	h.srv.Locked(func(p *program.Program) {
		lines = p.List(rng, rich)
	})

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, dl := range lines {
			io.WriteString(w, dl.Text+"\n")
		}
		return
	}

	out := programJSON{Lines: make([]lineJSON, 0, len(lines))}
	for _, dl := range lines {
		out.Lines = append(out.Lines, lineJSON{Number: dl.LineNumber, Text: dl.Text})
	}
	sendJSON(w, 200, out)
}

// postProgram enters one source line, exactly like typing it at the
// prompt. A bare line number deletes.
func (h *Handler) postProgram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Line string `json:"line"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, 400, err)
		return
	}

	var (
		num    int
		stored bool
		err    error
	)
	h.srv.Locked(func(p *program.Program) {
		num, stored, err = p.Enter(req.Line)
	})
	if err != nil {
		sendError(w, 422, err)
		return
	}
	sendJSON(w, 200, enterJSON{Number: num, Stored: stored})
}

func (h *Handler) getLine(w http.ResponseWriter, r *http.Request) {
	num, _ := strconv.Atoi(mux.Vars(r)["line"])
	rich := r.URL.Query().Get("atascii") == "1"

	var (
		dl  detok.DetokenizedLine
		buf []byte
		ok  bool
	)
	h.srv.Locked(func(p *program.Program) {
		dl, ok = p.ListLine(num, rich)
		if ok {
			buf, _ = p.LineBytes(num)
		}
	})
	if !ok {
		w.WriteHeader(404)
		return
	}
	sendJSON(w, 200, lineJSON{Number: dl.LineNumber, Text: dl.Text, Bytes: protocol.HexBytes(buf)})
}

func (h *Handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	num, _ := strconv.Atoi(mux.Vars(r)["line"])

	removed := 0
	h.srv.Locked(func(p *program.Program) {
		removed = p.Delete(num, num)
	})
	if removed == 0 {
		w.WriteHeader(404)
		return
	}
	sendJSON(w, 200, map[string]int{"removed": removed})
}

func (h *Handler) getVars(w http.ResponseWriter, r *http.Request) {
	out := []varJSON{}
	h.srv.Locked(func(p *program.Program) {
		for i, v := range p.Vars().Variables() {
			out = append(out, varJSON{Index: i, Name: v.Display(), Kind: v.Kind.String()})
		}
	})
	sendJSON(w, 200, out)
}

func (h *Handler) getInfo(w http.ResponseWriter, r *http.Request) {
	var info program.Info
	h.srv.Locked(func(p *program.Program) {
		info = p.Info()
	})
	sendJSON(w, 200, infoJSON{Lines: info.Lines, Bytes: info.Bytes, Variables: info.Variables})
}

// postTokenize runs a source line through the tokenizer without
// touching the stored program. Variable indexes count from zero.
func (h *Handler) postTokenize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Line string `json:"line"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, 400, err)
		return
	}

	tl, err := tokenizer.Tokenize(req.Line, vartab.New())
	if err != nil {
		sendError(w, 422, err)
		return
	}
	sendJSON(w, 200, lineJSON{Number: tl.LineNumber, Text: req.Line, Bytes: protocol.HexBytes(tl.Bytes)})
}

// postDetokenize renders raw line bytes against the stored program's
// variable table.
func (h *Handler) postDetokenize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bytes string `json:"bytes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, 400, err)
		return
	}
	data, err := protocol.ParseHexBytes(req.Bytes)
	if err != nil {
		sendError(w, 400, err)
		return
	}
	rich := r.URL.Query().Get("atascii") == "1"

	var dl *detok.DetokenizedLine
	h.srv.Locked(func(p *program.Program) {
		dl = detok.Detokenizer{Rich: rich}.Line(data, p.Vars())
	})
	if dl == nil {
		sendError(w, 422, errors.New("bytes do not form a stored line"))
		return
	}
	sendJSON(w, 200, lineJSON{Number: dl.LineNumber, Text: dl.Text})
}

// serveWS upgrades to a websocket speaking the same line protocol as
// the unix socket, one command per text frame.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		cmd, perr := protocol.Parse(strings.TrimSpace(string(msg)))
		if perr != nil {
			if werr := h.reply(conn, protocol.Errf("%s", perr)); werr != nil {
				return
			}
			continue
		}
		if werr := h.reply(conn, h.srv.Execute(cmd)); werr != nil {
			return
		}
		// same hangup rules as the socket transport
		switch cmd.Kind {
		case protocol.CmdQuit:
			return
		case protocol.CmdShutdown:
			h.srv.Close()
			return
		}
	}
}

func (h *Handler) reply(conn *websocket.Conn, resp protocol.Response) error {
	return conn.WriteMessage(websocket.TextMessage, []byte(resp.Format()))
}

func queryRange(r *http.Request) (detok.LineRange, error) {
	rng := detok.All()
	if s := r.URL.Query().Get("first"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return rng, fmt.Errorf("bad first %q", s)
		}
		rng.First = &n
	}
	if s := r.URL.Query().Get("last"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return rng, fmt.Errorf("bad last %q", s)
		}
		rng.Last = &n
	}
	return rng, nil
}
