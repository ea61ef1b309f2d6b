package protocol

import (
	"fmt"
	"strings"
)

// Response answers one command.
type Response struct {
	OK   bool
	Data string
}

func OK(data string) Response { return Response{OK: true, Data: data} }

// OKLines joins a multi-line reply with the record separator.
func OKLines(lines []string) Response {
	return Response{OK: true, Data: strings.Join(lines, Separator)}
}

func Errf(format string, args ...interface{}) Response {
	return Response{Data: fmt.Sprintf(format, args...)}
}

// Format renders the response for the wire, without the newline.
func (r Response) Format() string {
	if r.OK {
		return OKPrefix + r.Data
	}
	return ErrorPrefix + r.Data
}

// Lines splits a multi-line reply back apart.
func (r Response) Lines() []string {
	if r.Data == "" {
		return nil
	}
	return strings.Split(r.Data, Separator)
}

// Event is an unsolicited server line, like the shutdown notice.
type Event struct {
	Name string
	Data string
}

func (e Event) Format() string {
	if e.Data == "" {
		return EventPrefix + e.Name
	}
	return EventPrefix + e.Name + " " + e.Data
}

// Message is one line from the server: a response or an event.
type Message struct {
	IsEvent bool
	Resp    Response
	Event   Event
}

// ParseMessage reads one server line.
func ParseMessage(line string) (Message, error) {
	text := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(text, OKPrefix):
		return Message{Resp: OK(text[len(OKPrefix):])}, nil
	case strings.HasPrefix(text, ErrorPrefix):
		return Message{Resp: Response{Data: text[len(ErrorPrefix):]}}, nil
	case strings.HasPrefix(text, EventPrefix):
		name, data, _ := strings.Cut(text[len(EventPrefix):], " ")
		return Message{IsEvent: true, Event: Event{Name: name, Data: data}}, nil
	}
	return Message{}, fmt.Errorf("unexpected server line %q", text)
}
