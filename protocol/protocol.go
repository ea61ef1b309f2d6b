// Package protocol carries the text protocol between a workbench
// server and its clients. Requests and replies are single lines over a
// unix socket:
//
//	CLI: CMD:ping
//	SRV: OK:pong
//	CLI: CMD:basic 10 PRINT "HI"
//	SRV: OK:stored 10
//	CLI: CMD:basic LIST
//	SRV: OK:10 PRINT "HI"
//
// Replies with more than one line join them with the record separator
// character so the reply still fits on one wire line.
package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	CommandPrefix = "CMD:"
	OKPrefix      = "OK:"
	ErrorPrefix   = "ERR:"
	EventPrefix   = "EVENT:"

	// Separator splits the lines of a multi-line reply (ASCII 0x1E).
	Separator = "\x1E"

	// MaxLineLength bounds one protocol line in bytes.
	MaxLineLength = 4096

	// Version names the protocol revision, not the program build.
	Version = "1.0"

	CommandTimeout = 30 * time.Second
	PingTimeout    = 1 * time.Second
	ConnectTimeout = 5 * time.Second

	socketPrefix = "/tmp/atbasic-"
	socketSuffix = ".sock"
)

// SocketPath returns the socket path a server with the given pid
// listens on.
func SocketPath(pid int) string {
	return fmt.Sprintf("%s%d%s", socketPrefix, pid, socketSuffix)
}

// CurrentSocketPath returns the socket path for this process.
func CurrentSocketPath() string {
	return SocketPath(os.Getpid())
}

// DiscoverSockets finds the sockets of running servers, most recently
// touched first.
func DiscoverSockets() ([]string, error) {
	matches, err := filepath.Glob(socketPrefix + "*" + socketSuffix)
	if err != nil {
		return nil, err
	}

	type entry struct {
		path string
		mod  time.Time
	}
	found := make([]entry, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue // stale or unreadable, skip it
		}
		found = append(found, entry{path: path, mod: info.ModTime()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod.After(found[j].mod) })

	paths := make([]string, len(found))
	for i, e := range found {
		paths[i] = e.path
	}
	return paths, nil
}

// DiscoverSocket returns the most recently active server socket, or ""
// when none is up.
func DiscoverSocket() string {
	paths, err := DiscoverSockets()
	if err != nil || len(paths) == 0 {
		return ""
	}
	return paths[0]
}
