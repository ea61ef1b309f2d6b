// Package snapshot wraps a saved program in a checksummed envelope so
// damaged or foreign files are rejected before any parsing happens.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/atticemu/atbasic/basfile"
	"github.com/atticemu/atbasic/program"
)

// The envelope is the magic, a format version, the xxhash64 of the
// payload, then the payload itself in tokenized file form.
const (
	Magic   = "ATSN"
	Version = 1

	headerLen = len(Magic) + 1 + 8
)

var (
	ErrNotSnapshot = errors.New("snapshot: bad magic")
	ErrBadVersion  = errors.New("snapshot: unsupported version")
	ErrBadChecksum = errors.New("snapshot: checksum mismatch")
)

// Write saves p inside a checksummed envelope.
func Write(w io.Writer, p *program.Program) error {
	var payload bytes.Buffer
	if err := basfile.Save(&payload, p); err != nil {
		return err
	}

	header := make([]byte, 0, headerLen)
	header = append(header, Magic...)
	header = append(header, Version)
	header = binary.LittleEndian.AppendUint64(header, xxhash.Sum64(payload.Bytes()))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// Read checks the envelope and loads the program inside it.
func Read(r io.Reader) (*program.Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen || string(data[:len(Magic)]) != Magic {
		return nil, ErrNotSnapshot
	}
	if v := data[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}

	sum := binary.LittleEndian.Uint64(data[len(Magic)+1:])
	payload := data[headerLen:]
	if xxhash.Sum64(payload) != sum {
		return nil, ErrBadChecksum
	}
	return basfile.Load(bytes.NewReader(payload))
}
