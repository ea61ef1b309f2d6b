package main

// The file commands work on the three formats directly, no daemon
// needed. The extension picks the codec: .bas is the tokenized image,
// .lst the text listing, .atsn the checksummed snapshot.

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atticemu/atbasic/basfile"
	"github.com/atticemu/atbasic/detok"
	"github.com/atticemu/atbasic/program"
	"github.com/atticemu/atbasic/snapshot"
)

// fileCommand dispatches "atbasic <verb> <file>".
func fileCommand(args []string, atascii bool, outPath string) error {
	if len(args) == 0 {
		return errors.New("nothing to do: -serve, -connect, or a file command (list, info, tokenize, snapshot, restore)")
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "list":
		return listFile(rest, atascii)
	case "info":
		return infoFile(rest)
	case "tokenize":
		return convertFile(rest, outPath, "bas")
	case "snapshot":
		return convertFile(rest, outPath, "atsn")
	case "restore":
		return convertFile(rest, outPath, "bas")
	}
	return fmt.Errorf("unknown command %q", verb)
}

func listFile(args []string, atascii bool) error {
	if len(args) != 1 {
		return errors.New("list needs one file")
	}
	p, err := loadAny(args[0])
	if err != nil {
		return err
	}
	for _, dl := range p.List(detok.All(), atascii) {
		fmt.Println(dl.Text)
	}
	return nil
}

func infoFile(args []string) error {
	if len(args) != 1 {
		return errors.New("info needs one file")
	}
	p, err := loadAny(args[0])
	if err != nil {
		return err
	}

	info := p.Info()
	fmt.Printf("lines     %d\n", info.Lines)
	fmt.Printf("bytes     %d\n", info.Bytes)
	fmt.Printf("variables %d\n", info.Variables)
	for i, v := range p.Vars().Variables() {
		fmt.Printf("  %3d %-8s %s\n", i, v.Kind, v.Display())
	}
	return nil
}

// convertFile rewrites one file as another format. Without -o the
// output sits next to the input with the new extension.
func convertFile(args []string, outPath, defExt string) error {
	if len(args) != 1 {
		return errors.New("need one input file")
	}
	p, err := loadAny(args[0])
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = swapExt(args[0], defExt)
	}
	return writeAny(outPath, p)
}

// loadAny reads a program from whichever format the extension names.
func loadAny(path string) (*program.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext(path) {
	case "bas":
		return basfile.Load(f)
	case "lst":
		return basfile.ImportText(f)
	case "atsn":
		return snapshot.Read(f)
	}
	return nil, fmt.Errorf("don't know how to read %q (want .bas, .lst, or .atsn)", path)
}

// writeAny saves a program in the format the output extension names.
func writeAny(path string, p *program.Program) error {
	var buf bytes.Buffer
	switch ext(path) {
	case "bas":
		if err := basfile.Save(&buf, p); err != nil {
			return err
		}
	case "lst":
		if err := basfile.ExportText(&buf, p, false); err != nil {
			return err
		}
	case "atsn":
		if err := snapshot.Write(&buf, p); err != nil {
			return err
		}
	default:
		return fmt.Errorf("don't know how to write %q (want .bas, .lst, or .atsn)", path)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func swapExt(path, newExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + newExt
}
