package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/atticemu/atbasic/cli"
	"github.com/atticemu/atbasic/httpapi"
	"github.com/atticemu/atbasic/protocol"
)

// Serving and connecting are exclusive; with neither, the positional
// arguments name a file command (list, info, tokenize, snapshot,
// restore).
var (
	serve    = flag.Bool("serve", false, "run the engine daemon")
	socket   = flag.String("socket", "", "daemon socket path (default /tmp/atbasic-<pid>.sock)")
	httpAddr = flag.String("http", "", "also serve the JSON API on this address")
	connect  = flag.String("connect", "", "attach to a running daemon, 'auto' discovers one")
	atascii  = flag.Bool("atascii", false, "render listings with ATASCII screen codes")
	outPath  = flag.String("o", "", "output file for tokenize/snapshot/restore")
)

func main() {
	flag.Parse()

	switch {
	case *serve:
		runServer()
	case *connect != "":
		runClient()
	default:
		if err := fileCommand(flag.Args(), *atascii, *outPath); err != nil {
			log.Fatal(err)
		}
	}
}

func runServer() {
	srv := protocol.NewServer(nil)

	path := *socket
	if path == "" {
		path = protocol.CurrentSocketPath()
	}

	if *httpAddr != "" {
		rtr := mux.NewRouter()
		httpapi.New(srv).Routes(rtr)
		go func() {
			log.Printf("json api on %q...", *httpAddr)
			log.Fatal(http.ListenAndServe(*httpAddr, rtr))
		}()
	}

	log.Printf("listening on %q...", path)
	if err := srv.ServeUnix(path); err != nil {
		log.Fatal(err)
	}
}

func runClient() {
	c := protocol.NewClient()

	var err error
	if *connect == "auto" {
		err = c.Discover()
	} else {
		err = c.Connect(*connect)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	opts := cli.Options{Prompt: cli.Interactive(), Atascii: *atascii}
	if err := cli.Run(c, os.Stdin, os.Stdout, opts); err != nil {
		log.Fatal(err)
	}
}
