// Copyright (c) 2024 UIO register access for UIOuHAL.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command uioreg reads and writes hardware registers through UIOuHAL.
//
// Usage:
//
//	uioreg -connections FILE -id DEVICE COMMAND [ARGS...]
//	uioreg -uri URI COMMAND [ARGS...]
//
// Commands:
//
//	read ADDR [MASK]           read one word
//	write ADDR VALUE           write one word
//	block ADDR COUNT           read COUNT words (-fifo reads one address)
//	write-block ADDR VALUE...  write consecutive words
//	rmw-bits ADDR AND OR       replace the word with (word & AND) | OR
//	rmw-sum ADDR ADDEND        add ADDEND to the word
//	devices                    list connection ids or mapped devices
//	script FILE                run a Lua script against the device
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	uiouhal "github.com/tswilliams/UIOuHAL"
	"github.com/tswilliams/UIOuHAL/connection"
	"github.com/tswilliams/UIOuHAL/core"
)

var (
	connFile = flag.String("connections", "", "connections file")
	deviceID = flag.String("id", "", "connection id in the connections file")
	uri      = flag.String("uri", "", "transport URI, used instead of a connections file")
	fifo     = flag.Bool("fifo", false, "block operations access a single address")
	verbose  = flag.Bool("v", false, "debug logging")
	version  = flag.Bool("version", false, "print version and exit")
)

var log = logrus.New()

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] command [args...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println(uiouhal.Version())
		return
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if cmd == "devices" && *connFile != "" {
		if err := listConnections(*connFile); err != nil {
			log.Fatalf("Failed to read connections: %v", err)
		}
		return
	}

	conn, err := connect()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Disconnect()

	a := &app{
		conn: conn,
		out:  os.Stdout,
		tty:  term.IsTerminal(int(os.Stdout.Fd())),
		fifo: *fifo,
	}
	if err := a.run(cmd, args); err != nil {
		conn.Disconnect()
		log.Fatalf("%s: %v", cmd, err)
	}
}

func connect() (*core.Connection, error) {
	switch {
	case *uri != "":
		log.Debugf("Connecting to %s", *uri)
		return uiouhal.Connect(*uri)
	case *connFile != "" && *deviceID != "":
		m, err := connection.NewManager(*connFile)
		if err != nil {
			return nil, err
		}
		log.Debugf("Connecting to %s from %s", *deviceID, *connFile)
		return m.GetDevice(*deviceID)
	default:
		return nil, fmt.Errorf("either -uri or -connections with -id is required")
	}
}

func listConnections(file string) error {
	m, err := connection.NewManager(file)
	if err != nil {
		return err
	}
	for _, id := range m.IDs() {
		e, _ := m.Entry(id)
		fmt.Printf("%-24s %s\n", id, strings.TrimSpace(e.URI))
	}
	return nil
}
