// ABOUTME: Entry point for the output bridge remote
// ABOUTME: Lists a bridge's outputs and optionally selects one
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/Resonate-Protocol/outputselect/internal/discovery"
	"github.com/Resonate-Protocol/outputselect/internal/protocol"
	"github.com/Resonate-Protocol/outputselect/internal/remote"
	"github.com/Resonate-Protocol/outputselect/internal/version"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/selector"
)

var (
	serverAddr = flag.String("server", "", "Bridge address host:port (skip mDNS)")
	selectID   = flag.String("select", "", "Device id to select")
	name       = flag.String("name", "", "Remote friendly name (default: hostname-outputselect-remote)")
	timeout    = flag.Duration("timeout", 10*time.Second, "Discovery and reply timeout")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *debug {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	remoteName := *name
	if remoteName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		remoteName = fmt.Sprintf("%s-outputselect-remote", hostname)
	}
	log.Printf("Starting %s as %s", version.String(), remoteName)

	address := *serverAddr
	path := discovery.BridgePath
	if address == "" {
		disc := discovery.NewManager(discovery.Config{ServiceName: remoteName})
		disc.Browse()

		select {
		case server := <-disc.Servers():
			address = server.Addr()
			path = server.Path
			log.Printf("Discovered bridge %s at %s", server.Name, address)
		case <-time.After(*timeout):
			disc.Stop()
			fatalf("no output bridge found after %s", *timeout)
		}
		disc.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := remote.NewClient(remote.Config{ServerAddr: address, Path: path, Name: remoteName})
	if err := client.Connect(ctx); err != nil {
		fatalf("connection failed: %v", err)
	}
	defer client.Close()

	state := client.State()
	if *selectID != "" {
		if err := client.Select(*selectID); err != nil {
			fatalf("select failed: %v", err)
		}

		var err error
		state, err = client.AwaitSelection(ctx, *selectID)
		if errors.Is(err, context.DeadlineExceeded) {
			fatalf("no reply from bridge after %s", *timeout)
		}
		if err != nil {
			fatalf("select failed: %v", err)
		}
	}

	printState(client.Hello(), state)
}

// printState lists options the way the dropdown labels them
func printState(hello protocol.ServerHello, state protocol.State) {
	fmt.Printf("%s\n", hello.Name)
	for _, opt := range selector.Options(state.Devices) {
		if opt.Disabled {
			if state.Value == selector.PlaceholderValue {
				fmt.Printf("  > %s\n", opt.Label)
			}
			continue
		}
		marker := " "
		if opt.Value == state.Value {
			marker = ">"
		}
		fmt.Printf("  %s %-40s %s\n", marker, opt.Label, opt.Value)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "outputselect-remote: "+format+"\n", args...)
	os.Exit(1)
}
