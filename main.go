// ABOUTME: Entry point for the audio output selector
// ABOUTME: Parses CLI flags and wires devices, preview, TUI and bridge
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/outputselect/internal/app"
	"github.com/Resonate-Protocol/outputselect/internal/bridge"
	"github.com/Resonate-Protocol/outputselect/internal/ui"
	"github.com/Resonate-Protocol/outputselect/internal/version"
	"github.com/Resonate-Protocol/outputselect/pkg/audio"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/decode"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/devices"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/output"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/resample"
	"github.com/Resonate-Protocol/outputselect/pkg/audio/tone"
	tea "github.com/charmbracelet/bubbletea"
)

const previewRate = 48000

var (
	backend       = flag.String("backend", "malgo", "Device backend: malgo, portaudio or static")
	outputBackend = flag.String("output", "", "Preview output backend: malgo, portaudio, oto or discard (default: match -backend)")
	deviceID      = flag.String("device", "", "Initially selected output device id")
	selectDefault = flag.Bool("select-default", false, "Select the system default output when nothing is selected")
	preview       = flag.String("preview", "tone", "Preview audio: tone, off or path to an MP3 file")
	volume        = flag.Int("volume", 50, "Preview volume (0-100)")
	refresh       = flag.Duration("refresh", 5*time.Second, "Device list refresh interval (0 disables)")
	port          = flag.Int("port", 8928, "Bridge WebSocket port")
	name          = flag.String("name", "", "Bridge friendly name (default: hostname-outputselect)")
	noMDNS        = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noBridge      = flag.Bool("no-bridge", false, "Disable the remote bridge")
	logFile       = flag.String("log-file", "outputselect.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	debug         = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	bridgeName := *name
	if bridgeName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		bridgeName = fmt.Sprintf("%s-outputselect", hostname)
	}

	log.Printf("Starting %s: %s", version.String(), bridgeName)
	if *debug {
		log.Printf("Debug logging enabled")
	}

	enum, err := devices.New(*backend)
	if err != nil {
		log.Fatalf("Failed to create device backend: %v", err)
	}

	out, source, err := previewChain(*preview, *backend, *outputBackend)
	if err != nil {
		log.Fatalf("Failed to set up preview: %v", err)
	}
	if out != nil {
		out.SetVolume(*volume)
	}

	ctrl := app.New(app.Config{
		InitialDeviceID: *deviceID,
		SelectDefault:   *selectDefault,
		RefreshInterval: *refresh,
		Debug:           *debug,
	}, enum, out, source)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		ctrl.Run(ctx)
	}()

	var bridgeDone chan struct{}
	if !*noBridge {
		srv := bridge.New(bridge.Config{
			Port:       *port,
			Name:       bridgeName,
			EnableMDNS: !*noMDNS,
			Debug:      *debug,
		}, ctrl)

		bridgeDone = make(chan struct{})
		go func() {
			defer close(bridgeDone)
			if err := srv.Start(ctx); err != nil {
				log.Printf("Bridge error: %v", err)
			}
		}()
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls
	tuiDone := make(chan struct{})

	if useTUI {
		controls = ui.NewControls()
		tuiProg = ui.Run("Audio output", ctrl.SetDevice, controls)
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go forwardState(ctx, ctrl, tuiProg)
		go handleControls(ctx, ctrl, controls)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if controls != nil {
		select {
		case <-controls.Quit:
			log.Printf("Received quit signal from TUI")
		case <-tuiDone:
			log.Printf("TUI exited")
		case <-sigChan:
			log.Printf("Shutdown signal received")
			tuiProg.Quit()
		}
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	cancel()
	<-runDone
	if bridgeDone != nil {
		<-bridgeDone
	}
	if tuiProg != nil {
		tuiProg.Wait()
	}

	if err := ctrl.Close(); err != nil {
		log.Printf("Error closing audio: %v", err)
	}

	log.Printf("Stopped")
}

// previewChain builds the output and source used to audition the selected
// device. Both are nil when previews are off.
func previewChain(preview, deviceBackend, outputName string) (output.Output, audio.Source, error) {
	if preview == "off" {
		return nil, nil, nil
	}

	var source audio.Source
	switch {
	case preview == "tone":
		source = tone.New(440, previewRate, 2)
	case strings.HasSuffix(strings.ToLower(preview), ".mp3"):
		mp3, err := decode.OpenMP3(preview, true)
		if err != nil {
			return nil, nil, err
		}
		// keep the output at one rate whatever the clip's rate
		source = resample.NewSource(mp3, previewRate)
	default:
		return nil, nil, fmt.Errorf("unsupported preview %q (want tone, off or an .mp3 file)", preview)
	}

	if outputName == "" {
		outputName = deviceBackend
	}
	out, err := output.New(outputName)
	if err != nil {
		source.Close()
		return nil, nil, err
	}
	return out, source, nil
}

// forwardState pushes controller snapshots into the TUI
func forwardState(ctx context.Context, ctrl *app.Controller, prog *tea.Program) {
	updates, unsubscribe := ctrl.Subscribe(4)
	defer unsubscribe()

	sendState := func(state app.State) {
		prog.Send(ui.StateMsg{
			Devices:          state.Devices,
			SelectedDeviceID: state.SelectedDeviceID,
			Muted:            state.Muted,
			Err:              state.Err,
		})
	}

	sendState(ctrl.State())
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			sendState(state)
		}
	}
}

// handleControls processes refresh and mute requests from the TUI
func handleControls(ctx context.Context, ctrl *app.Controller, controls *ui.Controls) {
	for {
		select {
		case <-controls.Refresh:
			log.Printf("Refresh requested")
			ctrl.Refresh(ctx)
		case <-controls.Mute:
			ctrl.ToggleMute()
		case <-ctx.Done():
			return
		}
	}
}
