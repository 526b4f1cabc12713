// ABOUTME: Entry point for the retime CLI
// ABOUTME: Parses flags, wires sources and sinks, and runs a scaling session
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Retime-Project/retime-go/internal/monitor"
	"github.com/Retime-Project/retime-go/internal/session"
	"github.com/Retime-Project/retime-go/internal/sink"
	"github.com/Retime-Project/retime-go/internal/source"
	"github.com/Retime-Project/retime-go/internal/ui"
	"github.com/Retime-Project/retime-go/internal/version"
	"github.com/Retime-Project/retime-go/pkg/media"
)

var (
	inPath      = flag.String("in", "", "Input audio file (MP3, FLAC). Empty plays a test tone")
	framesPath  = flag.String("frames", "", "Input frame-sequence (.fseq) video file")
	outPath     = flag.String("out", "out.pcm", "Output audio file (.pcm or .opus)")
	framesOut   = flag.String("frames-out", "", "Output frame-sequence file (default: <frames>.retimed.fseq)")
	duration    = flag.Duration("duration", 0, "Target duration (required), e.g. 1m30s")
	fps         = flag.Float64("fps", 0, "Target frame rate (default: source rate, or 30 for audio-only)")
	bitDepth    = flag.Int("bits", 16, "PCM output bit depth (16 or 24)")
	opusOut     = flag.Bool("opus", false, "Encode audio output as opus packets")
	play        = flag.Bool("play", false, "Play retimed audio on the default device instead of writing a file")
	monitorAddr = flag.String("monitor", "", "Listen address for websocket progress monitoring (e.g. :8927)")
	useTUI      = flag.Bool("tui", false, "Show an interactive terminal UI")
	logFile     = flag.String("log-file", "retime.log", "Log file path")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *useTUI {
		// The TUI owns the terminal; logs go to the file only.
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("%s %s starting", version.Product, version.Version)
	if *debug {
		log.Printf("Debug logging enabled")
	}

	if *duration <= 0 {
		log.Fatalf("-duration is required and must be positive")
	}

	if err := run(); err != nil {
		log.Fatalf("retime failed: %v", err)
	}
}

func run() error {
	// Audio input
	src, err := source.New(*inPath)
	if err != nil {
		return err
	}
	defer src.Close()
	asset := src.Info()

	// Optional video input
	var videoDec media.VideoDecoder
	var videoEnc media.VideoEncoder
	if *framesPath != "" {
		reader, err := source.NewFrameSeqReader(*framesPath)
		if err != nil {
			return err
		}
		defer reader.Close()
		videoDec = reader

		asset.FrameRate = reader.FrameRate()
		if d := reader.Duration(); d > asset.Duration {
			asset.Duration = d
		}

		rate := *fps
		if rate <= 0 {
			rate = reader.FrameRate()
		}
		outName := *framesOut
		if outName == "" {
			outName = *framesPath + ".retimed.fseq"
		}
		writer, err := sink.NewFrameSeqWriter(outName, rate)
		if err != nil {
			return err
		}
		videoEnc = writer
	}

	targetFPS := *fps
	if targetFPS <= 0 {
		targetFPS = asset.FrameRate
	}
	if targetFPS <= 0 {
		targetFPS = 30
	}

	audioEnc, err := buildAudioSink(asset)
	if err != nil {
		return err
	}

	var mon *monitor.Server
	if *monitorAddr != "" {
		mon = monitor.New(*monitorAddr)
		if err := mon.Start(); err != nil {
			return err
		}
		defer mon.Stop()
	}

	cfg := session.Config{
		Asset:           asset,
		TargetDuration:  *duration,
		TargetFrameRate: targetFPS,
		AudioDecoder:    src,
		AudioEncoder:    audioEnc,
		VideoDecoder:    videoDec,
		VideoEncoder:    videoEnc,
	}

	// The callbacks close over sess and program, both assigned below
	// before Run starts either pipeline.
	var sess *session.Session
	var program *tea.Program
	cfg.OnProgress = func(total float64, preview *media.Frame) {
		if mon != nil {
			mon.Publish(monitor.Snapshot{
				SessionID: sess.ID(),
				State:     "Scaling",
				Progress:  total,
				FPS:       targetFPS,
			})
		}
		if program != nil {
			program.Send(ui.StatusMsg{State: "Scaling", Progress: total})
		}
	}
	cfg.OnComplete = func(res session.Result) {
		if mon != nil {
			state := "Done"
			if res.Cancelled {
				state = "Cancelled"
			}
			mon.Publish(monitor.Snapshot{
				SessionID: res.SessionID,
				State:     state,
				Progress:  1,
				Frames:    res.FramesEmitted,
				Samples:   res.SamplesEmitted,
			})
		}
		if program != nil {
			program.Send(ui.DoneMsg{Cancelled: res.Cancelled, Err: res.Err})
		}
	}

	sess, err = session.New(cfg)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, cancelling session", sig)
		sess.Cancel()
	}()

	log.Printf("Retiming %s: %v -> %v (factor %.4f)",
		inputName(), asset.Duration, *duration, sess.Factor())

	if *useTUI {
		return runWithTUI(sess, asset, &program)
	}

	res := sess.Run(context.Background())
	return reportResult(res)
}

// buildAudioSink selects the audio output per flags.
func buildAudioSink(asset media.AssetInfo) (media.AudioEncoder, error) {
	switch {
	case *play:
		return sink.NewPlaybackSink(asset.SampleRate, asset.Channels)
	case *opusOut:
		return sink.NewOpusFileSink(*outPath, asset.SampleRate, asset.Channels)
	default:
		return sink.NewPCMFileSink(*outPath, *bitDepth)
	}
}

// runWithTUI drives the session from a goroutine while bubbletea owns
// the terminal.
func runWithTUI(sess *session.Session, asset media.AssetInfo, program **tea.Program) error {
	info := ui.SessionInfo{
		SessionID:      sess.ID(),
		InputName:      inputName(),
		SourceDuration: asset.Duration,
		TargetDuration: *duration,
		SampleRate:     asset.SampleRate,
		Channels:       asset.Channels,
		FrameRate:      asset.FrameRate,
		Factor:         sess.Factor(),
	}

	p, err := ui.Run(info, sess.Cancel)
	if err != nil {
		return err
	}
	*program = p

	resChan := make(chan session.Result, 1)
	go func() {
		resChan <- sess.Run(context.Background())
	}()

	if _, err := p.Run(); err != nil {
		sess.Cancel()
	}
	res := <-resChan
	return reportResult(res)
}

func reportResult(res session.Result) error {
	switch {
	case res.Cancelled:
		log.Printf("Session %s cancelled (%d frames, %d samples written)",
			res.SessionID, res.FramesEmitted, res.SamplesEmitted)
		return nil
	case res.Err != nil:
		return fmt.Errorf("session %s: %w", res.SessionID, res.Err)
	default:
		log.Printf("Session %s complete: %d frames, %d samples",
			res.SessionID, res.FramesEmitted, res.SamplesEmitted)
		return nil
	}
}

func inputName() string {
	if *inPath == "" {
		return fmt.Sprintf("test tone (%s)", 5*time.Second)
	}
	return *inPath
}
