// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"micviz/cmd"
	"micviz/internal/analysis"
	"micviz/internal/audio"
	"micviz/internal/config"
	applog "micviz/internal/log"
	"micviz/internal/transport"
	"micviz/internal/transport/udp"
	"micviz/internal/tui"
	"micviz/internal/viz"
	"micviz/pkg/build"

	"golang.org/x/sync/errgroup"
)

// main runs in three phases.
//
// 1. Startup: build info, arguments, logging, PortAudio, input source,
// analyzer, queue and sinks. Any failure here is fatal.
//
// 2. Concurrent: the input source drives the analyzer on the capture side
// while the presentation loop refreshes on its own cadence, either in the
// terminal host or headless.
//
// 3. Shutdown: a signal, the user quitting, or the end of a file input
// cancels the shared context; both sides return and resources are released.
func main() {
	// Development builds have no linker flags and keep the defaults.
	buildErr := build.Initialize()

	opts, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, cmd.Usage(err))
		os.Exit(2)
	}
	if opts.Config == nil {
		return
	}
	cfg := opts.Config

	closeLog := setupLogging(cfg)
	if buildErr != nil {
		applog.Debugf("Build: %v", buildErr)
	}

	err = run(cfg, opts)
	closeLog.Close()
	if err != nil {
		applog.SetOutput(os.Stderr)
		applog.Fatalf("%v", err)
	}
}

// setupLogging applies the level and output. The terminal host owns the
// screen, so it always logs to a file.
func setupLogging(cfg *config.Config) io.Closer {
	level, ok := applog.ParseLevel(cfg.Log.Level)
	if !ok {
		applog.Warnf("Unknown log level %q, using %s", cfg.Log.Level, level)
	}
	applog.SetLevel(level)

	path := cfg.Log.File
	if path == "" && drawsToTerminal(cfg) {
		path = config.DefaultTUILogFile
	}
	if path == "" {
		return io.NopCloser(nil)
	}
	return applog.OpenFile(path, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
}

func drawsToTerminal(cfg *config.Config) bool {
	return cfg.Command == cmd.CommandVisualize && !cfg.Display.Headless
}

func run(cfg *config.Config, opts *cmd.Options) error {
	usesPortAudio := cfg.Command == cmd.CommandDevices || cfg.Audio.Input == config.InputMic
	if usesPortAudio {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer func() {
			if err := audio.Terminate(); err != nil {
				applog.Warnf("%v", err)
			}
		}()
	}

	if cfg.Command == cmd.CommandDevices {
		if opts.Interactive {
			return tui.StartDeviceListUI(build.Get().Name)
		}
		return audio.ListDevices(os.Stdout)
	}
	return visualize(cfg)
}

func visualize(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := audio.NewSource(cfg.Audio)
	if err != nil {
		return fmt.Errorf("failed to open audio input: %w", err)
	}
	defer source.Close()
	format := source.Format()

	policy, err := transport.ParseOverflowPolicy(cfg.Transport.Overflow)
	if err != nil {
		return err
	}
	queue, err := transport.NewQueue[analysis.Result](cfg.Transport.QueueCapacity, policy)
	if err != nil {
		return err
	}

	sinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	loop := viz.NewLoop(queue, sinks...)
	defer loop.Close()

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var clock analysis.Clock = analysis.NewWallClock()
	if cfg.Analysis.Clock == "samples" {
		clock = analysis.SampleClock{SampleRate: format.SampleRate}
	}
	analyzer, err := analysis.NewAnalyzer(format, queue, analysis.Options{
		Hop:   cfg.Analysis.Hop,
		Clock: clock,
		Done:  ctx.Done(),
	})
	if err != nil {
		return err
	}
	applog.Infof("Capture: %s, window %d, bin width %.2f Hz, queue %d (%s)",
		format, config.FFTSize, analyzer.BinWidth(), queue.Cap(), queue.Policy())

	// Capture side. A file input ending leaves the last frame on screen until
	// the user quits; headless runs stop with it.
	g.Go(func() error {
		err := source.Run(ctx, analyzer)
		if err != nil || cfg.Display.Headless {
			cancel()
		}
		return err
	})

	// Presentation side.
	g.Go(func() error {
		defer cancel()
		if cfg.Display.Headless {
			return viz.RunHeadless(ctx, loop, cfg.RefreshInterval(), cfg.Display.ReportInterval)
		}
		name := cfg.Audio.Input
		if cfg.Audio.Path != "" {
			name += " " + cfg.Audio.Path
		}
		model := tui.NewVisualizerModel(loop, format, name, cfg.RefreshInterval(), cancel)
		return tui.RunVisualizer(ctx, model)
	})

	err = g.Wait()
	applog.Infof("Shutdown: %d frames analysed, %d results queued, %d dropped",
		analyzer.Frames(), queue.Sent(), queue.Dropped())
	return err
}

// openSinks creates the optional network outputs fed by the presentation loop.
func openSinks(cfg *config.Config) ([]transport.Sink, error) {
	sinks := []transport.Sink{transport.NewLoggingSink()}

	if addr := cfg.Transport.WebSocketAddr; addr != "" {
		ws := transport.NewWebSocketSink(cfg.Transport.WebSocketInterval)
		ws.ListenAndServe(addr)
		sinks = append(sinks, ws)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		pub, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			closeSinks(sinks)
			return nil, err
		}
		pub.Start()
		sinks = append(sinks, pub)
	}
	return sinks, nil
}

func closeSinks(sinks []transport.Sink) {
	for _, s := range sinks {
		s.Close()
	}
}
