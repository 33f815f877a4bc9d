// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"micviz/internal/config"
	"micviz/pkg/build"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Commands selected on the command line.
const (
	CommandVisualize = "visualize"
	CommandDevices   = "devices"
)

// Options is the result of parsing the command line. Config is nil when
// nothing should run, e.g. after --help or --version.
type Options struct {
	Config      *config.Config
	Interactive bool // devices: browse instead of printing
}

// flagValues receives flag values before they are merged over the config file.
type flagValues struct {
	configPath      string
	deviceID        int
	channels        int
	sampleRate      float64
	sampleFormat    string
	framesPerBuffer int
	lowLatency      bool
	input           string
	path            string
	mimeType        string
	realtime        bool
	hop             int
	clock           string
	queueCapacity   int
	overflow        string
	wsAddr          string
	udpAddr         string
	headless        bool
	logLevel        string
	logFile         string
	interactive     bool
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies every flag the user set on top of it.
func ParseArgs(args []string, out io.Writer) (*Options, error) {
	info := build.Get()
	var (
		fv   flagValues
		opts Options
	)

	load := func(cmd *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(fv.configPath)
		if err != nil {
			return err
		}
		fv.apply(cmd.Flags(), cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.Command = command
		opts.Config = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         info.Description,
		Version:       info.String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(cmd, CommandVisualize)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Interactive = fv.interactive
			return load(cmd, CommandDevices)
		},
	}
	devicesCmd.Flags().BoolVarP(&fv.interactive, "interactive", "i", false,
		"Browse devices interactively")
	rootCmd.AddCommand(devicesCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&fv.configPath, "config", "",
		"Path to a YAML config file (default: ./config.yaml or ./micviz.yaml if present)")

	// Audio input
	pf.IntVarP(&fv.deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID, -1 for the system default. Use 'devices' to see available devices.")
	pf.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels,
		"Channels to capture (downmixed to mono), 0 lets the device decide")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hz, 0 uses the device default")
	pf.StringVarP(&fv.sampleFormat, "format", "f", config.DefaultSampleFormat,
		"Native sample format: f32, i16 or u16")
	pf.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	pf.StringVar(&fv.input, "input", config.DefaultInput,
		"Audio input: mic, wav or pcm")
	pf.StringVar(&fv.path, "path", "",
		"File for wav or pcm input, '-' reads pcm from stdin")
	pf.StringVar(&fv.mimeType, "mime", "",
		"Describe pcm input as a media type, e.g. 'audio/L16; rate=44100; channels=2'")
	pf.BoolVar(&fv.realtime, "realtime", true,
		"Replay file inputs at their sample rate")

	// Analysis and transport
	pf.IntVar(&fv.hop, "hop", config.DefaultHop,
		"Analyse every Nth sample once the window is full; raise it (e.g. 64) if capture reports input overflows")
	pf.StringVar(&fv.clock, "clock", config.DefaultClock,
		"Timestamp source: wall or samples")
	pf.IntVar(&fv.queueCapacity, "queue-capacity", config.DefaultQueueCapacity,
		"Results buffered between capture and display")
	pf.StringVar(&fv.overflow, "overflow", config.DefaultOverflow,
		"Policy when the queue is full: drop_newest or drop_oldest")
	pf.StringVar(&fv.wsAddr, "ws", "",
		"Serve results to WebSocket clients on this address, e.g. ':8080'")
	pf.StringVar(&fv.udpAddr, "udp", "",
		"Send binary result packets to this UDP address, e.g. '127.0.0.1:9090'")

	// Presentation and logging
	pf.BoolVar(&fv.headless, "headless", false,
		"Log periodic reports instead of drawing the plot")
	pf.StringVar(&fv.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn or error")
	pf.StringVar(&fv.logFile, "log-file", "",
		"Write logs to this rotated file")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// apply copies every flag the user set onto cfg.
func (fv *flagValues) apply(flags *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, fn func()) {
		if flags.Changed(name) {
			fn()
		}
	}

	set("device", func() { cfg.Audio.InputDevice = fv.deviceID })
	set("channels", func() { cfg.Audio.Channels = fv.channels })
	set("sample-rate", func() { cfg.Audio.SampleRate = fv.sampleRate })
	set("format", func() { cfg.Audio.SampleFormat = fv.sampleFormat })
	set("frames-per-buffer", func() { cfg.Audio.FramesPerBuffer = fv.framesPerBuffer })
	set("low-latency", func() { cfg.Audio.LowLatency = fv.lowLatency })
	set("input", func() { cfg.Audio.Input = fv.input })
	set("path", func() { cfg.Audio.Path = fv.path })
	set("mime", func() { cfg.Audio.MIMEType = fv.mimeType })
	set("realtime", func() { cfg.Audio.Realtime = fv.realtime })

	set("hop", func() { cfg.Analysis.Hop = fv.hop })
	set("clock", func() { cfg.Analysis.Clock = fv.clock })

	set("queue-capacity", func() { cfg.Transport.QueueCapacity = fv.queueCapacity })
	set("overflow", func() { cfg.Transport.Overflow = fv.overflow })
	set("ws", func() { cfg.Transport.WebSocketAddr = fv.wsAddr })
	set("udp", func() {
		cfg.Transport.UDPEnabled = fv.udpAddr != ""
		cfg.Transport.UDPTargetAddress = fv.udpAddr
	})

	set("headless", func() { cfg.Display.Headless = fv.headless })
	set("log-level", func() { cfg.Log.Level = fv.logLevel })
	set("log-file", func() { cfg.Log.File = fv.logFile })
}

// Usage formats a startup error for the terminal.
func Usage(err error) string {
	return fmt.Sprintf("%s: %v\nRun '%s --help' for usage.", build.Get().Name, err, build.Get().Name)
}
