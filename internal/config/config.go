// SPDX-License-Identifier: MIT
package config

import "time"

// Analysis and display constants. These are fixed at compile time and shared
// by the capture engine and the presentation loop.
const (
	SampleRate     = 44100  // Nominal rate (Hz), the device rate is queried at startup
	WindowDuration = 0.4    // Seconds of RMS history kept on screen
	FFTSize        = 2048   // Sliding window length and FFT size (power of 2)
	MaxFreq        = 9000.0 // Highest spectrum bin frequency emitted (Hz)
	YMax           = 0.3    // Upper bound of the shared Y axis
)

// Defaults for the runtime configuration.
const (
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultChannels        = 0           // 0 = use up to two device channels
	DefaultSampleRate      = 0           // 0 = use the device default rate
	DefaultSampleFormat    = "f32"       // Native float samples from PortAudio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultInput           = InputMic    // Live microphone capture

	DefaultHop   = 1      // Analyse on every sample once the window is full
	DefaultClock = "wall" // Timestamps from the monotonic wall clock

	DefaultQueueCapacity = 2048 // Slots between capture and presentation
	DefaultOverflow      = "drop_newest"
	DefaultWSInterval    = 33 * time.Millisecond
	DefaultUDPInterval   = 16 * time.Millisecond

	DefaultRefreshRate    = 60 // Redraws per second
	DefaultReportInterval = time.Second

	DefaultLogLevel      = "info"
	DefaultLogFile       = ""
	DefaultTUILogFile    = "micviz.log"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxChannels     = 32
)

// Input kinds understood by the audio package.
const (
	InputMic = "mic"
	InputWAV = "wav"
	InputPCM = "pcm"
)
