// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"micviz/internal/analysis"
	applog "micviz/internal/log"
	"micviz/internal/transport"
)

// Publisher keeps the most recent result handed to it and sends it over UDP
// on a fixed interval, so the packet rate is independent of the analysis rate.
// It runs in a separate goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	interval time.Duration

	mu      sync.Mutex // Protects latest, fresh, ticker and done
	latest  analysis.Result
	fresh   bool // latest has not been sent yet
	ticker  *time.Ticker
	done    chan struct{}
	stopped sync.WaitGroup

	sequenceNum  uint32
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the binary packet.
}

// NewPublisher creates a Publisher. If the provided interval is invalid
// (<= 0), it defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Publish records r as the next result to send.
func (p *Publisher) Publish(r analysis.Result) error {
	p.mu.Lock()
	p.latest = r
	p.fresh = true
	p.mu.Unlock()
	return nil
}

// Start begins the periodic publishing process. Subsequent calls are no-ops
// while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.done = make(chan struct{})
	ticker, done := p.ticker, p.done
	p.mu.Unlock()

	p.stopped.Add(1)
	go func() {
		defer p.stopped.Done()
		applog.Infof("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.sendLatest()
			case <-done:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// It is safe to call Stop multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	close(p.done)
	p.ticker.Stop()
	p.ticker = nil
	p.mu.Unlock()

	p.stopped.Wait()
	applog.Infof("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | float32        | 4            | Seconds since start     |
| RMS               | float32        | 4            | Window RMS              |
| Bin Count         | uint16         | 2            | Number of bins (N)      |
| Bins              | [N][2]float32  | N * 8        | (frequency, magnitude)  |
+-----------------------------------------------------------------------------+
*/

// sendLatest packs the latest unsent result and sends it. Nothing is sent
// when no new result arrived since the previous tick.
func (p *Publisher) sendLatest() {
	p.mu.Lock()
	if !p.fresh {
		p.mu.Unlock()
		return
	}
	r := p.latest
	p.fresh = false
	p.mu.Unlock()

	p.sequenceNum++
	packet := EncodePacket(p.packetBuffer, p.sequenceNum, r)

	if err := p.sender.Send(packet); err != nil {
		applog.Warnf("UDPPublisher: Error sending packet %d: %v", p.sequenceNum, err)
		return
	}
	applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packet))
}

// EncodePacket writes r into buf using the packet layout above and returns
// the packet bytes, which alias buf. Spectra longer than MaxUint16 bins are
// truncated.
func EncodePacket(buf *bytes.Buffer, seq uint32, r analysis.Result) []byte {
	bins := r.Spectrum
	if len(bins) > math.MaxUint16 {
		bins = bins[:math.MaxUint16]
	}

	buf.Reset()
	var scratch [4]byte
	put32 := func(v uint32) {
		binary.BigEndian.PutUint32(scratch[:], v)
		buf.Write(scratch[:])
	}

	put32(seq)
	put32(math.Float32bits(r.Timestamp))
	put32(math.Float32bits(r.RMS))
	binary.BigEndian.PutUint16(scratch[:2], uint16(len(bins)))
	buf.Write(scratch[:2])
	for _, b := range bins {
		put32(math.Float32bits(b.Frequency))
		put32(math.Float32bits(b.Magnitude))
	}
	return buf.Bytes()
}

// Close implements the transport.Sink interface. It stops the publisher
// goroutine and closes the sender.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

var _ transport.Sink = (*Publisher)(nil)
