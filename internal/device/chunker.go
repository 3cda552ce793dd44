package device

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// DefaultChunkSize mirrors the GC2's USB transfer unit.
	DefaultChunkSize = 64

	// DefaultPacketDelay models the hardware interrupt cadence.
	DefaultPacketDelay = 1500 * time.Microsecond
)

var ErrChunkSize = errors.New("device: chunk size must be at least 1")

// Chunker splits an outbound message into fixed-size packets and drives
// them onto a connection in order, pausing between packets. Chunk
// boundaries carry no semantic meaning; the receiver reassembles raw
// bytes before any interpretation.
type Chunker struct {
	Size  int
	Delay time.Duration

	// Sleep is replaceable in tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

func NewChunker(size int, delay time.Duration) *Chunker {
	return &Chunker{Size: size, Delay: delay}
}

// Send writes data as ordered packets of at most Size bytes, sleeping
// Delay after every packet except the last. It returns the number of
// packets written. A write failure aborts immediately; there is no
// partial-packet retry.
func (c *Chunker) Send(w io.Writer, data []byte) (int, error) {
	if c.Size < 1 {
		return 0, ErrChunkSize
	}

	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	packets := 0
	for offset := 0; offset < len(data); {
		end := offset + c.Size
		if end > len(data) {
			end = len(data)
		}
		if _, err := w.Write(data[offset:end]); err != nil {
			return packets, fmt.Errorf("device: packet %d write: %w", packets+1, err)
		}
		packets++
		offset = end

		if offset < len(data) && c.Delay > 0 {
			sleep(c.Delay)
		}
	}
	return packets, nil
}
