package device

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/openlaunch/gc2bridge/internal/gc2wire"
)

const (
	// DefaultEarlyDelay is the pause between ball contact and the early
	// reading leaving the device.
	DefaultEarlyDelay = 200 * time.Millisecond

	// DefaultFinalDelay is the additional pause before the final reading.
	DefaultFinalDelay = 800 * time.Millisecond
)

// Phase is the sequencer's position within one shot emission.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEarlySent
	PhaseFinalSent
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEarlySent:
		return "early_sent"
	case PhaseFinalSent:
		return "final_sent"
	default:
		return "unknown"
	}
}

var ErrSequencerBusy = errors.New("device: sequencer already mid-emission")

// Sequencer drives the two-phase emission of one shot: an early reading
// without spin after EarlyDelay, then the authoritative final reading
// with spin after FinalDelay. The final reading never starts before the
// early reading's transmission and the inter-phase delay have both fully
// elapsed.
type Sequencer struct {
	Chunker    *Chunker
	EarlyDelay time.Duration
	FinalDelay time.Duration

	// Sleep is replaceable in tests. Nil means time.Sleep.
	Sleep func(time.Duration)

	phase Phase
}

func NewSequencer(chunker *Chunker) *Sequencer {
	return &Sequencer{
		Chunker:    chunker,
		EarlyDelay: DefaultEarlyDelay,
		FinalDelay: DefaultFinalDelay,
	}
}

// Phase reports the sequencer's current emission state.
func (s *Sequencer) Phase() Phase {
	return s.phase
}

// Emit runs the full Idle -> EarlySent -> FinalSent sequence for shot on
// w. The sequencer is single-shot at a time; a second Emit while one is
// in flight fails rather than interleaving phases.
func (s *Sequencer) Emit(w io.Writer, shot Shot) error {
	if s.phase == PhaseEarlySent {
		return ErrSequencerBusy
	}
	s.phase = PhaseIdle

	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	if s.EarlyDelay > 0 {
		sleep(s.EarlyDelay)
	}
	if err := s.send(w, shot.earlyReading()); err != nil {
		return fmt.Errorf("early reading: %w", err)
	}
	s.phase = PhaseEarlySent

	if s.FinalDelay > 0 {
		sleep(s.FinalDelay)
	}
	if err := s.send(w, shot.finalReading()); err != nil {
		s.phase = PhaseIdle
		return fmt.Errorf("final reading: %w", err)
	}
	s.phase = PhaseFinalSent

	return nil
}

func (s *Sequencer) send(w io.Writer, r gc2wire.Reading) error {
	_, err := s.Chunker.Send(w, gc2wire.EncodeReading(r))
	return err
}
