package device

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/openlaunch/gc2bridge/internal/gc2wire"
	"github.com/openlaunch/gc2bridge/internal/testutil/testlog"
)

// emissionLog records writes and sleeps in arrival order so phase
// ordering can be asserted without real delays.
type emissionLog struct {
	events []string
	buf    bytes.Buffer
}

func (l *emissionLog) Write(p []byte) (int, error) {
	l.events = append(l.events, "write")
	return l.buf.Write(p)
}

func (l *emissionLog) sleep(d time.Duration) {
	l.events = append(l.events, "sleep:"+d.String())
}

func newTestSequencer(l *emissionLog) *Sequencer {
	seq := NewSequencer(NewChunker(DefaultChunkSize, 0))
	seq.EarlyDelay = 200 * time.Millisecond
	seq.FinalDelay = 800 * time.Millisecond
	seq.Sleep = l.sleep
	return seq
}

func TestSequencerTwoPhaseOrdering(t *testing.T) {
	testlog.Start(t)

	l := &emissionLog{}
	seq := newTestSequencer(l)

	shot := Shot{ID: 5, SpeedMPH: 160, LaunchDeg: 11, AzimuthDeg: 1, TotalSpin: 2600, BackSpin: 2500, SideSpin: 300}
	if err := seq.Emit(l, shot); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if seq.Phase() != PhaseFinalSent {
		t.Fatalf("phase=%v, want final_sent", seq.Phase())
	}

	// The inter-phase sleep must separate the last early write from the
	// first final write.
	var sawEarlyWrite, sawInterPhaseSleep bool
	for _, ev := range l.events {
		switch {
		case ev == "write" && !sawInterPhaseSleep:
			sawEarlyWrite = true
		case ev == "sleep:800ms":
			if !sawEarlyWrite {
				t.Fatalf("inter-phase sleep before early transmission: %v", l.events)
			}
			sawInterPhaseSleep = true
		case ev == "write" && sawInterPhaseSleep:
			// Final-phase write after the delay: the required order.
		}
	}
	if !sawInterPhaseSleep {
		t.Fatalf("missing inter-phase delay: %v", l.events)
	}
	if l.events[0] != "sleep:200ms" {
		t.Fatalf("missing pre-delay, events=%v", l.events)
	}

	// Both phases decode and carry the same shot identity; only the final
	// one is authoritative.
	var d gc2wire.Decoder
	d.Write(l.buf.Bytes())

	early, ok, err := d.Next()
	if err != nil || !ok || early.Reading == nil {
		t.Fatalf("early decode: ok=%v err=%v", ok, err)
	}
	final, ok, err := d.Next()
	if err != nil || !ok || final.Reading == nil {
		t.Fatalf("final decode: ok=%v err=%v", ok, err)
	}

	if early.Reading.ShotID != 5 || final.Reading.ShotID != 5 {
		t.Fatalf("shot identity mismatch: %d/%d", early.Reading.ShotID, final.Reading.ShotID)
	}
	if early.Reading.Final() {
		t.Fatalf("early reading carries spin")
	}
	if !final.Reading.Final() || final.Reading.BackRPM != 2500 || final.Reading.SideRPM != 300 {
		t.Fatalf("final reading spin: %+v", final.Reading)
	}
	if final.Reading.MsecSinceContact <= early.Reading.MsecSinceContact {
		t.Fatalf("final contact offset %d not above early %d",
			final.Reading.MsecSinceContact, early.Reading.MsecSinceContact)
	}
	if early.Reading.SpeedMPH != final.Reading.SpeedMPH {
		t.Fatalf("ballistics must repeat across phases")
	}
}

func TestSequencerRejectsOverlappingEmission(t *testing.T) {
	l := &emissionLog{}
	seq := newTestSequencer(l)

	busyChecked := make(chan error, 1)
	seq.Sleep = func(d time.Duration) {
		if d == seq.FinalDelay {
			// Mid-flight: early phase sent, final pending.
			busyChecked <- seq.Emit(l, Shot{ID: 2})
		}
	}

	if err := seq.Emit(l, Shot{ID: 1}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := <-busyChecked; !errors.Is(err, ErrSequencerBusy) {
		t.Fatalf("expected ErrSequencerBusy, got %v", err)
	}
}

func TestSequencerSurfacesTransportFailure(t *testing.T) {
	seq := NewSequencer(NewChunker(16, 0))
	seq.EarlyDelay = 0
	seq.FinalDelay = 0
	seq.Sleep = func(time.Duration) {}

	w := &failingWriter{failAt: 1}
	if err := seq.Emit(w, Shot{ID: 1}); err == nil {
		t.Fatalf("expected transport error")
	}
	if seq.Phase() != PhaseIdle {
		t.Fatalf("phase=%v after failure, want idle", seq.Phase())
	}
}
