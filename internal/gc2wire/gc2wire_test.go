package gc2wire

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeReadingRoundTrip(t *testing.T) {
	in := Reading{
		ShotID:           3,
		MsecSinceContact: 1000,
		SpeedMPH:         162.45,
		AzimuthDeg:       -1.25,
		ElevationDeg:     11.5,
		SpinRPM:          2650,
		HasSpin:          true,
		BackRPM:          2500,
		SideRPM:          -300,
		WorldStart:       [3]float64{-53.53, 91.4, -477.94},
		HasClub:          true,
		ClubSpeedMPH:     104.2,
		HPathDeg:         1.4,
		VPathDeg:         -2.1,
		FaceToTargetDeg:  0.8,
	}

	raw := EncodeReading(in)
	if !strings.HasSuffix(string(raw), Terminator) {
		t.Fatalf("encoded message missing terminator")
	}

	var d Decoder
	d.Write(raw)
	msg, ok, err := d.Next()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ok || msg.Reading == nil {
		t.Fatalf("expected a reading, got %+v", msg)
	}

	out := *msg.Reading
	if out.ShotID != in.ShotID || out.MsecSinceContact != in.MsecSinceContact {
		t.Fatalf("identity mismatch: %+v", out)
	}
	if out.SpeedMPH != 162.45 || out.ElevationDeg != 11.5 || out.AzimuthDeg != -1.25 {
		t.Fatalf("ballistics mismatch: %+v", out)
	}
	if !out.HasSpin || out.BackRPM != 2500 || out.SideRPM != -300 {
		t.Fatalf("spin mismatch: %+v", out)
	}
	if !out.Final() {
		t.Fatalf("reading with spin must be final")
	}
	if !out.HasClub || out.ClubSpeedMPH != 104.2 {
		t.Fatalf("club mismatch: %+v", out)
	}
}

func TestEarlyReadingOmitsSpin(t *testing.T) {
	raw := EncodeReading(Reading{ShotID: 1, MsecSinceContact: 200, SpeedMPH: 160, SpinRPM: 2700})
	if strings.Contains(string(raw), "BACK_RPM") {
		t.Fatalf("early reading must not carry BACK_RPM: %q", raw)
	}

	var d Decoder
	d.Write(raw)
	msg, ok, err := d.Next()
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	if msg.Reading.Final() {
		t.Fatalf("spinless reading classified as final")
	}
}

func TestDecoderFragmentedStream(t *testing.T) {
	raw := EncodeReading(Reading{ShotID: 9, MsecSinceContact: 200, SpeedMPH: 120, SpinRPM: 7000})

	var d Decoder
	for i := 0; i < len(raw); i++ {
		d.Write(raw[i : i+1])
		_, ok, err := d.Next()
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		if ok != (i == len(raw)-1) {
			t.Fatalf("byte %d: ok=%v", i, ok)
		}
	}
}

func TestDecoderConcatenatedMessages(t *testing.T) {
	var d Decoder
	d.Write(EncodeStatus(Status{Flags: 7, Balls: 1, Ball1: [3]float64{198, 206, 12}}))
	d.Write(EncodeReading(Reading{ShotID: 2, MsecSinceContact: 200, SpeedMPH: 100, SpinRPM: 9000}))

	msg, ok, err := d.Next()
	if err != nil || !ok || msg.Status == nil {
		t.Fatalf("first message: ok=%v err=%v msg=%+v", ok, err, msg)
	}
	if !msg.Status.Ready() || !msg.Status.BallDetected() {
		t.Fatalf("status flags: %+v", msg.Status)
	}
	if msg.Status.Ball1 != [3]float64{198, 206, 12} {
		t.Fatalf("ball position: %+v", msg.Status.Ball1)
	}

	msg, ok, err = d.Next()
	if err != nil || !ok || msg.Reading == nil {
		t.Fatalf("second message: ok=%v err=%v msg=%+v", ok, err, msg)
	}

	_, ok, err = d.Next()
	if err != nil || ok {
		t.Fatalf("expected empty decoder: ok=%v err=%v", ok, err)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	var d Decoder
	d.Write([]byte("0X\nFOO=1\n\t"))
	_, _, err := d.Next()
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeMalformedField(t *testing.T) {
	var d Decoder
	d.Write([]byte("0M\nFLAGS\n\t"))
	_, _, err := d.Next()
	if !errors.Is(err, ErrMalformedField) {
		t.Fatalf("expected ErrMalformedField, got %v", err)
	}
}
