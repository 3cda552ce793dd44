// Package gc2wire owns the GC2 textual wire contract.
//
// Ownership boundary:
// - 0H shot-reading and 0M device-status message shapes
// - encoding to the newline key/value format with the \n\t terminator
// - incremental decoding of a chunk-fragmented byte stream
package gc2wire

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Terminator closes every message: a newline followed by a tab.
	Terminator = "\n\t"

	// DefaultPort is the test-convention port for the device stream.
	DefaultPort = 5555

	kindShot   = "0H"
	kindStatus = "0M"

	// FlagReady is set in a 0M FLAGS value when the device shows green.
	FlagReady = 0x04
)

var (
	ErrEmptyMessage   = errors.New("gc2wire: empty message")
	ErrUnknownKind    = errors.New("gc2wire: unknown message kind")
	ErrMalformedField = errors.New("gc2wire: malformed field")
)

// Reading is one 0H shot reading. An early reading omits spin; the final
// reading for the same shot carries BackRPM/SideRPM and a higher
// MsecSinceContact value marking it authoritative.
type Reading struct {
	ShotID           int
	TimeSec          int
	MsecSinceContact int
	SpeedMPH         float64
	AzimuthDeg       float64
	ElevationDeg     float64
	SpinRPM          float64

	HasSpin bool
	BackRPM float64
	SideRPM float64

	IsLeft     bool
	WorldStart [3]float64

	HasClub         bool
	ClubSpeedMPH    float64
	HPathDeg        float64
	VPathDeg        float64
	FaceToTargetDeg float64
}

// Final reports whether this is the authoritative reading for its shot.
func (r Reading) Final() bool {
	return r.HasSpin
}

// Status is one 0M device status message.
type Status struct {
	Flags int
	Balls int
	Ball1 [3]float64
}

// Ready reports whether the device signals it is armed for a shot.
func (s Status) Ready() bool {
	return s.Flags&FlagReady != 0
}

// BallDetected reports whether at least one ball is on the plate.
func (s Status) BallDetected() bool {
	return s.Balls > 0
}

// Message is one decoded device message, exactly one branch set.
type Message struct {
	Reading *Reading
	Status  *Status
}

// EncodeReading renders a 0H message including the terminator.
func EncodeReading(r Reading) []byte {
	var b strings.Builder
	b.WriteString(kindShot)
	writeField(&b, "SHOT_ID", strconv.Itoa(r.ShotID))
	writeField(&b, "TIME_SEC", strconv.Itoa(r.TimeSec))
	writeField(&b, "MSEC_SINCE_CONTACT", strconv.Itoa(r.MsecSinceContact))
	writeField(&b, "SPEED_MPH", fmtFloat(r.SpeedMPH, 2))
	writeField(&b, "AZIMUTH_DEG", fmtFloat(r.AzimuthDeg, 2))
	writeField(&b, "ELEVATION_DEG", fmtFloat(r.ElevationDeg, 2))
	writeField(&b, "SPIN_RPM", fmtFloat(r.SpinRPM, 0))
	if r.HasSpin {
		writeField(&b, "BACK_RPM", fmtFloat(r.BackRPM, 0))
		writeField(&b, "SIDE_RPM", fmtFloat(r.SideRPM, 0))
	}
	writeField(&b, "IS_LEFT", boolField(r.IsLeft))
	writeField(&b, "WORLDSTART_X", fmtFloat(r.WorldStart[0], 2))
	writeField(&b, "WORLDSTART_Y", fmtFloat(r.WorldStart[1], 2))
	writeField(&b, "WORLDSTART_Z", fmtFloat(r.WorldStart[2], 2))
	if r.HasClub {
		writeField(&b, "HMT", "1")
		writeField(&b, "CLUBSPEED_MPH", fmtFloat(r.ClubSpeedMPH, 1))
		writeField(&b, "HPATH_DEG", fmtFloat(r.HPathDeg, 1))
		writeField(&b, "VPATH_DEG", fmtFloat(r.VPathDeg, 1))
		writeField(&b, "FACE_T_DEG", fmtFloat(r.FaceToTargetDeg, 1))
	} else {
		writeField(&b, "HMT", "0")
	}
	b.WriteString(Terminator)
	return []byte(b.String())
}

// EncodeStatus renders a 0M message including the terminator.
func EncodeStatus(s Status) []byte {
	var b strings.Builder
	b.WriteString(kindStatus)
	writeField(&b, "FLAGS", strconv.Itoa(s.Flags))
	writeField(&b, "BALLS", strconv.Itoa(s.Balls))
	if s.Balls > 0 {
		writeField(&b, "BALL1", fmt.Sprintf("%g,%g,%g", s.Ball1[0], s.Ball1[1], s.Ball1[2]))
	}
	b.WriteString(Terminator)
	return []byte(b.String())
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteByte('\n')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
}

func fmtFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// Decoder reassembles terminator-delimited messages from a byte stream
// that arrives in arbitrary fragments. A truncated trailing message is
// not an error; it stays buffered until its terminator arrives.
type Decoder struct {
	buf []byte
}

// Write appends raw received bytes.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next pops one complete message if the buffer holds one.
func (d *Decoder) Next() (Message, bool, error) {
	idx := bytes.Index(d.buf, []byte(Terminator))
	if idx < 0 {
		return Message{}, false, nil
	}
	raw := d.buf[:idx]
	d.buf = d.buf[idx+len(Terminator):]

	msg, err := parseMessage(raw)
	if err != nil {
		return Message{}, false, err
	}
	return msg, true, nil
}

func parseMessage(raw []byte) (Message, error) {
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return Message{}, ErrEmptyMessage
	}

	fields := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Message{}, fmt.Errorf("%w: %q", ErrMalformedField, line)
		}
		fields[key] = value
	}

	switch lines[0] {
	case kindShot:
		r, err := parseReading(fields)
		if err != nil {
			return Message{}, err
		}
		return Message{Reading: &r}, nil
	case kindStatus:
		s, err := parseStatus(fields)
		if err != nil {
			return Message{}, err
		}
		return Message{Status: &s}, nil
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, lines[0])
	}
}

func parseReading(fields map[string]string) (Reading, error) {
	var r Reading
	var err error
	if r.ShotID, err = intField(fields, "SHOT_ID"); err != nil {
		return Reading{}, err
	}
	if r.TimeSec, err = intField(fields, "TIME_SEC"); err != nil {
		return Reading{}, err
	}
	if r.MsecSinceContact, err = intField(fields, "MSEC_SINCE_CONTACT"); err != nil {
		return Reading{}, err
	}
	if r.SpeedMPH, err = floatField(fields, "SPEED_MPH"); err != nil {
		return Reading{}, err
	}
	if r.AzimuthDeg, err = floatField(fields, "AZIMUTH_DEG"); err != nil {
		return Reading{}, err
	}
	if r.ElevationDeg, err = floatField(fields, "ELEVATION_DEG"); err != nil {
		return Reading{}, err
	}
	if r.SpinRPM, err = floatField(fields, "SPIN_RPM"); err != nil {
		return Reading{}, err
	}
	if _, ok := fields["BACK_RPM"]; ok {
		r.HasSpin = true
		if r.BackRPM, err = floatField(fields, "BACK_RPM"); err != nil {
			return Reading{}, err
		}
		if r.SideRPM, err = floatField(fields, "SIDE_RPM"); err != nil {
			return Reading{}, err
		}
	}
	r.IsLeft = fields["IS_LEFT"] == "1"
	for i, key := range []string{"WORLDSTART_X", "WORLDSTART_Y", "WORLDSTART_Z"} {
		if _, ok := fields[key]; !ok {
			continue
		}
		if r.WorldStart[i], err = floatField(fields, key); err != nil {
			return Reading{}, err
		}
	}
	if fields["HMT"] == "1" {
		r.HasClub = true
		if r.ClubSpeedMPH, err = floatField(fields, "CLUBSPEED_MPH"); err != nil {
			return Reading{}, err
		}
		// Path/attack/face are optional even when HMT is present.
		if _, ok := fields["HPATH_DEG"]; ok {
			if r.HPathDeg, err = floatField(fields, "HPATH_DEG"); err != nil {
				return Reading{}, err
			}
		}
		if _, ok := fields["VPATH_DEG"]; ok {
			if r.VPathDeg, err = floatField(fields, "VPATH_DEG"); err != nil {
				return Reading{}, err
			}
		}
		if _, ok := fields["FACE_T_DEG"]; ok {
			if r.FaceToTargetDeg, err = floatField(fields, "FACE_T_DEG"); err != nil {
				return Reading{}, err
			}
		}
	}
	return r, nil
}

func parseStatus(fields map[string]string) (Status, error) {
	var s Status
	var err error
	if s.Flags, err = intField(fields, "FLAGS"); err != nil {
		return Status{}, err
	}
	if s.Balls, err = intField(fields, "BALLS"); err != nil {
		return Status{}, err
	}
	if raw, ok := fields["BALL1"]; ok {
		parts := strings.Split(raw, ",")
		if len(parts) != 3 {
			return Status{}, fmt.Errorf("%w: BALL1=%q", ErrMalformedField, raw)
		}
		for i, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return Status{}, fmt.Errorf("%w: BALL1=%q", ErrMalformedField, raw)
			}
			s.Ball1[i] = v
		}
	}
	return s, nil
}

func intField(fields map[string]string, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedField, key)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedField, key, raw)
	}
	return v, nil
}

func floatField(fields map[string]string, key string) (float64, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedField, key)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedField, key, raw)
	}
	return v, nil
}
