package protocol

import (
	"errors"
	"fmt"
)

const (
	// DefaultPort is fixed by the published Open Connect API.
	DefaultPort = 921

	// CodeShotAccepted signals a shot was accepted and player data is attached.
	CodeShotAccepted = 201

	APIVersion = "1"
	DeviceID   = "GC2"
	Units      = "Yards"
)

var ErrInvalidMessage = errors.New("protocol: invalid message")

// MessageKind is the classification of one inbound message.
// Exactly one kind applies per message, determined solely by the
// ShotDataOptions flag combination.
type MessageKind int

const (
	KindHeartbeat MessageKind = iota
	KindStatus
	KindShot
)

func (k MessageKind) String() string {
	switch k {
	case KindHeartbeat:
		return "heartbeat"
	case KindStatus:
		return "status"
	case KindShot:
		return "shot"
	default:
		return "unknown"
	}
}

// ShotTelemetry is one immutable shot observation from the launch monitor.
// Club fields are only meaningful when HasClubData is set.
type ShotTelemetry struct {
	Speed       float64
	LaunchAngle float64
	Azimuth     float64
	TotalSpin   float64
	BackSpin    float64
	SideSpin    float64

	HasClubData  bool
	ClubSpeed    float64
	Path         float64
	AttackAngle  float64
	FaceToTarget float64
}

// BallStatus is the device readiness state conveyed by status messages.
type BallStatus struct {
	IsReady      bool
	BallDetected bool
}

// ShotDataOptions is the capability flag block present on every message.
type ShotDataOptions struct {
	ContainsBallData          bool `json:"ContainsBallData"`
	ContainsClubData          bool `json:"ContainsClubData"`
	LaunchMonitorIsReady      bool `json:"LaunchMonitorIsReady"`
	LaunchMonitorBallDetected bool `json:"LaunchMonitorBallDetected"`
	IsHeartBeat               bool `json:"IsHeartBeat"`
}

// BallData carries the ballistic fields of a shot message.
type BallData struct {
	Speed     float64 `json:"Speed"`
	SpinAxis  float64 `json:"SpinAxis"`
	TotalSpin float64 `json:"TotalSpin"`
	BackSpin  float64 `json:"BackSpin"`
	SideSpin  float64 `json:"SideSpin"`
	HLA       float64 `json:"HLA"`
	VLA       float64 `json:"VLA"`
}

// ClubData carries the optional club-motion fields of a shot message.
type ClubData struct {
	Speed         float64 `json:"Speed"`
	AngleOfAttack float64 `json:"AngleOfAttack"`
	FaceToTarget  float64 `json:"FaceToTarget"`
	Path          float64 `json:"Path"`
}

// ShotMessage is one host->simulator request. Heartbeat, status and shot
// variants share this shape and differ only in the options flags.
type ShotMessage struct {
	DeviceID        string          `json:"DeviceID"`
	Units           string          `json:"Units"`
	ShotNumber      int             `json:"ShotNumber"`
	APIVersion      string          `json:"APIversion"`
	BallData        *BallData       `json:"BallData,omitempty"`
	ClubData        *ClubData       `json:"ClubData,omitempty"`
	ShotDataOptions ShotDataOptions `json:"ShotDataOptions"`
}

// Kind classifies the message by its flag combination.
func (m ShotMessage) Kind() MessageKind {
	if m.ShotDataOptions.IsHeartBeat {
		return KindHeartbeat
	}
	if m.ShotDataOptions.ContainsBallData {
		return KindShot
	}
	return KindStatus
}

func (m ShotMessage) Validate() error {
	opts := m.ShotDataOptions
	if opts.IsHeartBeat && opts.ContainsBallData {
		return fmt.Errorf("%w: heartbeat must not carry ball data", ErrInvalidMessage)
	}
	if opts.ContainsBallData && m.BallData == nil {
		return fmt.Errorf("%w: ContainsBallData set without BallData", ErrInvalidMessage)
	}
	if opts.ContainsClubData && m.ClubData == nil {
		return fmt.Errorf("%w: ContainsClubData set without ClubData", ErrInvalidMessage)
	}
	return nil
}

// Player is the simulator's active-player record attached to accepted shots.
type Player struct {
	Handed           string  `json:"Handed"`
	Club             string  `json:"Club"`
	DistanceToTarget float64 `json:"DistanceToTarget"`
}

// Response is one simulator->host reply. Only shot messages receive one.
type Response struct {
	Code    int     `json:"Code"`
	Message string  `json:"Message"`
	Player  *Player `json:"Player,omitempty"`
}

// Accepted reports whether the response carries the shot-accepted code.
func (r Response) Accepted() bool {
	return r.Code == CodeShotAccepted
}

// NewHeartbeat builds the keep-alive variant. No response is expected.
func NewHeartbeat(shotNumber int) ShotMessage {
	return ShotMessage{
		DeviceID:   DeviceID,
		Units:      Units,
		ShotNumber: shotNumber,
		APIVersion: APIVersion,
		ShotDataOptions: ShotDataOptions{
			LaunchMonitorIsReady: true,
			IsHeartBeat:          true,
		},
	}
}

// NewStatus builds the device-readiness variant. No response is expected.
func NewStatus(shotNumber int, status BallStatus) ShotMessage {
	return ShotMessage{
		DeviceID:   DeviceID,
		Units:      Units,
		ShotNumber: shotNumber,
		APIVersion: APIVersion,
		ShotDataOptions: ShotDataOptions{
			LaunchMonitorIsReady:      status.IsReady,
			LaunchMonitorBallDetected: status.BallDetected,
		},
	}
}

// NewShot builds the shot variant from one telemetry observation.
func NewShot(shotNumber int, shot ShotTelemetry) ShotMessage {
	msg := ShotMessage{
		DeviceID:   DeviceID,
		Units:      Units,
		ShotNumber: shotNumber,
		APIVersion: APIVersion,
		BallData: &BallData{
			Speed:     shot.Speed,
			TotalSpin: shot.TotalSpin,
			BackSpin:  shot.BackSpin,
			SideSpin:  shot.SideSpin,
			HLA:       shot.Azimuth,
			VLA:       shot.LaunchAngle,
		},
		ShotDataOptions: ShotDataOptions{
			ContainsBallData:          true,
			LaunchMonitorIsReady:      true,
			LaunchMonitorBallDetected: true,
		},
	}
	if shot.HasClubData {
		msg.ClubData = &ClubData{
			Speed:         shot.ClubSpeed,
			AngleOfAttack: shot.AttackAngle,
			FaceToTarget:  shot.FaceToTarget,
			Path:          shot.Path,
		}
		msg.ShotDataOptions.ContainsClubData = true
	}
	return msg
}
