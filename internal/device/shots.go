package device

import (
	"math/rand"

	"github.com/openlaunch/gc2bridge/internal/gc2wire"
)

const (
	// Contact offsets distinguish the two reading phases on the wire.
	earlyContactMsec = 200
	finalContactMsec = 1000
)

// Shot is one generated shot event, consumed once by the sequencer.
type Shot struct {
	ID          int
	SpeedMPH    float64
	LaunchDeg   float64
	AzimuthDeg  float64
	TotalSpin   float64
	BackSpin    float64
	SideSpin    float64

	HasClub      bool
	ClubSpeedMPH float64
	PathDeg      float64
	AttackDeg    float64
	FaceDeg      float64
}

// DriverShot generates a typical driver shot.
func DriverShot(id int, rng *rand.Rand) Shot {
	return Shot{
		ID:         id,
		SpeedMPH:   uniform(rng, 155, 175),
		LaunchDeg:  uniform(rng, 9, 13),
		AzimuthDeg: uniform(rng, -3, 3),
		TotalSpin:  uniform(rng, 2200, 3000),
		BackSpin:   uniform(rng, 2000, 2800),
		SideSpin:   uniform(rng, -500, 500),
	}
}

// SevenIronShot generates a typical 7-iron shot.
func SevenIronShot(id int, rng *rand.Rand) Shot {
	return Shot{
		ID:         id,
		SpeedMPH:   uniform(rng, 115, 130),
		LaunchDeg:  uniform(rng, 15, 19),
		AzimuthDeg: uniform(rng, -2, 2),
		TotalSpin:  uniform(rng, 6000, 8000),
		BackSpin:   uniform(rng, 5800, 7800),
		SideSpin:   uniform(rng, -400, 400),
	}
}

// WedgeShot generates a typical wedge shot.
func WedgeShot(id int, rng *rand.Rand) Shot {
	return Shot{
		ID:         id,
		SpeedMPH:   uniform(rng, 85, 105),
		LaunchDeg:  uniform(rng, 28, 38),
		AzimuthDeg: uniform(rng, -2, 2),
		TotalSpin:  uniform(rng, 8000, 11000),
		BackSpin:   uniform(rng, 7800, 10800),
		SideSpin:   uniform(rng, -300, 300),
	}
}

// GenerateShot maps a profile name to its generator. Unknown profiles
// fall back to the driver profile.
func GenerateShot(profile string, id int, rng *rand.Rand) Shot {
	switch profile {
	case "7iron":
		return SevenIronShot(id, rng)
	case "wedge":
		return WedgeShot(id, rng)
	default:
		return DriverShot(id, rng)
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// earlyReading is the phase-1 observation: ballistics only, no spin.
func (s Shot) earlyReading() gc2wire.Reading {
	return s.reading(earlyContactMsec, false)
}

// finalReading is the phase-2 authoritative observation with spin.
func (s Shot) finalReading() gc2wire.Reading {
	return s.reading(finalContactMsec, true)
}

func (s Shot) reading(msec int, includeSpin bool) gc2wire.Reading {
	r := gc2wire.Reading{
		ShotID:           s.ID,
		MsecSinceContact: msec,
		SpeedMPH:         s.SpeedMPH,
		AzimuthDeg:       s.AzimuthDeg,
		ElevationDeg:     s.LaunchDeg,
		SpinRPM:          s.TotalSpin,
		WorldStart:       [3]float64{-53.53, 91.40, -477.94},
	}
	if includeSpin {
		r.HasSpin = true
		r.BackRPM = s.BackSpin
		r.SideRPM = s.SideSpin
	}
	if s.HasClub {
		r.HasClub = true
		r.ClubSpeedMPH = s.ClubSpeedMPH
		r.HPathDeg = s.PathDeg
		r.VPathDeg = s.AttackDeg
		r.FaceToTargetDeg = s.FaceDeg
	}
	return r
}
