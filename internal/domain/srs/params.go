package srs

import (
	"github.com/phrazzld/scry-tutor/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// First-review initialization
	InitialStability  float64
	InitialDifficulty float64

	// Bounds re-applied after every transition
	MinStability    float64
	MinDifficulty   float64
	MaxDifficulty   float64
	MaxIntervalDays int

	// Per-rating adjustments
	StabilityFactor map[domain.Rating]float64
	DifficultyDelta map[domain.Rating]float64
	IntervalFactor  map[domain.Rating]float64

	// Interval after a lapse
	AgainIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	InitialStability  float64
	InitialDifficulty float64
	MaxIntervalDays   int

	AgainStabilityFactor float64
	HardStabilityFactor  float64
	GoodStabilityFactor  float64
	EasyStabilityFactor  float64

	AgainDifficultyDelta float64
	HardDifficultyDelta  float64
	EasyDifficultyDelta  float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		InitialStability:  1.0,
		InitialDifficulty: 5.0,

		MinStability:    domain.MinStability,
		MinDifficulty:   domain.MinDifficulty,
		MaxDifficulty:   domain.MaxDifficulty,
		MaxIntervalDays: 36500,

		StabilityFactor: map[domain.Rating]float64{
			domain.RatingAgain: 0.5,
			domain.RatingHard:  1.2,
			domain.RatingGood:  2.5,
			domain.RatingEasy:  4.0,
		},

		DifficultyDelta: map[domain.Rating]float64{
			domain.RatingAgain: 1.0,
			domain.RatingHard:  0.15,
			domain.RatingGood:  0.0,
			domain.RatingEasy:  -0.15,
		},

		// Again has a fixed interval, see AgainIntervalDays
		IntervalFactor: map[domain.Rating]float64{
			domain.RatingHard: 1.2,
			domain.RatingGood: 2.5,
			domain.RatingEasy: 4.0,
		},

		AgainIntervalDays: 1,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.InitialStability > 0 {
		params.InitialStability = config.InitialStability
	}
	if config.InitialDifficulty > 0 {
		params.InitialDifficulty = config.InitialDifficulty
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}

	if config.AgainStabilityFactor > 0 {
		params.StabilityFactor[domain.RatingAgain] = config.AgainStabilityFactor
	}
	if config.HardStabilityFactor > 0 {
		params.StabilityFactor[domain.RatingHard] = config.HardStabilityFactor
		params.IntervalFactor[domain.RatingHard] = config.HardStabilityFactor
	}
	if config.GoodStabilityFactor > 0 {
		params.StabilityFactor[domain.RatingGood] = config.GoodStabilityFactor
		params.IntervalFactor[domain.RatingGood] = config.GoodStabilityFactor
	}
	if config.EasyStabilityFactor > 0 {
		params.StabilityFactor[domain.RatingEasy] = config.EasyStabilityFactor
		params.IntervalFactor[domain.RatingEasy] = config.EasyStabilityFactor
	}

	if config.AgainDifficultyDelta != 0 {
		params.DifficultyDelta[domain.RatingAgain] = config.AgainDifficultyDelta
	}
	if config.HardDifficultyDelta != 0 {
		params.DifficultyDelta[domain.RatingHard] = config.HardDifficultyDelta
	}
	if config.EasyDifficultyDelta != 0 {
		params.DifficultyDelta[domain.RatingEasy] = config.EasyDifficultyDelta
	}

	return params
}
