package interview

import (
	"math/rand/v2"

	"github.com/hireflow/interviewer/internal/models"
)

// GazeState is generator-private state carried between samples.
type GazeState struct {
	ConsecutiveCenter int
}

// MetricsSource produces the next gaze sample. Implementations are stand-ins
// for real eye tracking; nothing here measures attentiveness.
type MetricsSource interface {
	Next(prev models.EyeTracking, st *GazeState) models.EyeTracking
}

var awayDirections = [...]models.Gaze{models.GazeLeft, models.GazeRight, models.GazeUp, models.GazeDown}

const (
	awayProbability     = 0.15
	movementProbability = 0.3
	focusStreak         = 5
	focusReward         = 2
	awayPenalty         = 5
	attentionFloor      = 20
	attentionCeiling    = 100
)

// SimulatedSource reproduces the browser demo's random gaze generator.
// Not safe for concurrent use; the controller calls it under its lock.
type SimulatedSource struct {
	rng *rand.Rand
}

// NewSimulatedSource seeds the generator; seed 0 picks a random seed.
func NewSimulatedSource(seed uint64) *SimulatedSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return newSimulatedSource(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newSimulatedSource(src rand.Source) *SimulatedSource {
	return &SimulatedSource{rng: rand.New(src)}
}

func (s *SimulatedSource) Next(prev models.EyeTracking, st *GazeState) models.EyeTracking {
	next := prev

	away := s.rng.Float64() < awayProbability
	if away {
		next.GazeDirection = awayDirections[s.rng.IntN(len(awayDirections))]
		next.DistractionCount++
		st.ConsecutiveCenter = 0
	} else {
		next.GazeDirection = models.GazeCenter
		st.ConsecutiveCenter++
	}

	switch {
	case st.ConsecutiveCenter > focusStreak:
		next.AttentionScore = min(attentionCeiling, next.AttentionScore+focusReward)
	case away:
		next.AttentionScore = max(attentionFloor, next.AttentionScore-awayPenalty)
	}

	if s.rng.Float64() < movementProbability {
		next.EyeMovements++
	}
	return next
}

// StaticSource is the "not implemented" stand-in: metrics never change.
type StaticSource struct{}

func (StaticSource) Next(prev models.EyeTracking, _ *GazeState) models.EyeTracking { return prev }
