package interaction

import (
	"time"

	"go.uber.org/zap"
)

//go:generate mockgen -source=observer.go -destination=mock_observer_test.go -package=interaction

type Stage int

const (
	StageHistograms Stage = iota
	StageScoring
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageHistograms:
		return "histograms"
	case StageScoring:
		return "scoring"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is emitted by each worker at the start of the histogram phase, at
// the start of pair scoring and when scoring ends.
type Event struct {
	Stage      Stage
	Worker     int
	Attributes int
	Pairs      int
	Elapsed    time.Duration
}

// Observer receives progress checkpoints. Workers call it concurrently.
type Observer interface {
	Checkpoint(e Event)
}

type nopObserver struct{}

func (nopObserver) Checkpoint(Event) {}

type zapObserver struct {
	logger *zap.Logger
}

func NewZapObserver(logger *zap.Logger) Observer {
	return zapObserver{logger: logger}
}

func (o zapObserver) Checkpoint(e Event) {
	o.logger.Info("FAST checkpoint",
		zap.Stringer("stage", e.Stage),
		zap.Int("worker", e.Worker),
		zap.Int("attributes", e.Attributes),
		zap.Int("pairs", e.Pairs),
		zap.Duration("elapsed", e.Elapsed),
	)
}
