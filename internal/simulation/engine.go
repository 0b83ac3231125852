package simulation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/JaneXU85/pension-trust-abm/internal/logging"
	"github.com/JaneXU85/pension-trust-abm/internal/models"
	"github.com/JaneXU85/pension-trust-abm/internal/rng"
	"github.com/JaneXU85/pension-trust-abm/internal/spillover"
)

// ErrInvalidConfig is returned by New for malformed parameters.
var ErrInvalidConfig = models.ErrInvalidConfig

// StepReport summarizes a single step.
type StepReport struct {
	Step              int     `json:"step"`
	PunishedBroker    int     `json:"punished_broker"`
	TrustHits         int     `json:"trust_hits"`
	Dropped           int     `json:"dropped"`
	Active            int     `json:"active"`
	MeanTrust         float64 `json:"mean_trust"`
	ParticipationRate float64 `json:"participation_rate"`
	CooperationRate   float64 `json:"cooperation_rate"`
	Collapsed         bool    `json:"collapsed"`
}

// Observer is called after every step with that step's report.
type Observer func(StepReport)

// Option configures an Engine.
type Option func(*Engine)

// WithSource replaces the seeded random source. The seed in Params is then
// ignored.
func WithSource(src rng.Source) Option {
	return func(e *Engine) {
		e.src = src
	}
}

// WithRule replaces the spillover rule selected by Params.SpilloverMode.
func WithRule(rule spillover.Rule) Option {
	return func(e *Engine) {
		e.rule = rule
	}
}

// WithObserver registers a per-step observer.
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithLogger sets the logger used for step tracing and collapse notices.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine advances the model in discrete steps.
type Engine struct {
	params   models.Params
	citizens []*models.Citizen
	brokers  []*models.Broker

	src      rng.Source
	rule     spillover.Rule
	observer Observer
	logger   *slog.Logger

	step         int
	active       int
	collapsed    bool
	collapseStep int
}

// New validates p and builds an engine with its population initialized.
// Errors wrap ErrInvalidConfig.
func New(p models.Params, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalized()

	e := &Engine{
		params: p,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.src == nil {
		e.src = rng.New(p.Seed)
	}
	if e.rule == nil {
		rule, err := spillover.ForMode(p.SpilloverMode, p.TrustDecrement)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		e.rule = rule
	}

	e.brokers = make([]*models.Broker, p.NumBrokers)
	for i := range e.brokers {
		e.brokers[i] = &models.Broker{ID: i}
	}

	// Citizen ids continue after the broker ids.
	assignment := AssignBrokers(p.NumCitizens, p.NumBrokers)
	e.citizens = make([]*models.Citizen, len(assignment))
	for i, brokerID := range assignment {
		e.citizens[i] = &models.Citizen{
			ID:       p.NumBrokers + i,
			BrokerID: brokerID,
			Trust:    models.Clamp01(p.InitialTrust),
			Active:   true,
		}
	}
	e.active = len(e.citizens)

	return e, nil
}

// Step advances the model by one step:
//
//  1. every broker's misconduct flag is reset
//  2. one broker is drawn uniformly and punished
//  3. if spillover is enabled the spillover rule degrades trust
//  4. active citizens below the participation threshold drop out for good
//  5. active citizens cooperate with probability equal to their trust
func (e *Engine) Step() StepReport {
	e.step++

	for _, b := range e.brokers {
		b.Reset()
	}

	punished := e.src.Intn(len(e.brokers))
	e.brokers[punished].Punish()

	hits := 0
	if e.params.SpilloverEnabled {
		hits = e.rule.Apply(spillover.Event{
			Step:     e.step,
			BrokerID: punished,
			Fraction: e.params.SpilloverFraction,
		}, e.citizens, e.src)
	}

	dropped := 0
	for _, c := range e.citizens {
		c.ClampTrust()
		if !c.Active {
			continue
		}
		if c.Trust < e.params.ParticipationThreshold {
			c.Deactivate(e.step)
			e.active--
			dropped++
		}
	}

	for _, c := range e.citizens {
		if !c.Active {
			continue
		}
		c.Cooperated = e.src.Float64() < c.Trust
	}

	if !e.collapsed && len(e.citizens) > 0 && e.active == 0 {
		e.collapsed = true
		e.collapseStep = e.step
		e.logger.Info("participation collapsed", "step", e.step)
	}

	rep := e.Reporters()
	report := StepReport{
		Step:              e.step,
		PunishedBroker:    punished,
		TrustHits:         hits,
		Dropped:           dropped,
		Active:            e.active,
		MeanTrust:         rep.MeanTrust,
		ParticipationRate: rep.ParticipationRate,
		CooperationRate:   rep.CooperationRate,
		Collapsed:         e.collapsed,
	}

	e.logger.Log(context.Background(), logging.LevelTrace, "step",
		"step", report.Step,
		"punished_broker", report.PunishedBroker,
		"trust_hits", report.TrustHits,
		"dropped", report.Dropped,
		"mean_trust", report.MeanTrust,
	)

	if e.observer != nil {
		e.observer(report)
	}
	return report
}

// Run calls Step n times and returns the resulting reporters.
func (e *Engine) Run(n int) models.Reporters {
	for i := 0; i < n; i++ {
		e.Step()
	}
	return e.Reporters()
}

// Reporters computes the aggregate outcomes of the current state.
func (e *Engine) Reporters() models.Reporters {
	rep := models.Reporters{
		Collapsed:    e.collapsed,
		CollapseStep: e.collapseStep,
		Steps:        e.step,
	}
	if len(e.citizens) == 0 {
		return rep
	}

	var trust float64
	cooperated := 0
	for _, c := range e.citizens {
		trust += c.Trust
		if c.Cooperated {
			cooperated++
		}
	}

	n := float64(len(e.citizens))
	rep.MeanTrust = trust / n
	rep.ParticipationRate = float64(e.active) / n
	rep.CooperationRate = float64(cooperated) / n
	return rep
}

// Simulate builds an engine from p and runs it for p.Steps steps.
func Simulate(p models.Params, opts ...Option) (models.Reporters, error) {
	e, err := New(p, opts...)
	if err != nil {
		return models.Reporters{}, err
	}
	return e.Run(p.Steps), nil
}

// Params returns the normalized parameters the engine runs with.
func (e *Engine) Params() models.Params {
	return e.params
}

// StepCount returns the number of steps taken so far.
func (e *Engine) StepCount() int {
	return e.step
}

// Collapsed reports whether every citizen has stopped participating.
func (e *Engine) Collapsed() bool {
	return e.collapsed
}

// Citizens returns a copy of the citizen population.
func (e *Engine) Citizens() []models.Citizen {
	out := make([]models.Citizen, len(e.citizens))
	for i, c := range e.citizens {
		out[i] = *c
	}
	return out
}

// Brokers returns a copy of the brokers.
func (e *Engine) Brokers() []models.Broker {
	out := make([]models.Broker, len(e.brokers))
	for i, b := range e.brokers {
		out[i] = *b
	}
	return out
}
