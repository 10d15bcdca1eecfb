package policy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/skylift/skylift/internal/core/flight"
	"github.com/skylift/skylift/internal/core/observability/log"
	"github.com/skylift/skylift/internal/core/observability/monitor"
)

// Config holds the training hyperparameters.
type Config struct {
	// Iterations is the number of batch updates.
	Iterations int `json:"iterations" yaml:"iterations"`
	// BatchSize is the number of episodes rolled out per iteration.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	// MaxSteps caps the length of one episode. The environment itself
	// never terminates a hovering episode, so the cap lives here.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
	// LearningRate is the Adam step size.
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	// Sigma is the gaussian exploration scale, in thrust units.
	Sigma float64 `json:"sigma" yaml:"sigma"`
	// Seed makes the whole run reproducible.
	Seed int64 `json:"seed" yaml:"seed"`
	// Workers bounds concurrent rollouts. Zero means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
	// HistorySize bounds the retained episode records.
	HistorySize int `json:"history_size" yaml:"history_size"`
}

// DefaultConfig returns hyperparameters sized for the default vehicle.
func DefaultConfig() Config {
	return Config{
		Iterations:   200,
		BatchSize:    16,
		MaxSteps:     600,
		LearningRate: 0.05,
		Sigma:        50,
		Seed:         1,
		Workers:      0,
		HistorySize:  256,
	}
}

// Validate reports the first unusable hyperparameter, if any.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("policy: iterations must be positive, got %d", c.Iterations)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("policy: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("policy: max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("policy: learning_rate must be positive, got %v", c.LearningRate)
	}
	if c.Sigma <= 0 {
		return fmt.Errorf("policy: sigma must be positive, got %v", c.Sigma)
	}
	return nil
}

// EpisodeRecord summarizes one finished rollout.
type EpisodeRecord struct {
	ID        string        `json:"id"`
	Iteration int           `json:"iteration"`
	Return    float64       `json:"return"`
	Steps     int           `json:"steps"`
	Landed    bool          `json:"landed"`
	Digest    string        `json:"digest"`
	Duration  time.Duration `json:"duration"`
}

// Summary reports the outcome of a training run.
type Summary struct {
	Iterations       int     `json:"iterations"`
	Episodes         int     `json:"episodes"`
	BestReturn       float64 `json:"best_return"`
	FinalMeanReturn  float64 `json:"final_mean_return"`
	FinalLandingRate float64 `json:"final_landing_rate"`
}

// Trainer runs REINFORCE with a normalized-return baseline against the
// flight environment. Rollouts within a batch run in parallel, one
// environment instance per goroutine; the policy is only mutated between
// batches.
type Trainer struct {
	cfg    Config
	envCfg flight.Config
	log    log.Log
	rec    *monitor.Recorder

	policy *Policy
	optim  *Adam

	mu      sync.Mutex
	history []EpisodeRecord
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLogger sets the trainer's logger.
func WithLogger(l log.Log) TrainerOption {
	return func(t *Trainer) { t.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r *monitor.Recorder) TrainerOption {
	return func(t *Trainer) { t.rec = r }
}

// NewTrainer validates both configs and returns a trainer with a freshly
// initialized policy.
func NewTrainer(cfg Config, envCfg flight.Config, opts ...TrainerOption) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := envCfg.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		cfg:    cfg,
		envCfg: envCfg,
		log:    log.NewNop(),
		policy: NewPolicy(cfg.Sigma),
		optim:  NewAdam(cfg.LearningRate, paramDim),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Policy returns the trained policy. Stable only while Train is not
// running.
func (t *Trainer) Policy() *Policy { return t.policy }

// Recent returns up to n of the most recent episode records, oldest first.
func (t *Trainer) Recent(n int) []EpisodeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || n > len(t.history) {
		n = len(t.history)
	}
	out := make([]EpisodeRecord, n)
	copy(out, t.history[len(t.history)-n:])
	return out
}

type stepSample struct {
	obs    flight.Observation
	action float64
}

type rolloutResult struct {
	record  EpisodeRecord
	samples []stepSample
	ret     float64
}

// Train runs the configured number of iterations, or fewer if ctx is
// canceled, and returns a summary of the run.
func (t *Trainer) Train(ctx context.Context) (Summary, error) {
	var summary Summary

	t.log.Info("training started",
		log.Int("iterations", t.cfg.Iterations),
		log.Int("batch_size", t.cfg.BatchSize),
		log.Int64("seed", t.cfg.Seed),
	)

	for iter := 0; iter < t.cfg.Iterations; iter++ {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		stop := t.startTimer("train.iteration")
		results, err := t.rolloutBatch(ctx, iter)
		if err != nil {
			stop()
			return summary, err
		}

		returns := make([]float64, len(results))
		landed := 0
		for i, r := range results {
			returns[i] = r.ret
			if r.record.Landed {
				landed++
			}
			if r.ret > summary.BestReturn || summary.Episodes == 0 {
				summary.BestReturn = r.ret
			}
			summary.Episodes++
		}
		t.appendHistory(results)

		t.update(results, returns)

		mean := stat.Mean(returns, nil)
		summary.Iterations = iter + 1
		summary.FinalMeanReturn = mean
		summary.FinalLandingRate = float64(landed) / float64(len(results))
		stop()

		if t.rec != nil {
			t.rec.SetGauge("train.mean_return", mean)
			t.rec.SetGauge("train.landing_rate", summary.FinalLandingRate)
		}
		if (iter+1)%10 == 0 || iter == 0 {
			t.log.Info("iteration finished",
				log.Int("iteration", iter+1),
				log.Float64("mean_return", mean),
				log.Float64("landing_rate", summary.FinalLandingRate),
			)
		}
	}

	t.log.Info("training finished",
		log.Int("episodes", summary.Episodes),
		log.Float64("best_return", summary.BestReturn),
		log.Float64("final_mean_return", summary.FinalMeanReturn),
	)
	return summary, nil
}

// rolloutBatch plays one batch of episodes in parallel. Results land in a
// pre-sized slice by index, so the subsequent gradient accumulation is
// deterministic regardless of goroutine scheduling.
func (t *Trainer) rolloutBatch(ctx context.Context, iter int) ([]rolloutResult, error) {
	workers := t.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]rolloutResult, t.cfg.BatchSize)
	base := t.cfg.Seed + int64(iter)*int64(t.cfg.BatchSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < t.cfg.BatchSize; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := t.runEpisode(base+int64(i), iter)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runEpisode owns one environment instance for its whole lifetime, per the
// environment's single-caller contract.
func (t *Trainer) runEpisode(seed int64, iter int) (rolloutResult, error) {
	env, err := flight.New(t.envCfg)
	if err != nil {
		return rolloutResult{}, err
	}
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	obs := env.Reset()

	var (
		trace   flight.Trace
		samples = make([]stepSample, 0, t.cfg.MaxSteps)
		ret     float64
		done    bool
	)

	for step := 0; step < t.cfg.MaxSteps && !done; step++ {
		action := t.policy.Act(obs, rng)
		next, reward, d, _, err := env.Step(action)
		if err != nil {
			return rolloutResult{}, err
		}
		samples = append(samples, stepSample{obs: obs, action: action})
		trace.Append(action, next, reward, d)
		ret += reward
		obs, done = next, d
	}

	st := env.State()
	res := rolloutResult{
		record: EpisodeRecord{
			ID:        uuid.NewString(),
			Iteration: iter,
			Return:    ret,
			Steps:     trace.Len(),
			Landed:    done && st.Velocity >= t.envCfg.SafeLandingVelocity,
			Digest:    fmt.Sprintf("%016x", trace.Digest()),
			Duration:  time.Since(start),
		},
		samples: samples,
		ret:     ret,
	}

	if t.rec != nil {
		t.rec.Inc("episodes")
		t.rec.Observe("episode.return", ret)
		t.rec.Observe("episode.steps", float64(trace.Len()))
	}
	return res, nil
}

// update performs one Adam step on the batch gradient of the REINFORCE
// objective with normalized returns as advantages.
func (t *Trainer) update(results []rolloutResult, returns []float64) {
	mean := stat.Mean(returns, nil)
	std := stat.StdDev(returns, nil)
	if math.IsNaN(std) || std == 0 {
		std = 1
	}

	grads := make([]float64, paramDim)
	for i, r := range results {
		adv := (returns[i] - mean) / std
		for _, s := range r.samples {
			g := t.policy.GradLogProb(s.obs, s.action)
			for k := range grads {
				// Adam descends, the objective ascends.
				grads[k] -= adv * g[k] / float64(len(results))
			}
		}
	}

	params := t.policy.Params()
	t.policy.SetParams(t.optim.Update(params, grads))
}

func (t *Trainer) appendHistory(results []rolloutResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range results {
		t.history = append(t.history, r.record)
	}
	if limit := t.cfg.HistorySize; limit > 0 && len(t.history) > limit {
		t.history = append(t.history[:0], t.history[len(t.history)-limit:]...)
	}
}

func (t *Trainer) startTimer(name string) func() {
	if t.rec == nil {
		return func() {}
	}
	return t.rec.StartTimer(name)
}
