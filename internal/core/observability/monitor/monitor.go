// Package monitor provides an explicit run-scoped metrics recorder. A
// Recorder is created once per run, handed to the components that need it,
// and closed at the end of the run. There is no process-wide registry.
package monitor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/skylift/skylift/internal/core/observability/log"
)

type eventKind uint8

const (
	counterEvent eventKind = iota
	gaugeEvent
	observeEvent
)

type event struct {
	kind  eventKind
	name  string
	value float64
}

// Recorder collects metrics asynchronously so instrumented hot paths never
// block. Events flow through a buffered channel to a single worker; when
// the buffer is full the event is dropped and counted instead.
type Recorder struct {
	events  chan event
	flushCh chan chan struct{}
	stop    chan struct{}
	done    chan struct{}
	closer  sync.Once
	log     log.Log

	dropped atomic.Uint64

	mu       sync.RWMutex
	counters map[string]float64
	gauges   map[string]float64
	stats    map[string]*runningStat
}

type runningStat struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger makes the recorder log its final snapshot summary on Close.
func WithLogger(l log.Log) Option {
	return func(r *Recorder) { r.log = l }
}

// NewRecorder starts a recorder with the given event buffer size.
func NewRecorder(buffer int, opts ...Option) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}
	r := &Recorder{
		events:   make(chan event, buffer),
		flushCh:  make(chan chan struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log.NewNop(),
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
		stats:    make(map[string]*runningStat),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Inc adds 1 to the named counter.
func (r *Recorder) Inc(name string) { r.Add(name, 1) }

// Add adds v to the named counter.
func (r *Recorder) Add(name string, v float64) {
	r.send(event{kind: counterEvent, name: name, value: v})
}

// SetGauge sets the named gauge to v.
func (r *Recorder) SetGauge(name string, v float64) {
	r.send(event{kind: gaugeEvent, name: name, value: v})
}

// Observe folds v into the named distribution (count/sum/min/max).
func (r *Recorder) Observe(name string, v float64) {
	r.send(event{kind: observeEvent, name: name, value: v})
}

// StartTimer returns a stop function that observes the elapsed seconds
// under the given name. Call it at the end of the timed section:
//
//	stop := rec.StartTimer("train.iteration")
//	defer stop()
func (r *Recorder) StartTimer(name string) func() {
	start := time.Now()
	return func() {
		r.Observe(name, time.Since(start).Seconds())
	}
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Flush blocks until every event sent before the call has been applied.
func (r *Recorder) Flush() {
	ack := make(chan struct{})
	select {
	case r.flushCh <- ack:
		<-ack
	case <-r.done:
	}
}

// Snapshot returns a copy of all recorded metrics.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Counters: make(map[string]float64, len(r.counters)),
		Gauges:   make(map[string]float64, len(r.gauges)),
		Stats:    make(map[string]StatSnapshot, len(r.stats)),
		Dropped:  r.dropped.Load(),
	}
	for k, v := range r.counters {
		snap.Counters[k] = v
	}
	for k, v := range r.gauges {
		snap.Gauges[k] = v
	}
	for k, s := range r.stats {
		snap.Stats[k] = StatSnapshot{
			Count: s.count,
			Sum:   s.sum,
			Min:   s.min,
			Max:   s.max,
			Mean:  s.sum / float64(s.count),
		}
	}
	return snap
}

// Close flushes pending events and stops the worker. Safe to call more
// than once.
func (r *Recorder) Close() error {
	r.closer.Do(func() {
		close(r.stop)
		<-r.done
		snap := r.Snapshot()
		r.log.Info("metrics recorder closed",
			log.Int("counters", len(snap.Counters)),
			log.Int("gauges", len(snap.Gauges)),
			log.Int("stats", len(snap.Stats)),
			log.Int64("dropped", int64(snap.Dropped)),
		)
	})
	return nil
}

// Snapshot is a point-in-time copy of a Recorder's metrics.
type Snapshot struct {
	Counters map[string]float64      `json:"counters"`
	Gauges   map[string]float64      `json:"gauges"`
	Stats    map[string]StatSnapshot `json:"stats"`
	Dropped  uint64                  `json:"dropped"`
}

// StatSnapshot summarizes one observed distribution.
type StatSnapshot struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

func (r *Recorder) send(ev event) {
	select {
	case r.events <- ev:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for {
		select {
		case ev := <-r.events:
			r.apply(ev)
		case ack := <-r.flushCh:
			r.drain()
			close(ack)
		case <-r.stop:
			r.drain()
			return
		}
	}
}

// drain applies everything currently buffered without blocking.
func (r *Recorder) drain() {
	for {
		select {
		case ev := <-r.events:
			r.apply(ev)
		default:
			return
		}
	}
}

func (r *Recorder) apply(ev event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.kind {
	case counterEvent:
		r.counters[ev.name] += ev.value
	case gaugeEvent:
		r.gauges[ev.name] = ev.value
	case observeEvent:
		s, ok := r.stats[ev.name]
		if !ok {
			s = &runningStat{min: ev.value, max: ev.value}
			r.stats[ev.name] = s
		}
		s.count++
		s.sum += ev.value
		if ev.value < s.min {
			s.min = ev.value
		}
		if ev.value > s.max {
			s.max = ev.value
		}
	}
}
