package engine

import (
	"context"
	"sync"
	"time"
)

// Poll cadence. The active channel refreshes on a short interval, the
// mention-notification feed on a long one, and a kick poll fires shortly
// after a target starts so a freshly opened channel feels live without
// waiting a full interval.
const (
	MessagePollInterval = 1500 * time.Millisecond
	MentionPollInterval = 10 * time.Second
	KickDelay           = 300 * time.Millisecond
)

// TargetKind distinguishes what a poll target fetches.
type TargetKind string

const (
	TargetMessages TargetKind = "messages"
	TargetMentions TargetKind = "mentions"
)

// Target identifies one polled resource.
type Target struct {
	Kind      TargetKind
	ChannelID string
}

func (t Target) key() string {
	return string(t.Kind) + ":" + t.ChannelID
}

// Job is a poll the scheduler has decided to fire. The context is canceled
// when the target is stopped, so a response arriving after the user has
// navigated away is discarded instead of applied.
type Job struct {
	Target Target
	Ctx    context.Context
}

// Scheduler decides when each target is due, suppresses overlapping
// requests for the same target (single-flight), and suspends all polling
// while the surface is not visible. It holds no timers of its own: the
// caller drives it with Due(now), so tests advance a virtual clock by
// passing times.
type Scheduler struct {
	mu      sync.Mutex
	visible bool
	targets map[string]*targetState
}

type targetState struct {
	target   Target
	interval time.Duration
	nextAt   time.Time
	inFlight bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewScheduler creates a scheduler with polling visible (active).
func NewScheduler() *Scheduler {
	return &Scheduler{
		visible: true,
		targets: make(map[string]*targetState),
	}
}

// Start registers a target. The first fire is due after KickDelay, later
// fires after the given interval. Restarting an existing target cancels its
// in-flight job and resets the kick.
func (s *Scheduler) Start(now time.Time, target Target, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.targets[target.key()]; ok {
		existing.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.targets[target.key()] = &targetState{
		target:   target,
		interval: interval,
		nextAt:   now.Add(KickDelay),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Stop deregisters a target and cancels any in-flight job for it.
func (s *Scheduler) Stop(target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.targets[target.key()]; ok {
		state.cancel()
		delete(s.targets, target.key())
	}
}

// StopAll deregisters everything, canceling in-flight jobs.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, state := range s.targets {
		state.cancel()
		delete(s.targets, key)
	}
}

// SetVisible suspends (false) or resumes (true) polling. Targets that came
// due while hidden fire on the first Due after resuming.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

// Due returns the jobs that should fire at now and marks them in flight.
// A target whose previous job has not finished is skipped and pushed to its
// next interval.
func (s *Scheduler) Due(now time.Time) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return nil
	}
	var jobs []Job
	for _, state := range s.targets {
		if now.Before(state.nextAt) {
			continue
		}
		state.nextAt = now.Add(state.interval)
		if state.inFlight {
			continue
		}
		state.inFlight = true
		jobs = append(jobs, Job{Target: state.target, Ctx: state.ctx})
	}
	return jobs
}

// Done marks a target's job finished so the next due tick may fire it.
// Called for both successful and failed polls; a failed poll is simply
// retried on its next interval.
func (s *Scheduler) Done(target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.targets[target.key()]; ok {
		state.inFlight = false
	}
}

// Active reports whether a target is currently registered.
func (s *Scheduler) Active(target Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.targets[target.key()]
	return ok
}
