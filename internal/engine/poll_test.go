package engine

import (
	"testing"
	"time"
)

func TestSchedulerKickThenInterval(t *testing.T) {
	s := NewScheduler()
	target := Target{Kind: TargetMessages, ChannelID: "ch1"}
	start := ts(0)

	s.Start(start, target, MessagePollInterval)

	if jobs := s.Due(start); len(jobs) != 0 {
		t.Fatalf("nothing is due immediately, got %d jobs", len(jobs))
	}
	jobs := s.Due(start.Add(KickDelay))
	if len(jobs) != 1 {
		t.Fatalf("kick poll should fire after KickDelay, got %d jobs", len(jobs))
	}
	s.Done(target)

	if jobs := s.Due(start.Add(KickDelay + 100*time.Millisecond)); len(jobs) != 0 {
		t.Fatalf("next fire waits a full interval, got %d jobs", len(jobs))
	}
	if jobs := s.Due(start.Add(KickDelay + MessagePollInterval)); len(jobs) != 1 {
		t.Fatalf("steady interval should fire, got %d jobs", len(jobs))
	}
}

func TestSchedulerSingleFlight(t *testing.T) {
	s := NewScheduler()
	target := Target{Kind: TargetMessages, ChannelID: "ch1"}
	s.Start(ts(0), target, MessagePollInterval)

	if jobs := s.Due(ts(1)); len(jobs) != 1 {
		t.Fatalf("expected first fire, got %d", len(jobs))
	}
	// Previous job still in flight: ticks are skipped, not queued.
	if jobs := s.Due(ts(3)); len(jobs) != 0 {
		t.Fatalf("in-flight target must be skipped, got %d jobs", len(jobs))
	}
	if jobs := s.Due(ts(5)); len(jobs) != 0 {
		t.Fatalf("in-flight target must be skipped, got %d jobs", len(jobs))
	}

	s.Done(target)
	if jobs := s.Due(ts(7)); len(jobs) != 1 {
		t.Fatalf("target should fire again after completion, got %d jobs", len(jobs))
	}
}

func TestSchedulerVisibilitySuspendsPolling(t *testing.T) {
	s := NewScheduler()
	target := Target{Kind: TargetMentions}
	s.Start(ts(0), target, MentionPollInterval)

	s.SetVisible(false)
	if jobs := s.Due(ts(60)); len(jobs) != 0 {
		t.Fatalf("hidden surface must not poll, got %d jobs", len(jobs))
	}

	s.SetVisible(true)
	if jobs := s.Due(ts(61)); len(jobs) != 1 {
		t.Fatalf("overdue target should fire on resume, got %d jobs", len(jobs))
	}
}

func TestSchedulerStopCancelsInFlight(t *testing.T) {
	s := NewScheduler()
	target := Target{Kind: TargetMessages, ChannelID: "ch1"}
	s.Start(ts(0), target, MessagePollInterval)

	jobs := s.Due(ts(1))
	if len(jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobs))
	}

	s.Stop(target)
	select {
	case <-jobs[0].Ctx.Done():
	default:
		t.Fatal("stopping a target must cancel its in-flight job context")
	}
	if s.Active(target) {
		t.Fatal("stopped target should be deregistered")
	}
}

func TestSchedulerRestartResetsKick(t *testing.T) {
	s := NewScheduler()
	target := Target{Kind: TargetMessages, ChannelID: "ch1"}

	s.Start(ts(0), target, MessagePollInterval)
	first := s.Due(ts(1))
	if len(first) != 1 {
		t.Fatalf("expected a fire, got %d", len(first))
	}

	// Re-activating the same channel cancels the outstanding job and the
	// kick fires again shortly after.
	s.Start(ts(2), target, MessagePollInterval)
	select {
	case <-first[0].Ctx.Done():
	default:
		t.Fatal("restart must cancel the previous in-flight job")
	}
	if jobs := s.Due(ts(2).Add(KickDelay)); len(jobs) != 1 {
		t.Fatalf("restarted target should kick, got %d jobs", len(jobs))
	}
}

func TestSchedulerIndependentTargets(t *testing.T) {
	s := NewScheduler()
	messages := Target{Kind: TargetMessages, ChannelID: "ch1"}
	mentions := Target{Kind: TargetMentions}
	s.Start(ts(0), messages, MessagePollInterval)
	s.Start(ts(0), mentions, MentionPollInterval)

	jobs := s.Due(ts(1))
	if len(jobs) != 2 {
		t.Fatalf("both targets should kick, got %d", len(jobs))
	}

	// Messages stays in flight; mentions completes and fires again while
	// messages is still suppressed.
	s.Done(mentions)
	jobs = s.Due(ts(1).Add(MentionPollInterval))
	if len(jobs) != 1 || jobs[0].Target.Kind != TargetMentions {
		t.Fatalf("only mentions should fire, got %+v", jobs)
	}
}
