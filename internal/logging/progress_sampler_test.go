package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)

	steps := []struct {
		done int
		want bool
	}{
		{0, true},
		{1, false},
		{3, true},
		{4, false},
		{5, true},
		{10, true},
		{12, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.done, 10, "classify"); got != step.want {
			t.Fatalf("ShouldLog(%d/10) = %v, want %v", step.done, got, step.want)
		}
	}
}

func TestProgressSamplerPhaseChangeResets(t *testing.T) {
	s := NewProgressSampler(0)
	if s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	s.ShouldLog(5, 10, "classify")
	if !s.ShouldLog(0, 10, " evaluate ") {
		t.Fatal("expected phase change to log")
	}
	if s.lastPhase != "evaluate" {
		t.Fatalf("lastPhase = %q, want trimmed phase", s.lastPhase)
	}
	if s.ShouldLog(0, 10, "evaluate") {
		t.Fatal("expected repeat progress to be suppressed")
	}
}

func TestProgressSamplerNilAndUnknownTotal(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 2, "x") {
		t.Fatal("nil sampler should always log")
	}

	live := NewProgressSampler(10)
	if !live.ShouldLog(3, 0, "classify") {
		t.Fatal("first call should log on phase change")
	}
	if live.ShouldLog(4, 0, "classify") {
		t.Fatal("unknown total should not trigger bucket logging")
	}
}
