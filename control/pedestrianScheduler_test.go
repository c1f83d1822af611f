package control

import (
	"testing"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"
)

type fakeLock struct {
	accept   bool
	requests int
}

func (l *fakeLock) RequestPedestrianLock() bool {
	l.requests++
	return l.accept
}

func TestPedestrianSchedulerPeriod(t *testing.T) {
	s := NewPedestrianScheduler(config.PedestrianConfig{FrequencyPerHour: 360, DurationSeconds: 5})
	if s.Period() != 10 {
		t.Fatalf("period = %v, want 10", s.Period())
	}

	lock := &fakeLock{accept: true}
	for i := 0; i < 1000; i++ {
		s.Tick(0.1, lock)
	}
	if s.Requested != 10 || lock.requests != 10 {
		t.Errorf("requested %d (lock saw %d), want 10", s.Requested, lock.requests)
	}
	if s.Coalesced != 0 {
		t.Errorf("coalesced = %d, want 0", s.Coalesced)
	}
}

func TestPedestrianSchedulerCoalesces(t *testing.T) {
	s := NewPedestrianScheduler(config.PedestrianConfig{FrequencyPerHour: 3600, DurationSeconds: 1})
	lock := &fakeLock{accept: false}
	for i := 0; i < 50; i++ {
		s.Tick(0.1, lock)
	}
	if s.Requested != 5 || s.Coalesced != 5 {
		t.Errorf("requested %d coalesced %d, want 5 and 5", s.Requested, s.Coalesced)
	}
}

func TestPedestrianSchedulerDisabled(t *testing.T) {
	s := NewPedestrianScheduler(config.PedestrianConfig{})
	lock := &fakeLock{accept: true}
	for i := 0; i < 100000; i++ {
		s.Tick(0.1, lock)
	}
	if s.Enabled() || lock.requests != 0 {
		t.Errorf("disabled scheduler raised %d requests", lock.requests)
	}
}

func TestPedestrianSchedulerDrivesController(t *testing.T) {
	cfg := testConfig()
	cfg.Pedestrian = config.PedestrianConfig{FrequencyPerHour: 120, DurationSeconds: 8}
	c, log := newController(t, cfg, ModeAdaptive)
	s := NewPedestrianScheduler(cfg.Pedestrian)
	obs := &fakeQueues{main: [2]int{3, 3}}

	for i := 0; i < 36000; i++ {
		c.Advance(tick, obs)
		s.Tick(tick, c)
	}

	peds := 0
	for i, r := range log.records {
		if r.Phase != PhasePedestrian {
			continue
		}
		peds++
		if log.records[i-1].Phase != PhaseAllRed {
			t.Errorf("pedestrian phase at %v not preceded by all-red", r.StartedAt)
		}
		if i+1 < len(log.records) {
			if d := log.records[i+1].StartedAt - r.StartedAt; !near(d, 8) {
				t.Errorf("pedestrian phase at %v lasted %v", r.StartedAt, d)
			}
		}
	}
	if peds != s.Requested-s.Coalesced && peds != s.Requested-s.Coalesced-1 {
		t.Errorf("pedestrian phases %d, requested %d coalesced %d", peds, s.Requested, s.Coalesced)
	}
	if s.Requested != 120 {
		t.Errorf("requested = %d, want 120", s.Requested)
	}
}

func TestConflictGraph(t *testing.T) {
	g := NewConflictGraph()
	m := func(d element.Direction, turn element.TurnType) element.Movement {
		return element.Movement{Direction: d, Turn: turn}
	}

	tests := []struct {
		a, b element.Movement
		want bool
	}{
		{m(element.North, element.TurnForward), m(element.South, element.TurnForward), false},
		{m(element.North, element.TurnLeft), m(element.South, element.TurnForward), false},
		{m(element.North, element.TurnForward), m(element.East, element.TurnForward), true},
		{m(element.North, element.TurnRight), m(element.South, element.TurnForward), true},
		{m(element.North, element.TurnRight), m(element.South, element.TurnLeft), true},
		{m(element.North, element.TurnRight), m(element.South, element.TurnRight), false},
		{m(element.West, element.TurnLeft), m(element.North, element.TurnRight), true},
	}
	for _, tt := range tests {
		if got := g.Conflicts(tt.a, tt.b); got != tt.want {
			t.Errorf("Conflicts(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := g.Conflicts(tt.b, tt.a); got != tt.want {
			t.Errorf("Conflicts(%s, %s) not symmetric", tt.b, tt.a)
		}
	}

	if err := g.ValidateGreenSet(PhaseVerticalMain.greenSet(), false); err != nil {
		t.Errorf("vertical main rejected: %v", err)
	}
	bad := []element.Movement{m(element.North, element.TurnForward), m(element.West, element.TurnForward)}
	if err := g.ValidateGreenSet(bad, false); err == nil {
		t.Error("crossing movements accepted")
	}
	if err := g.ValidateGreenSet(PhaseHorizontalRight.greenSet(), true); err == nil {
		t.Error("vehicles released with pedestrians accepted")
	}
}
