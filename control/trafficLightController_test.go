package control

import (
	"math"
	"testing"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"
)

const tick = 0.1

type fakeQueues struct {
	main        [2]int
	right       [2]int
	queuedRight [2]int
}

func (f *fakeQueues) WaitingMain(g element.Group) int  { return f.main[g] }
func (f *fakeQueues) WaitingRight(g element.Group) int { return f.right[g] }
func (f *fakeQueues) QueuedRight(g element.Group) int  { return f.queuedRight[g] }

type phaseLog struct {
	records []PhaseRecord
}

func (l *phaseLog) hook(r PhaseRecord) {
	l.records = append(l.records, r)
}

func (l *phaseLog) phases() []Phase {
	ps := make([]Phase, len(l.records))
	for i, r := range l.records {
		ps[i] = r.Phase
	}
	return ps
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Pedestrian = config.PedestrianConfig{FrequencyPerHour: 0, DurationSeconds: 10}
	return cfg
}

func newController(t *testing.T, cfg *config.Config, mode Mode) (*TrafficLightController, *phaseLog) {
	t.Helper()
	log := &phaseLog{}
	c, err := NewTrafficLightController(cfg, mode, log.hook)
	if err != nil {
		t.Fatalf("NewTrafficLightController: %v", err)
	}
	return c, log
}

func run(c *TrafficLightController, obs QueueObserver, seconds float64) {
	n := int(math.Round(seconds / tick))
	for i := 0; i < n; i++ {
		c.Advance(tick, obs)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func equalPhases(a, b []Phase) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestControllerCycleSkipsEmptyRightPhases(t *testing.T) {
	c, log := newController(t, testConfig(), ModeAdaptive)
	run(c, &fakeQueues{}, 17.05)

	want := []Phase{PhaseAllRed, PhaseVerticalMain, PhaseAllRed, PhaseHorizontalMain, PhaseAllRed, PhaseVerticalMain}
	if !equalPhases(log.phases(), want) {
		t.Fatalf("phases = %v, want %v", log.phases(), want)
	}
	// 全红 1s，红黄 1s + 绿 5s + 黄 1s
	starts := []float64{0, 1, 8, 9, 16, 17}
	for i, r := range log.records {
		if !near(r.StartedAt, starts[i]) {
			t.Errorf("record %d (%s) started at %v, want %v", i, r.Phase, r.StartedAt, starts[i])
		}
	}
}

func TestControllerRightPhaseWhenQueued(t *testing.T) {
	c, log := newController(t, testConfig(), ModeAdaptive)
	obs := &fakeQueues{queuedRight: [2]int{1, 0}, right: [2]int{3, 0}}
	run(c, obs, 40)

	want := []Phase{PhaseAllRed, PhaseVerticalMain, PhaseVerticalRight, PhaseAllRed, PhaseHorizontalMain, PhaseAllRed}
	got := log.phases()
	if len(got) < len(want) || !equalPhases(got[:len(want)], want) {
		t.Fatalf("phases = %v, want prefix %v", got, want)
	}
	// Q = 0.5·3 = 1.5，green = 5 + 25·1.5/3.5
	if g := log.records[2].Green; !near(g, 5+25*1.5/3.5) {
		t.Errorf("right green = %v", g)
	}
}

func TestControllerAlwaysPolicyRunsRightPhases(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.RightTurnPolicy = config.RightTurnAlways
	c, log := newController(t, cfg, ModeAdaptive)
	run(c, &fakeQueues{}, 40)

	want := []Phase{PhaseAllRed, PhaseVerticalMain, PhaseVerticalRight, PhaseAllRed,
		PhaseHorizontalMain, PhaseHorizontalRight, PhaseAllRed}
	got := log.phases()
	if len(got) < len(want) || !equalPhases(got[:len(want)], want) {
		t.Fatalf("phases = %v, want prefix %v", got, want)
	}
	if g := log.records[2].Green; g != cfg.Adaptive.MinGreen {
		t.Errorf("empty right phase green = %v, want min", g)
	}
}

func TestControllerManualDurations(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.RightTurnPolicy = config.RightTurnAlways
	cfg.Manual = config.ManualConfig{
		Enabled: true, CyclesPerHour: 60,
		VerticalMainGreen: 900, VerticalRightGreen: 300,
		HorizontalMainGreen: 600, HorizontalRightGreen: 0,
	}
	c, log := newController(t, cfg, ModeManual)
	run(c, &fakeQueues{}, 60)

	want := []Phase{PhaseAllRed, PhaseVerticalMain, PhaseVerticalRight, PhaseAllRed, PhaseHorizontalMain, PhaseAllRed}
	got := log.phases()
	if len(got) < len(want) || !equalPhases(got[:len(want)], want) {
		t.Fatalf("phases = %v, want prefix %v", got, want)
	}
	greens := []float64{0, 15, 5, 0, 10, 0}
	for i, g := range greens {
		if !near(log.records[i].Green, g) {
			t.Errorf("record %d (%s) green = %v, want %v", i, log.records[i].Phase, log.records[i].Green, g)
		}
	}
	if c.Estimator() != nil {
		t.Error("manual controller should not own an estimator")
	}
}

func TestControllerManualRequiresConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Manual.Enabled = false
	if _, err := NewTrafficLightController(cfg, ModeManual, nil); err == nil {
		t.Error("expected error for manual mode without manual configuration")
	}
}

func TestControllerHorizontalGreenConvergesToMin(t *testing.T) {
	c, log := newController(t, testConfig(), ModeAdaptive)
	obs := &fakeQueues{main: [2]int{12, 0}}
	run(c, obs, 600)

	for _, r := range log.records {
		switch r.Phase {
		case PhaseHorizontalMain:
			if r.Green != 5 {
				t.Errorf("horizontal green at %v = %v, want min", r.StartedAt, r.Green)
			}
		case PhaseVerticalMain:
			if r.Green <= 5 || r.Green > 30 {
				t.Errorf("vertical green at %v = %v, want within (min,max]", r.StartedAt, r.Green)
			}
		}
	}
}

func TestControllerSignals(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.RightTurnPolicy = config.RightTurnAlways
	c, _ := newController(t, cfg, ModeAdaptive)
	obs := &fakeQueues{}

	if c.Signals().AnyVehicleGreen() {
		t.Fatal("initial all-red should not release any movement")
	}

	run(c, obs, 1.5) // 南北红黄
	s := c.Signals()
	if s.For(element.North).Main != element.SignalRedAmber || s.For(element.East).Main != element.SignalRed {
		t.Errorf("red-amber signals = %+v", s)
	}
	if c.Allows(element.North, element.TurnForward) {
		t.Error("red-amber must not release vehicles")
	}

	run(c, obs, 1) // 南北绿
	if !c.Allows(element.South, element.TurnLeft) || c.Allows(element.South, element.TurnRight) {
		t.Errorf("main green signals = %+v", c.Signals())
	}
	if c.Allows(element.East, element.TurnForward) {
		t.Error("horizontal released during vertical green")
	}

	run(c, obs, 5) // 南北黄
	if c.Signals().For(element.North).Main != element.SignalAmber || c.Allows(element.North, element.TurnForward) {
		t.Errorf("amber signals = %+v", c.Signals())
	}

	run(c, obs, 1) // 右转红黄
	if c.Phase() != PhaseVerticalRight || c.Signals().For(element.North).RightArrow {
		t.Errorf("right phase red-amber: phase %s signals %+v", c.Phase(), c.Signals())
	}
	run(c, obs, 1) // 右转绿
	if !c.Allows(element.North, element.TurnRight) || c.Allows(element.North, element.TurnForward) {
		t.Errorf("right arrow signals = %+v", c.Signals())
	}
}

func TestControllerPedestrianDeferredToAllRed(t *testing.T) {
	cfg := testConfig()
	c, log := newController(t, cfg, ModeAdaptive)
	obs := &fakeQueues{}

	// 进入南北绿灯
	run(c, obs, 3)
	if c.Phase() != PhaseVerticalMain || c.Stage() != StageGreen {
		t.Fatalf("phase %s stage %s, want VerticalMain green", c.Phase(), c.Stage())
	}
	if !c.RequestPedestrianLock() {
		t.Fatal("first request should be accepted")
	}
	if c.RequestPedestrianLock() {
		t.Error("second request should coalesce")
	}

	// 绿灯不会被打断
	for c.Phase() == PhaseVerticalMain {
		if c.Signals().For(element.North).Pedestrian {
			t.Fatal("pedestrian signal on during vertical main")
		}
		c.Advance(tick, obs)
	}

	pedSeen := false
	for i := 0; i < 400; i++ {
		c.Advance(tick, obs)
		if c.Phase() == PhasePedestrian {
			pedSeen = true
			s := c.Signals()
			if s.AnyVehicleGreen() {
				t.Fatal("vehicle movement released during pedestrian phase")
			}
			for _, d := range element.Directions {
				if !s.For(d).Pedestrian || !s.For(d).Main.Red {
					t.Fatalf("direction %s signals %+v during pedestrian phase", d, s.For(d))
				}
			}
		}
	}
	if !pedSeen {
		t.Fatal("pedestrian phase never entered")
	}

	want := []Phase{PhaseAllRed, PhaseVerticalMain, PhaseAllRed, PhasePedestrian, PhaseAllRed, PhaseHorizontalMain}
	got := log.phases()
	if len(got) < len(want) || !equalPhases(got[:len(want)], want) {
		t.Fatalf("phases = %v, want prefix %v", got, want)
	}
	// 南北主相位 1..8，全红 8..9，行人 9..19
	if !near(log.records[2].StartedAt, 8) || !near(log.records[3].StartedAt, 9) {
		t.Errorf("pedestrian phase not at the all-red boundary: %+v", log.records[:4])
	}
	if d := log.records[4].StartedAt - log.records[3].StartedAt; !near(d, cfg.Pedestrian.DurationSeconds) {
		t.Errorf("pedestrian phase lasted %v, want %v", d, cfg.Pedestrian.DurationSeconds)
	}
	if c.PedestrianPending() {
		t.Error("request should have been consumed")
	}
}

func TestControllerCarryOver(t *testing.T) {
	cfg := testConfig()
	fine, fineLog := newController(t, cfg, ModeAdaptive)
	coarse, coarseLog := newController(t, cfg, ModeAdaptive)
	obs := &fakeQueues{main: [2]int{4, 2}}

	run(fine, obs, 120)
	coarse.Advance(120, obs)

	if !equalPhases(fineLog.phases(), coarseLog.phases()) {
		t.Fatalf("phase sequences differ:\n%v\n%v", fineLog.phases(), coarseLog.phases())
	}
	for i := range fineLog.records {
		if !near(fineLog.records[i].StartedAt, coarseLog.records[i].StartedAt) {
			t.Errorf("record %d starts %v vs %v", i, fineLog.records[i].StartedAt, coarseLog.records[i].StartedAt)
		}
	}
	if fine.Phase() != coarse.Phase() || !near(fine.StageElapsed(), coarse.StageElapsed()) {
		t.Errorf("final state differs: %s/%v vs %s/%v", fine.Phase(), fine.StageElapsed(), coarse.Phase(), coarse.StageElapsed())
	}
}
