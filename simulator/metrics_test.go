package simulator

import (
	"math"
	"testing"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"
)

// driveVehicle 让一辆直行车在红灯下停到 redUntil 秒后放行，直到驶出
func driveVehicle(t *testing.T, id int64, d element.Direction, redUntil float64) *element.Vehicle {
	t.Helper()
	cfg := config.Default()
	layout := element.NewLayout(cfg.Junction)
	j := cfg.Junction
	dt := cfg.Simulation.TickSeconds

	lane := layout.ForwardLanes()[0]
	q := element.NewLaneQueue(d, lane)
	v := element.NewVehicle(id, layout, d, lane, element.TurnForward, j.VehicleSpeed, j.VehicleLength, 0)
	q.Push(v, j.SafeGap)

	for i := 1; i < 100000; i++ {
		now := float64(i) * dt
		exited := q.Advance(now, dt, func(*element.Vehicle) bool { return now > redUntil }, j.SafeGap)
		if len(exited) == 1 {
			return exited[0]
		}
	}
	t.Fatal("vehicle never exited")
	return nil
}

func TestScore(t *testing.T) {
	got := Score(10, 20, 5)
	if want := 0.45*10 + 0.2*20 + 0.35*5; math.Abs(got-want) > 1e-12 {
		t.Errorf("Score = %v, want %v", got, want)
	}
	if Score(0, 0, 0) != 0 {
		t.Error("empty score must be 0")
	}
}

func TestRecordExitWait(t *testing.T) {
	m := NewMetricsAggregator(config.TrafficConfig{North: config.TurnRates{Forward: 100}})

	free := driveVehicle(t, 1, element.North, -1)
	if free.WasQueued() {
		t.Fatal("vehicle on a green approach should never queue")
	}
	m.RecordExit(free)

	held := driveVehicle(t, 2, element.North, 30)
	if !held.WasQueued() {
		t.Fatal("vehicle held at red should queue")
	}
	m.RecordExit(held)

	s := m.Stats(element.North)
	if s.Exited != 2 || s.Count != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if want := held.ExitedAt - held.EnqueuedAt; math.Abs(s.TotalWait-want) > 1e-9 || s.MaxWait != s.TotalWait {
		t.Errorf("wait = %v max %v, want %v", s.TotalWait, s.MaxWait, want)
	}
	// 等待从排队开始算起，不含到达停车线之前的行驶时间
	if held.EnqueuedAt <= 0 || held.EnqueuedAt >= 30 {
		t.Errorf("enqueued at %v", held.EnqueuedAt)
	}

	trips := m.Trips()
	if len(trips) != 2 || trips[0].Queued || !trips[1].Queued || trips[1].Wait != s.TotalWait {
		t.Errorf("trips = %+v", trips)
	}
	trips[0].ID = 99
	if m.Trips()[0].ID == 99 {
		t.Error("Trips must return a copy")
	}
}

func TestRecordExitRejectsActiveVehicle(t *testing.T) {
	cfg := config.Default()
	layout := element.NewLayout(cfg.Junction)
	v := element.NewVehicle(1, layout, element.East, 1, element.TurnForward, 10, 4.5, 0)

	defer func() {
		if recover() == nil {
			t.Error("RecordExit accepted a vehicle that has not exited")
		}
	}()
	NewMetricsAggregator(cfg.Traffic).RecordExit(v)
}

func TestReportAggregate(t *testing.T) {
	traffic := config.TrafficConfig{
		North: config.TurnRates{Forward: 300, Left: 100},
		East:  config.TurnRates{Forward: 200},
	}
	m := NewMetricsAggregator(traffic)

	n1 := driveVehicle(t, 1, element.North, 20)
	n2 := driveVehicle(t, 2, element.North, 50)
	e1 := driveVehicle(t, 3, element.East, 10)
	for _, v := range []*element.Vehicle{n1, n2, e1} {
		m.RecordExit(v)
	}
	m.RecordDeferred([4]int{element.West: 3})

	r := m.Report(false)
	north := r.Directions[element.North]
	if north.VPH != 400 || north.Waited != 2 {
		t.Fatalf("north = %+v", north)
	}
	if want := (n1.Wait() + n2.Wait()) / 2; math.Abs(north.AvgWait-want) > 1e-9 {
		t.Errorf("north avg = %v, want %v", north.AvgWait, want)
	}
	if north.MaxWait != n2.Wait() {
		t.Errorf("north max = %v, want %v", north.MaxWait, n2.Wait())
	}

	// 到达率为0的进口道不参与总评分
	west := r.Directions[element.West]
	if west.Deferred != 3 || west.Score != 0 {
		t.Errorf("west = %+v", west)
	}
	want := north.Score/400 + r.Directions[element.East].Score/200
	if math.Abs(r.Aggregate-want) > 1e-12 {
		t.Errorf("aggregate = %v, want %v", r.Aggregate, want)
	}
	if r.Partial {
		t.Error("report marked partial")
	}
}

func TestSampleTracksMaxQueue(t *testing.T) {
	cfg := config.Default()
	layout := element.NewLayout(cfg.Junction)
	j := cfg.Junction
	dt := cfg.Simulation.TickSeconds
	lanes := newLaneSet(j.Lanes)
	m := NewMetricsAggregator(cfg.Traffic)
	red := func(*element.Vehicle) bool { return false }

	// 南向直行车道放入4辆车，红灯下全部排队
	id := int64(0)
	for i := 1; i <= 3000; i++ {
		q := lanes[element.South][1]
		if q.CanEnter(j.SafeGap) && id < 4 {
			id++
			q.Push(element.NewVehicle(id, layout, element.South, 1, element.TurnForward, j.VehicleSpeed, j.VehicleLength, float64(i)*dt), j.SafeGap)
		}
		processVehicles(lanes, float64(i)*dt, dt, j.SafeGap, red)
		m.Sample(lanes)
	}

	if got := m.Stats(element.South).MaxQueue; got != 4 {
		t.Errorf("max queue = %d, want 4", got)
	}
	if got := m.Stats(element.North).MaxQueue; got != 0 {
		t.Errorf("north max queue = %d", got)
	}
}

func TestScoreDifference(t *testing.T) {
	user := Report{Aggregate: 0.8}
	adaptive := Report{Aggregate: 0.5}
	if d := ScoreDifference(user, adaptive); math.Abs(d+0.3) > 1e-12 {
		t.Errorf("difference = %v, want -0.3", d)
	}
}
