package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/control"
	"github.com/aslik04/junction-modelling/element"
	"github.com/aslik04/junction-modelling/log"

	"github.com/google/uuid"
)

// ErrAborted 运行被中止命令或 context 取消打断
var ErrAborted = errors.New("simulation aborted")

type commandKind int

const (
	cmdSetSpeed commandKind = iota
	cmdPause
	cmdResume
	cmdAbort
)

type command struct {
	kind  commandKind
	speed float64
}

// Option 配置 Simulation
type Option func(*options)

type options struct {
	seed         *uint64
	phaseHook    func(control.PhaseRecord)
	snapshotHook func(*Snapshot)
}

// WithSeed 覆盖配置中的随机种子
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithPhaseHook 在每次相位开始时调用 fn，fn 在模拟所在的协程中执行
func WithPhaseHook(fn func(control.PhaseRecord)) Option {
	return func(o *options) {
		o.phaseHook = fn
	}
}

// WithSnapshotHook 在每个快照发布后调用 fn，fn 在模拟所在的协程中执行且不得修改快照
func WithSnapshotHook(fn func(*Snapshot)) Option {
	return func(o *options) {
		o.snapshotHook = fn
	}
}

// Result 一次运行的结果
type Result struct {
	Report Report
	Trips  []Trip
}

// Simulation 单个路口的一次模拟运行
// 所有状态只在运行所在的协程中修改，外部只能通过命令队列和快照交互
type Simulation struct {
	id   string
	cfg  config.Config
	mode control.Mode
	seed uint64

	layout      *element.Layout
	lanes       laneSet
	arrivals    *ArrivalGenerator
	controller  *control.TrafficLightController
	pedestrians *control.PedestrianScheduler
	metrics     *MetricsAggregator
	state       *SystemState
	hub         *SnapshotHub
	onSnapshot  func(*Snapshot)

	tick        int
	elapsed     float64
	completed   int64
	statusEvery int

	cmdMu    sync.Mutex
	commands []command
	speed    float64
	paused   bool
	aborted  bool
}

// New 校验配置并创建一次模拟运行
// 配置非法时原样返回 config.Validate 的错误
func New(cfg *config.Config, mode control.Mode, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		log.WriteLog(fmt.Sprintf("invalid configuration: %v", err))
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Simulation{
		id:    uuid.NewString(),
		cfg:   *cfg,
		mode:  mode,
		seed:  cfg.Simulation.Seed,
		speed: cfg.Simulation.SpeedMultiplier,
		hub:   NewSnapshotHub(),
		state: NewSystemState(),

		onSnapshot: o.snapshotHook,
	}
	if o.seed != nil {
		s.seed = *o.seed
	}

	controller, err := control.NewTrafficLightController(&s.cfg, mode, o.phaseHook)
	if err != nil {
		return nil, fmt.Errorf("create %s controller: %w", mode, err)
	}
	s.controller = controller

	s.layout = element.NewLayout(s.cfg.Junction)
	s.lanes = newLaneSet(s.cfg.Junction.Lanes)
	s.arrivals = NewArrivalGenerator(&s.cfg, s.layout, s.seed)
	s.pedestrians = control.NewPedestrianScheduler(s.cfg.Pedestrian)
	s.metrics = NewMetricsAggregator(s.cfg.Traffic)
	s.statusEvery = ticksFor(s.cfg.Logging.StatusIntervalSeconds, s.cfg.Simulation.TickSeconds)

	log.LogSimParameters(s.id, mode.String(), s.cfg.Junction.Lanes, s.cfg.Simulation.TickSeconds,
		s.cfg.Simulation.DurationSeconds, s.cfg.Simulation.ArrivalModel, s.cfg.Simulation.RightTurnPolicy, s.seed)
	return s, nil
}

// SetSpeed 请求修改实时模式下的倍速，在下一个时间步开始时生效
func (s *Simulation) SetSpeed(multiplier float64) error {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return fmt.Errorf("speed multiplier must be positive and finite, got %v", multiplier)
	}
	s.enqueue(command{kind: cmdSetSpeed, speed: multiplier})
	return nil
}

// Pause 请求暂停实时模式
func (s *Simulation) Pause() { s.enqueue(command{kind: cmdPause}) }

// Resume 请求恢复实时模式
func (s *Simulation) Resume() { s.enqueue(command{kind: cmdResume}) }

// Abort 请求中止运行
func (s *Simulation) Abort() { s.enqueue(command{kind: cmdAbort}) }

func (s *Simulation) enqueue(c command) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	s.commands = append(s.commands, c)
}

// drainCommands 在时间步开始时执行所有待处理命令
func (s *Simulation) drainCommands() {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	for _, c := range s.commands {
		switch c.kind {
		case cmdSetSpeed:
			s.speed = c.speed
		case cmdPause:
			s.paused = true
		case cmdResume:
			s.paused = false
		case cmdAbort:
			s.aborted = true
		}
	}
	s.commands = s.commands[:0]
}

// Step 执行待处理命令后推进一个时间步，运行已中止时返回 false
// 暂停只影响实时模式，Step 不检查暂停状态
func (s *Simulation) Step() bool {
	s.drainCommands()
	if s.isAborted() {
		return false
	}
	s.advance()
	return true
}

func (s *Simulation) isAborted() bool {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.aborted
}

// advance 按固定顺序执行一个时间步：到达、信号、车辆、行人、统计、发布
func (s *Simulation) advance() {
	dt := s.cfg.Simulation.TickSeconds
	now := float64(s.tick+1) * dt

	spawn := s.arrivals.Spawn(s.elapsed, s.lanes)
	s.metrics.RecordSpawn(spawn.Spawned)
	s.metrics.RecordDeferred(spawn.Deferred)

	s.controller.Advance(dt, s.lanes)

	exited := processVehicles(s.lanes, now, dt, s.cfg.Junction.SafeGap, func(v *element.Vehicle) bool {
		return s.controller.Allows(v.Direction, v.Turn())
	})
	for _, v := range exited {
		s.metrics.RecordExit(v)
		s.completed++
	}

	s.pedestrians.Tick(dt, s.controller)
	s.metrics.Sample(s.lanes)

	s.tick++
	s.elapsed = now

	s.state.Update(s.lanes, s.arrivals.Generated(), s.completed, s.controller.Phase(), s.elapsed)
	if s.statusEvery > 0 && s.tick%s.statusEvery == 0 {
		s.state.LogStatus(s.id)
	}

	speed, paused := s.Speed(), s.Paused()
	snap := newSnapshot(s.id, s.tick, s.elapsed, s.controller.Phase(), speed, paused,
		s.controller.Signals(), s.lanes)
	s.hub.Publish(snap)
	if s.onSnapshot != nil {
		s.onSnapshot(snap)
	}
}

func (s *Simulation) resolveTicks(ticks int) int {
	if ticks > 0 {
		return ticks
	}
	return ticksFor(s.cfg.Simulation.DurationSeconds, s.cfg.Simulation.TickSeconds)
}

// RunBatch 不做任何等待地连续执行 ticks 个时间步，ticks <= 0 时按配置的模拟时长运行
func (s *Simulation) RunBatch(ctx context.Context, ticks int) (Result, error) {
	ticks = s.resolveTicks(ticks)
	s.logStart("batch", ticks)

	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return s.abort(err)
		}
		if !s.Step() {
			return s.abort(nil)
		}
	}
	return s.finish(), nil
}

// RunPaced 每个墙钟帧执行一个时间步，帧间隔为时间步长除以倍速
func (s *Simulation) RunPaced(ctx context.Context, ticks int) (Result, error) {
	ticks = s.resolveTicks(ticks)
	s.logStart("paced", ticks)

	interval := frameInterval(s.cfg.Simulation.TickSeconds, s.Speed())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for done := 0; done < ticks; {
		select {
		case <-ctx.Done():
			return s.abort(ctx.Err())
		case <-ticker.C:
		}

		s.drainCommands()
		if s.isAborted() {
			return s.abort(nil)
		}
		if s.Paused() {
			continue
		}
		if iv := frameInterval(s.cfg.Simulation.TickSeconds, s.Speed()); iv != interval {
			interval = iv
			ticker.Reset(iv)
		}

		s.advance()
		done++
	}
	return s.finish(), nil
}

func (s *Simulation) logStart(driver string, ticks int) {
	log.WriteLog(fmt.Sprintf("run %s (%s, %s) start: %d ticks from %s",
		s.id, s.mode, driver, ticks, log.ConvertTimeStepToTime(s.elapsed)))
}

func (s *Simulation) abort(cause error) (Result, error) {
	log.WriteLog(fmt.Sprintf("run %s aborted at %s after %d ticks", s.id, log.ConvertTimeStepToTime(s.elapsed), s.tick))
	res := s.result(true)
	if cause != nil {
		return res, fmt.Errorf("%w: %w", ErrAborted, cause)
	}
	return res, ErrAborted
}

func (s *Simulation) finish() Result {
	res := s.result(false)
	log.WriteLog(fmt.Sprintf("run %s finished at %s, aggregate score %.4f",
		s.id, log.ConvertTimeStepToTime(s.elapsed), res.Report.Aggregate))
	return res
}

func (s *Simulation) result(partial bool) Result {
	r := s.metrics.Report(partial)
	r.RunID = s.id
	r.Mode = s.mode.String()
	r.Seed = s.seed
	r.Ticks = s.tick
	r.Elapsed = s.elapsed
	return Result{Report: r, Trips: s.metrics.Trips()}
}

// ID 返回运行ID
func (s *Simulation) ID() string { return s.id }

// Mode 返回控制模式
func (s *Simulation) Mode() control.Mode { return s.mode }

// Seed 返回随机种子
func (s *Simulation) Seed() uint64 { return s.seed }

// Hub 返回快照分发器
func (s *Simulation) Hub() *SnapshotHub { return s.hub }

// State 返回系统状态
func (s *Simulation) State() *SystemState { return s.state }

// Tick 返回已执行的时间步数
func (s *Simulation) Tick() int { return s.tick }

// Elapsed 返回已模拟的秒数
func (s *Simulation) Elapsed() float64 { return s.elapsed }

// Speed 返回当前倍速
func (s *Simulation) Speed() float64 {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.speed
}

// Paused 是否处于暂停状态
func (s *Simulation) Paused() bool {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.paused
}
