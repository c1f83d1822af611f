package control

import (
	"errors"
	"fmt"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"
)

// 浮点比较容差
const eps = 1e-9

// Mode 信号控制模式
type Mode int

const (
	ModeAdaptive Mode = iota
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeAdaptive:
		return "adaptive"
	case ModeManual:
		return "manual"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Phase 信号相位
type Phase int

const (
	PhaseAllRed Phase = iota
	PhaseVerticalMain
	PhaseVerticalRight
	PhaseHorizontalMain
	PhaseHorizontalRight
	PhasePedestrian
)

var allPhases = []Phase{PhaseAllRed, PhaseVerticalMain, PhaseVerticalRight, PhaseHorizontalMain, PhaseHorizontalRight, PhasePedestrian}

func (p Phase) String() string {
	switch p {
	case PhaseAllRed:
		return "AllRed"
	case PhaseVerticalMain:
		return "VerticalMain"
	case PhaseVerticalRight:
		return "VerticalRight"
	case PhaseHorizontalMain:
		return "HorizontalMain"
	case PhaseHorizontalRight:
		return "HorizontalRight"
	case PhasePedestrian:
		return "Pedestrian"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText 快照 JSON 中相位以名称输出
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Group 返回放行相位对应的方向组，全红和行人相位返回 false
func (p Phase) Group() (element.Group, bool) {
	switch p {
	case PhaseVerticalMain, PhaseVerticalRight:
		return element.Vertical, true
	case PhaseHorizontalMain, PhaseHorizontalRight:
		return element.Horizontal, true
	default:
		return 0, false
	}
}

// IsRight 是否为右转箭头相位
func (p Phase) IsRight() bool {
	return p == PhaseVerticalRight || p == PhaseHorizontalRight
}

func mainPhase(g element.Group) Phase {
	if g == element.Vertical {
		return PhaseVerticalMain
	}
	return PhaseHorizontalMain
}

func rightPhase(g element.Group) Phase {
	if g == element.Vertical {
		return PhaseVerticalRight
	}
	return PhaseHorizontalRight
}

// greenSet 返回相位放行的 movement
func (p Phase) greenSet() []element.Movement {
	g, ok := p.Group()
	if !ok {
		return nil
	}
	turns := []element.TurnType{element.TurnForward, element.TurnLeft}
	if p.IsRight() {
		turns = []element.TurnType{element.TurnRight}
	}
	var ms []element.Movement
	for _, d := range g.Directions() {
		for _, t := range turns {
			ms = append(ms, element.Movement{Direction: d, Turn: t})
		}
	}
	return ms
}

// Stage 放行相位内的阶段
type Stage int

const (
	StageHold     Stage = iota // 全红与行人相位只有一个阶段
	StageRedAmber              // 红黄，即将放行
	StageGreen
	StageAmber
)

func (s Stage) String() string {
	switch s {
	case StageHold:
		return "hold"
	case StageRedAmber:
		return "red-amber"
	case StageGreen:
		return "green"
	case StageAmber:
		return "amber"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// QueueObserver 控制器在相位切换时读取的排队信息
type QueueObserver interface {
	// WaitingMain 方向组内尚未越过停车线的直行和左转车辆数
	WaitingMain(g element.Group) int
	// WaitingRight 方向组内尚未越过停车线的右转车辆数
	WaitingRight(g element.Group) int
	// QueuedRight 方向组内处于排队状态的右转车辆数
	QueuedRight(g element.Group) int
}

// PhaseRecord 一次相位开始的记录，Green 为该相位的绿灯时长
type PhaseRecord struct {
	Phase     Phase
	StartedAt float64
	Green     float64
}

// TrafficLightController 信号灯相位状态机
// 每个时间步比较相位内已用时间与阶段时长，多余的时间带入下一阶段
type TrafficLightController struct {
	mode        Mode
	amber       float64
	allRed      float64
	pedDuration float64
	policy      string
	manual      config.ManualConfig
	estimator   *AdaptiveEstimator
	conflicts   *ConflictGraph
	onPhase     func(PhaseRecord)

	phase         Phase
	stage         Stage
	stageElapsed  float64
	stageDuration float64
	green         float64
	nextGroup     element.Group
	pedPending    bool
	now           float64
	signals       element.SignalState
}

// NewTrafficLightController 创建信号控制器，初始相位为全红，随后放行南北方向
// onPhase 可以为 nil
func NewTrafficLightController(cfg *config.Config, mode Mode, onPhase func(PhaseRecord)) (*TrafficLightController, error) {
	if mode != ModeAdaptive && mode != ModeManual {
		return nil, fmt.Errorf("unknown control mode %d", int(mode))
	}
	if mode == ModeManual && !cfg.Manual.Enabled {
		return nil, errors.New("manual mode requires an enabled manual configuration")
	}

	c := &TrafficLightController{
		mode:        mode,
		amber:       cfg.Timing.AmberSeconds,
		allRed:      cfg.Timing.AllRedSeconds,
		pedDuration: cfg.Pedestrian.DurationSeconds,
		policy:      cfg.Simulation.RightTurnPolicy,
		manual:      cfg.Manual,
		conflicts:   NewConflictGraph(),
		onPhase:     onPhase,
		nextGroup:   element.Vertical,
	}
	if mode == ModeAdaptive {
		c.estimator = NewAdaptiveEstimator(cfg.Adaptive)
	}

	for _, p := range allPhases {
		if err := c.conflicts.ValidateGreenSet(p.greenSet(), p == PhasePedestrian); err != nil {
			return nil, fmt.Errorf("phase %s: %w", p, err)
		}
	}

	c.enterAllRed()
	return c, nil
}

// Advance 推进状态机 dt 秒
func (c *TrafficLightController) Advance(dt float64, obs QueueObserver) {
	if dt < 0 {
		panic(fmt.Sprintf("negative time step %f", dt))
	}

	remaining := dt
	for {
		left := c.stageDuration - c.stageElapsed
		if remaining+eps < left {
			c.stageElapsed += remaining
			c.now += remaining
			break
		}
		consumed := max(left, 0)
		c.now += consumed
		remaining = max(remaining-consumed, 0)
		c.completeStage(obs)
	}
	c.refreshSignals()
}

func (c *TrafficLightController) completeStage(obs QueueObserver) {
	switch c.phase {
	case PhaseAllRed:
		if c.pedPending {
			c.pedPending = false
			c.enter(PhasePedestrian, StageHold, c.pedDuration, 0)
			return
		}
		c.enterMain(c.nextGroup, obs)

	case PhasePedestrian:
		c.enterAllRed()

	case PhaseVerticalMain, PhaseVerticalRight, PhaseHorizontalMain, PhaseHorizontalRight:
		switch c.stage {
		case StageRedAmber:
			c.setStage(StageGreen, c.green)
		case StageGreen:
			c.setStage(StageAmber, c.amber)
		case StageAmber:
			g, _ := c.phase.Group()
			if !c.phase.IsRight() && c.shouldRunRight(g, obs) {
				c.enterRight(g, obs)
				return
			}
			c.enterAllRed()
		default:
			panic(fmt.Sprintf("phase %s in unexpected stage %s", c.phase, c.stage))
		}

	default:
		panic(fmt.Sprintf("unknown phase %d", int(c.phase)))
	}
}

func (c *TrafficLightController) enter(p Phase, s Stage, duration, green float64) {
	c.phase = p
	c.green = green
	c.setStage(s, duration)
	c.refreshSignals()
	if c.onPhase != nil {
		c.onPhase(PhaseRecord{Phase: p, StartedAt: c.now, Green: green})
	}
}

func (c *TrafficLightController) setStage(s Stage, duration float64) {
	c.stage = s
	c.stageElapsed = 0
	c.stageDuration = duration
}

func (c *TrafficLightController) enterAllRed() {
	c.enter(PhaseAllRed, StageHold, c.allRed, 0)
}

func (c *TrafficLightController) enterMain(g element.Group, obs QueueObserver) {
	c.nextGroup = g.Other()

	var green float64
	if c.mode == ModeAdaptive {
		green = c.estimator.Observe(g, SubMain, obs.WaitingMain(g))
	} else if g == element.Vertical {
		green = c.manual.PhaseSeconds(c.manual.VerticalMainGreen)
	} else {
		green = c.manual.PhaseSeconds(c.manual.HorizontalMainGreen)
	}
	c.enter(mainPhase(g), StageRedAmber, c.amber, green)
}

func (c *TrafficLightController) enterRight(g element.Group, obs QueueObserver) {
	var green float64
	if c.mode == ModeAdaptive {
		green = c.estimator.Observe(g, SubRight, obs.WaitingRight(g))
	} else {
		green = c.manualRightGreen(g)
	}
	c.enter(rightPhase(g), StageRedAmber, c.amber, green)
}

func (c *TrafficLightController) manualRightGreen(g element.Group) float64 {
	if g == element.Vertical {
		return c.manual.PhaseSeconds(c.manual.VerticalRightGreen)
	}
	return c.manual.PhaseSeconds(c.manual.HorizontalRightGreen)
}

// shouldRunRight 主相位结束时决定是否进入右转相位
func (c *TrafficLightController) shouldRunRight(g element.Group, obs QueueObserver) bool {
	if c.mode == ModeManual && c.manualRightGreen(g) <= 0 {
		return false
	}
	if c.policy == config.RightTurnAlways {
		return true
	}
	return obs.QueuedRight(g) > 0
}

func (c *TrafficLightController) refreshSignals() {
	s := element.AllRedSignals(c.phase == PhasePedestrian)
	if g, ok := c.phase.Group(); ok {
		for _, d := range g.Directions() {
			if c.phase.IsRight() {
				s[d].RightArrow = c.stage == StageGreen
				continue
			}
			switch c.stage {
			case StageRedAmber:
				s[d].Main = element.SignalRedAmber
			case StageGreen:
				s[d].Main = element.SignalGreen
			case StageAmber:
				s[d].Main = element.SignalAmber
			}
		}
	}
	c.signals = s
}

// RequestPedestrianLock 请求行人全红锁定，在下一个全红阶段结束时生效
// 已有未处理的请求时返回 false
func (c *TrafficLightController) RequestPedestrianLock() bool {
	if c.pedPending {
		return false
	}
	c.pedPending = true
	return true
}

// PedestrianPending 是否有未处理的行人请求
func (c *TrafficLightController) PedestrianPending() bool {
	return c.pedPending
}

// Signals 返回当前信号状态的副本
func (c *TrafficLightController) Signals() element.SignalState {
	return c.signals
}

// Allows 判断指定进口道的指定转向当前是否放行
func (c *TrafficLightController) Allows(d element.Direction, turn element.TurnType) bool {
	return c.signals.Allows(d, turn)
}

// Phase 返回当前相位
func (c *TrafficLightController) Phase() Phase {
	return c.phase
}

// Stage 返回当前阶段
func (c *TrafficLightController) Stage() Stage {
	return c.stage
}

// StageElapsed 返回当前阶段已用时间
func (c *TrafficLightController) StageElapsed() float64 {
	return c.stageElapsed
}

// CurrentGreen 返回当前相位的绿灯时长
func (c *TrafficLightController) CurrentGreen() float64 {
	return c.green
}

// Mode 返回控制模式
func (c *TrafficLightController) Mode() Mode {
	return c.mode
}

// Estimator 返回自适应估计器，手动模式下为 nil
func (c *TrafficLightController) Estimator() *AdaptiveEstimator {
	return c.estimator
}

// Now 返回控制器内部时钟
func (c *TrafficLightController) Now() float64 {
	return c.now
}
