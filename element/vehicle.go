package element

import (
	"fmt"
)

// VehicleState 车辆状态
type VehicleState int

const (
	Approaching VehicleState = iota // 在进口道上自由行驶
	Queued                          // 在停车线前受阻停下
	Turning                         // 已越过停车线，直行车辆也属于此状态
	Exited                          // 已驶出出口道
)

func (s VehicleState) String() string {
	switch s {
	case Approaching:
		return "approaching"
	case Queued:
		return "queued"
	case Turning:
		return "turning"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("VehicleState(%d)", int(s))
	}
}

func (s VehicleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Maneuver 车辆转向相关的状态，只有 Forward、LeftTurn、RightTurn 三种实现
type Maneuver interface {
	Turn() TurnType
	update(route *Route, progress float64)
}

// Forward 直行
type Forward struct{}

func (*Forward) Turn() TurnType { return TurnForward }

func (*Forward) update(*Route, float64) {}

// LeftTurn 左转，在路口内转向点一次性完成转向
type LeftTurn struct {
	Completed bool
}

func (*LeftTurn) Turn() TurnType { return TurnLeft }

func (m *LeftTurn) update(route *Route, progress float64) {
	if m.Completed {
		return
	}
	i := route.SegmentAt(progress)
	m.Completed = route.Segments[i].Kind == SegmentExit
}

// RightTurnPhase 右转的三个子阶段
type RightTurnPhase int

const (
	RightApproach RightTurnPhase = iota
	RightTransit
	RightExit
)

func (p RightTurnPhase) String() string {
	switch p {
	case RightApproach:
		return "approach"
	case RightTransit:
		return "transit"
	case RightExit:
		return "exit"
	default:
		return fmt.Sprintf("RightTurnPhase(%d)", int(p))
	}
}

// RightTurn 右转，依次经过进口道、斜穿路口、出口道三个子阶段
type RightTurn struct {
	SubPhase RightTurnPhase
	Heading  float64
}

func (*RightTurn) Turn() TurnType { return TurnRight }

func (m *RightTurn) update(route *Route, progress float64) {
	i := route.SegmentAt(progress)
	seg := route.Segments[i]
	switch seg.Kind {
	case SegmentApproach:
		m.SubPhase = RightApproach
	case SegmentDiagonal:
		m.SubPhase = RightTransit
	default:
		m.SubPhase = RightExit
	}
	m.Heading = seg.Heading
}

func newManeuver(turn TurnType) Maneuver {
	switch turn {
	case TurnForward:
		return &Forward{}
	case TurnLeft:
		return &LeftTurn{}
	case TurnRight:
		return &RightTurn{SubPhase: RightApproach}
	default:
		panic(fmt.Sprintf("unknown turn type %d", int(turn)))
	}
}

// Vehicle 表示一辆车
// Progress 为车头沿路线行驶的距离，车辆生成时车头位于进口道起点
type Vehicle struct {
	ID        int64
	Direction Direction
	Lane      int
	Speed     float64 // 米/秒，恒定
	Length    float64
	Progress  float64
	State     VehicleState
	Maneuver  Maneuver

	SpawnedAt  float64
	EnqueuedAt float64 // WasQueued 为 true 时有效
	ExitedAt   float64

	route    *Route
	queued   bool
	enrolled bool // 已加入车道队列
}

// NewVehicle 创建一辆车并绑定其路线
// 左转必须使用车道0，右转必须使用最后一条车道
func NewVehicle(id int64, layout *Layout, d Direction, lane int, turn TurnType, speed, length, now float64) *Vehicle {
	if speed <= 0 {
		panic("speed must be positive")
	}
	if length <= 0 {
		panic("length must be positive")
	}
	if !layout.Permits(lane, turn) {
		panic(fmt.Sprintf("vehicle %d: %s turn not permitted in lane %d of %d", id, turn, lane, layout.Lanes()))
	}

	v := &Vehicle{
		ID:        id,
		Direction: d,
		Lane:      lane,
		Speed:     speed,
		Length:    length,
		State:     Approaching,
		Maneuver:  newManeuver(turn),
		SpawnedAt: now,
		route:     layout.Route(d, lane, turn),
	}
	v.Maneuver.update(v.route, 0)
	return v
}

// Turn 返回车辆转向
func (v *Vehicle) Turn() TurnType {
	return v.Maneuver.Turn()
}

// Route 返回车辆路线
func (v *Vehicle) Route() *Route {
	return v.route
}

// StopLine 返回车辆路线上的停车线位置
func (v *Vehicle) StopLine() float64 {
	return v.route.StopLine()
}

// Crossed 车头是否已越过停车线
func (v *Vehicle) Crossed() bool {
	return v.Progress > v.route.StopLine()
}

// TrailingEdge 返回车尾位置
func (v *Vehicle) TrailingEdge() float64 {
	return v.Progress - v.Length
}

// Heading 返回车辆当前朝向
func (v *Vehicle) Heading() float64 {
	if rt, ok := v.Maneuver.(*RightTurn); ok {
		return rt.Heading
	}
	return v.route.HeadingAt(v.Progress)
}

// WasQueued 车辆是否曾经排队
func (v *Vehicle) WasQueued() bool {
	return v.queued
}

// Wait 返回排队等待时间，只对已驶出且曾经排队的车辆有意义
func (v *Vehicle) Wait() float64 {
	if !v.queued || v.State != Exited {
		return 0
	}
	return v.ExitedAt - v.EnqueuedAt
}

// moveTo 将车头移动到 p，并根据是否受阻更新状态
func (v *Vehicle) moveTo(p, now float64, capped bool) {
	if p < v.Progress {
		panic(fmt.Sprintf("vehicle %d progress decreased from %f to %f", v.ID, v.Progress, p))
	}
	v.Progress = p
	v.Maneuver.update(v.route, p)

	switch {
	case p >= v.route.Length():
		v.State = Exited
		v.ExitedAt = now
	case v.Crossed():
		v.State = Turning
	case capped:
		if !v.queued {
			v.queued = true
			v.EnqueuedAt = now
		}
		v.State = Queued
	default:
		v.State = Approaching
	}
}
