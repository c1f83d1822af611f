package element

import (
	"fmt"

	"github.com/samber/lo"
)

// 浮点比较容差
const eps = 1e-9

// GateFunc 判断车辆当前是否可以越过停车线
type GateFunc func(v *Vehicle) bool

// LaneQueue 一个进口道上一条车道内的车辆队列
// vehicles[0] 为最前面的车辆
type LaneQueue struct {
	direction Direction
	lane      int
	vehicles  []*Vehicle
}

// NewLaneQueue 创建一条空车道
func NewLaneQueue(d Direction, lane int) *LaneQueue {
	return &LaneQueue{
		direction: d,
		lane:      lane,
		vehicles:  make([]*Vehicle, 0, 16),
	}
}

// Direction 返回车道所属进口道
func (q *LaneQueue) Direction() Direction {
	return q.direction
}

// Lane 返回车道编号
func (q *LaneQueue) Lane() int {
	return q.lane
}

// CanEnter 判断新车能否在车道起点生成
// 新车车头位于起点，要求队尾车辆车尾至少领先 gap
func (q *LaneQueue) CanEnter(gap float64) bool {
	if len(q.vehicles) == 0 {
		return true
	}
	rear := q.vehicles[len(q.vehicles)-1]
	return rear.TrailingEdge() >= gap-eps
}

// Push 将新车加入队尾
func (q *LaneQueue) Push(v *Vehicle, gap float64) {
	if v.enrolled {
		panic(fmt.Sprintf("vehicle %d already belongs to a lane", v.ID))
	}
	if v.Direction != q.direction || v.Lane != q.lane {
		panic(fmt.Sprintf("vehicle %d (%s,%d) pushed into lane (%s,%d)", v.ID, v.Direction, v.Lane, q.direction, q.lane))
	}
	if !q.CanEnter(gap) {
		panic(fmt.Sprintf("vehicle %d pushed into blocked lane (%s,%d)", v.ID, q.direction, q.lane))
	}
	v.enrolled = true
	q.vehicles = append(q.vehicles, v)
}

// Advance 按从前到后的顺序推进车道内所有车辆一个时间步，返回本步驶出的车辆
// 未越过停车线且 gate 返回 false 的车辆最多停在停车线上
func (q *LaneQueue) Advance(now, dt float64, gate GateFunc, gap float64) []*Vehicle {
	var exited []*Vehicle
	kept := q.vehicles[:0]
	var leader *Vehicle

	for _, v := range q.vehicles {
		desired := v.Progress + v.Speed*dt
		limit := desired

		// 跟车距离
		if leader != nil {
			limit = min(limit, leader.TrailingEdge()-gap)
		}

		// 停车线
		gated := !v.Crossed() && !gate(v)
		if gated {
			limit = min(limit, v.StopLine())
		}

		if limit < v.Progress {
			limit = v.Progress
		}
		v.moveTo(limit, now, desired-limit > eps)

		if gated && v.Progress > v.StopLine()+eps {
			panic(fmt.Sprintf("vehicle %d at %f passed stop-line %f while gated", v.ID, v.Progress, v.StopLine()))
		}

		if v.State == Exited {
			v.enrolled = false
			exited = append(exited, v)
			continue
		}
		kept = append(kept, v)
		leader = v
	}

	// 清理尾部引用
	for i := len(kept); i < len(q.vehicles); i++ {
		q.vehicles[i] = nil
	}
	q.vehicles = kept
	q.checkInvariants(gap)
	return exited
}

func (q *LaneQueue) checkInvariants(gap float64) {
	for i := 1; i < len(q.vehicles); i++ {
		leader, follower := q.vehicles[i-1], q.vehicles[i]
		if follower.Progress > leader.Progress {
			panic(fmt.Sprintf("lane (%s,%d) order violated: vehicle %d ahead of %d", q.direction, q.lane, follower.ID, leader.ID))
		}
		if leader.TrailingEdge()-follower.Progress < gap-eps {
			panic(fmt.Sprintf("lane (%s,%d) gap violated between %d and %d: %f < %f",
				q.direction, q.lane, leader.ID, follower.ID, leader.TrailingEdge()-follower.Progress, gap))
		}
	}
}

// Len 返回车道内车辆数
func (q *LaneQueue) Len() int {
	return len(q.vehicles)
}

// QueuedCount 返回处于排队状态的车辆数
func (q *LaneQueue) QueuedCount() int {
	return lo.CountBy(q.vehicles, func(v *Vehicle) bool { return v.State == Queued })
}

// WaitingCount 返回尚未越过停车线的指定转向车辆数
func (q *LaneQueue) WaitingCount(turns ...TurnType) int {
	return lo.CountBy(q.vehicles, func(v *Vehicle) bool {
		return !v.Crossed() && lo.Contains(turns, v.Turn())
	})
}

// QueuedTurnCount 返回处于排队状态的指定转向车辆数
func (q *LaneQueue) QueuedTurnCount(turn TurnType) int {
	return lo.CountBy(q.vehicles, func(v *Vehicle) bool {
		return v.State == Queued && v.Turn() == turn
	})
}

// Front 返回最前面的车辆，车道为空时返回 nil
func (q *LaneQueue) Front() *Vehicle {
	if len(q.vehicles) == 0 {
		return nil
	}
	return q.vehicles[0]
}

// Vehicles 返回车道内车辆列表的副本
func (q *LaneQueue) Vehicles() []*Vehicle {
	result := make([]*Vehicle, len(q.vehicles))
	copy(result, q.vehicles)
	return result
}
