package simulator

import (
	"github.com/aslik04/junction-modelling/element"

	"github.com/samber/lo"
)

// laneSet 路口所有车道，按进口道和车道编号索引
type laneSet [4][]*element.LaneQueue

func newLaneSet(numLanes int) laneSet {
	var ls laneSet
	for _, d := range element.Directions {
		ls[d] = make([]*element.LaneQueue, numLanes)
		for i := 0; i < numLanes; i++ {
			ls[d][i] = element.NewLaneQueue(d, i)
		}
	}
	return ls
}

// processVehicles 推进所有车道内的车辆，返回本步驶出的车辆
func processVehicles(ls laneSet, now, dt, gap float64, gate element.GateFunc) []*element.Vehicle {
	var exited []*element.Vehicle
	for _, d := range element.Directions {
		for _, q := range ls[d] {
			exited = append(exited, q.Advance(now, dt, gate, gap)...)
		}
	}
	return exited
}

func (ls laneSet) countGroup(g element.Group, count func(q *element.LaneQueue) int) int {
	total := 0
	for _, d := range g.Directions() {
		total += lo.SumBy(ls[d], count)
	}
	return total
}

// WaitingMain 实现 control.QueueObserver
func (ls laneSet) WaitingMain(g element.Group) int {
	return ls.countGroup(g, func(q *element.LaneQueue) int {
		return q.WaitingCount(element.TurnForward, element.TurnLeft)
	})
}

// WaitingRight 实现 control.QueueObserver
func (ls laneSet) WaitingRight(g element.Group) int {
	return ls.countGroup(g, func(q *element.LaneQueue) int {
		return q.WaitingCount(element.TurnRight)
	})
}

// QueuedRight 实现 control.QueueObserver
func (ls laneSet) QueuedRight(g element.Group) int {
	return ls.countGroup(g, func(q *element.LaneQueue) int {
		return q.QueuedTurnCount(element.TurnRight)
	})
}

// Active 返回路口内的车辆总数
func (ls laneSet) Active() int {
	total := 0
	for _, qs := range ls {
		total += lo.SumBy(qs, func(q *element.LaneQueue) int { return q.Len() })
	}
	return total
}

// Queued 返回处于排队状态的车辆总数
func (ls laneSet) Queued() int {
	total := 0
	for _, qs := range ls {
		total += lo.SumBy(qs, func(q *element.LaneQueue) int { return q.QueuedCount() })
	}
	return total
}
