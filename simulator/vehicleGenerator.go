package simulator

import (
	"fmt"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ArrivalGenerator 按每小时到达率为各进口道、各转向生成车辆
type ArrivalGenerator struct {
	model  string
	dt     float64
	layout *element.Layout
	speed  float64
	length float64
	gap    float64

	rates    [4][3]float64 // 辆/小时
	expected [4][3]float64 // 累积的小数期望
	pending  [4][3]int     // 等待生成的车辆数
	deferred [4][3]int     // pending 中已计入推迟数的车辆
	poisson  [4][3]*distuv.Poisson

	forwardLanes  []int
	forwardCursor [4]int
	nextID        int64
}

// NewArrivalGenerator 创建到达生成器，seed 只影响泊松模型
func NewArrivalGenerator(cfg *config.Config, layout *element.Layout, seed uint64) *ArrivalGenerator {
	a := &ArrivalGenerator{
		model:        cfg.Simulation.ArrivalModel,
		dt:           cfg.Simulation.TickSeconds,
		layout:       layout,
		speed:        cfg.Junction.VehicleSpeed,
		length:       cfg.Junction.VehicleLength,
		gap:          cfg.Junction.SafeGap,
		forwardLanes: layout.ForwardLanes(),
	}

	src := rand.NewSource(seed)
	for _, d := range element.Directions {
		r := cfg.Traffic.Rates(d.String())
		a.rates[d] = [3]float64{r.Forward, r.Left, r.Right}
		for _, t := range element.TurnTypes {
			if a.model == config.ArrivalPoisson && a.rates[d][t] > 0 {
				a.poisson[d][t] = &distuv.Poisson{Lambda: a.rates[d][t] * a.dt / 3600, Src: src}
			}
		}
	}
	return a
}

// SpawnResult 一个时间步内的生成结果
type SpawnResult struct {
	Spawned  []*element.Vehicle
	Deferred [4]int // 本步新增的推迟车辆数，每辆车只在第一次推迟时计入
}

// Spawn 累积本步到达并尝试在对应车道入口生成车辆
// 入口被占用时车辆保留到下一步，不视为错误
func (a *ArrivalGenerator) Spawn(now float64, lanes [4][]*element.LaneQueue) SpawnResult {
	var res SpawnResult
	for _, d := range element.Directions {
		for _, t := range element.TurnTypes {
			a.accumulate(d, t)

			for a.pending[d][t] > 0 {
				q := a.pickLane(d, t, lanes[d])
				if q == nil {
					break
				}
				a.nextID++
				v := element.NewVehicle(a.nextID, a.layout, d, q.Lane(), t, a.speed, a.length, now)
				q.Push(v, a.gap)
				a.pending[d][t]--
				// 先到的车辆先生成，已推迟过的车辆排在前面
				a.deferred[d][t] = max(a.deferred[d][t]-1, 0)
				res.Spawned = append(res.Spawned, v)
			}
			if p := a.pending[d][t]; p > a.deferred[d][t] {
				res.Deferred[d] += p - a.deferred[d][t]
				a.deferred[d][t] = p
			}
		}
	}
	return res
}

func (a *ArrivalGenerator) accumulate(d element.Direction, t element.TurnType) {
	if a.rates[d][t] <= 0 {
		return
	}
	switch a.model {
	case config.ArrivalPoisson:
		a.pending[d][t] += int(a.poisson[d][t].Rand())
	case config.ArrivalAccumulator:
		a.expected[d][t] += a.rates[d][t] * a.dt / 3600
		for a.expected[d][t] >= 1 {
			a.expected[d][t]--
			a.pending[d][t]++
		}
	default:
		panic(fmt.Sprintf("unknown arrival model %q", a.model))
	}
}

// pickLane 返回可以生成车辆的车道，没有可用车道时返回 nil
// 直行车辆在可用车道间轮流分配
func (a *ArrivalGenerator) pickLane(d element.Direction, t element.TurnType, lanes []*element.LaneQueue) *element.LaneQueue {
	if t != element.TurnForward {
		q := lanes[a.layout.LaneFor(t)]
		if q.CanEnter(a.gap) {
			return q
		}
		return nil
	}

	n := len(a.forwardLanes)
	for i := 0; i < n; i++ {
		idx := (a.forwardCursor[d] + i) % n
		q := lanes[a.forwardLanes[idx]]
		if q.CanEnter(a.gap) {
			a.forwardCursor[d] = (idx + 1) % n
			return q
		}
	}
	return nil
}

// Generated 返回已生成的车辆总数
func (a *ArrivalGenerator) Generated() int64 {
	return a.nextID
}

// Pending 返回指定进口道、转向等待生成的车辆数
func (a *ArrivalGenerator) Pending(d element.Direction, t element.TurnType) int {
	return a.pending[d][t]
}
