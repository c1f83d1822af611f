package simulator

import (
	"fmt"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"

	"github.com/samber/lo"
)

// 评分权重
const (
	WeightAvgWait  = 0.45
	WeightMaxWait  = 0.20
	WeightMaxQueue = 0.35
)

// DirectionStats 单个进口道的累积统计量，运行期间只增不减
type DirectionStats struct {
	TotalWait float64
	Count     int // 曾经排队并已驶出的车辆数
	MaxWait   float64
	MaxQueue  int
	Spawned   int
	Exited    int
	Deferred  int
}

// Trip 一辆已驶出车辆的行程记录
type Trip struct {
	ID         int64
	Direction  element.Direction
	Lane       int
	Turn       element.TurnType
	SpawnedAt  float64
	EnqueuedAt float64
	ExitedAt   float64
	Wait       float64
	Queued     bool
}

// MetricsAggregator 按进口道汇总等待时间与排队长度
type MetricsAggregator struct {
	stats [4]DirectionStats
	vph   [4]float64
	trips []Trip
}

// NewMetricsAggregator 创建统计器，vph 用于计算总评分
func NewMetricsAggregator(traffic config.TrafficConfig) *MetricsAggregator {
	m := &MetricsAggregator{}
	for _, d := range element.Directions {
		m.vph[d] = traffic.Rates(d.String()).Total()
	}
	return m
}

// RecordSpawn 记录生成的车辆
func (m *MetricsAggregator) RecordSpawn(vs []*element.Vehicle) {
	for _, v := range vs {
		m.stats[v.Direction].Spawned++
	}
}

// RecordDeferred 记录本步推迟生成的车辆数
func (m *MetricsAggregator) RecordDeferred(deferred [4]int) {
	for d, n := range deferred {
		if n < 0 {
			panic(fmt.Sprintf("negative deferred count %d", n))
		}
		m.stats[d].Deferred += n
	}
}

// RecordExit 记录驶出的车辆，曾经排队的车辆计入等待时间
func (m *MetricsAggregator) RecordExit(v *element.Vehicle) {
	if v.State != element.Exited {
		panic(fmt.Sprintf("vehicle %d recorded as exited in state %s", v.ID, v.State))
	}
	s := &m.stats[v.Direction]
	s.Exited++

	trip := Trip{
		ID:        v.ID,
		Direction: v.Direction,
		Lane:      v.Lane,
		Turn:      v.Turn(),
		SpawnedAt: v.SpawnedAt,
		ExitedAt:  v.ExitedAt,
		Queued:    v.WasQueued(),
	}
	if v.WasQueued() {
		wait := v.Wait()
		if wait < 0 {
			panic(fmt.Sprintf("vehicle %d negative wait %f", v.ID, wait))
		}
		s.TotalWait += wait
		s.Count++
		s.MaxWait = max(s.MaxWait, wait)
		trip.EnqueuedAt = v.EnqueuedAt
		trip.Wait = wait
	}
	m.trips = append(m.trips, trip)
}

// Sample 按进口道统计当前排队车辆数并更新最大排队长度
func (m *MetricsAggregator) Sample(lanes [4][]*element.LaneQueue) {
	for _, d := range element.Directions {
		queued := lo.SumBy(lanes[d], func(q *element.LaneQueue) int { return q.QueuedCount() })
		if queued < 0 {
			panic(fmt.Sprintf("negative queue length %d for %s", queued, d))
		}
		m.stats[d].MaxQueue = max(m.stats[d].MaxQueue, queued)
	}
}

// Stats 返回指定进口道的统计量副本
func (m *MetricsAggregator) Stats(d element.Direction) DirectionStats {
	return m.stats[d]
}

// Trips 返回行程记录副本
func (m *MetricsAggregator) Trips() []Trip {
	result := make([]Trip, len(m.trips))
	copy(result, m.trips)
	return result
}

// DirectionReport 单个进口道的运行结果
type DirectionReport struct {
	Direction element.Direction
	VPH       float64
	AvgWait   float64
	MaxWait   float64
	MaxQueue  int
	Score     float64
	Waited    int
	Spawned   int
	Exited    int
	Deferred  int
}

// Report 一次运行的结果，Partial 为 true 时表示运行被中止，不能作为最终成绩
type Report struct {
	RunID      string
	Mode       string
	Seed       uint64
	Ticks      int
	Elapsed    float64
	Directions [4]DirectionReport
	Aggregate  float64
	Partial    bool
}

// Score 计算单个进口道的加权评分
func Score(avgWait, maxWait float64, maxQueue int) float64 {
	return WeightAvgWait*avgWait + WeightMaxWait*maxWait + WeightMaxQueue*float64(maxQueue)
}

// Report 生成运行结果
// 总评分为各进口道评分除以该进口道到达率之和，到达率为0的进口道不参与
func (m *MetricsAggregator) Report(partial bool) Report {
	r := Report{Partial: partial}
	for _, d := range element.Directions {
		s := m.stats[d]
		dr := DirectionReport{
			Direction: d,
			VPH:       m.vph[d],
			MaxWait:   s.MaxWait,
			MaxQueue:  s.MaxQueue,
			Waited:    s.Count,
			Spawned:   s.Spawned,
			Exited:    s.Exited,
			Deferred:  s.Deferred,
		}
		if s.Count > 0 {
			dr.AvgWait = s.TotalWait / float64(s.Count)
		}
		dr.Score = Score(dr.AvgWait, dr.MaxWait, dr.MaxQueue)
		if dr.VPH > 0 {
			r.Aggregate += dr.Score / dr.VPH
		}
		r.Directions[d] = dr
	}
	return r
}

// ScoreDifference 返回自适应控制与手动控制总评分之差，负值表示自适应控制更好
func ScoreDifference(user, adaptive Report) float64 {
	return adaptive.Aggregate - user.Aggregate
}
