package simulator

import (
	"fmt"
	"sync"

	"github.com/aslik04/junction-modelling/control"
	"github.com/aslik04/junction-modelling/log"
)

// SystemState 缓存路口的汇总状态，供周期性日志和外部查询使用
type SystemState struct {
	numVehicleGenerated int64
	numVehiclesActive   int
	numVehiclesQueued   int
	numVehicleCompleted int64
	phase               control.Phase
	elapsed             float64
	mu                  sync.RWMutex
}

// NewSystemState 创建一个新的系统状态对象
func NewSystemState() *SystemState {
	return &SystemState{}
}

// Update 在时间步结束时更新系统状态
func (s *SystemState) Update(ls laneSet, generated, completed int64, phase control.Phase, elapsed float64) {
	active, queued := ls.Active(), ls.Queued()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.numVehicleGenerated = generated
	s.numVehiclesActive = active
	s.numVehiclesQueued = queued
	s.numVehicleCompleted = completed
	s.phase = phase
	s.elapsed = elapsed
}

// LogStatus 输出系统状态日志
func (s *SystemState) LogStatus(runID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log.WriteLog(fmt.Sprintf("Run: %s, Time: %s, Phase: %s, Generated: %d, Active: %d, Queued: %d, Completed: %d",
		runID, log.ConvertTimeStepToTime(s.elapsed), s.phase,
		s.numVehicleGenerated, s.numVehiclesActive, s.numVehiclesQueued, s.numVehicleCompleted))
}

// GetVehicleCounts 返回各类车辆计数
// 返回值依次为: 生成的车辆总数、路口内车辆数、排队车辆数、已驶出车辆数
func (s *SystemState) GetVehicleCounts() (int64, int, int, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numVehicleGenerated, s.numVehiclesActive, s.numVehiclesQueued, s.numVehicleCompleted
}

// GetPhase 返回最近一次更新时的相位
func (s *SystemState) GetPhase() control.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}
