package control

import (
	"github.com/aslik04/junction-modelling/config"
)

// PedestrianLock 接受行人全红锁定请求
type PedestrianLock interface {
	RequestPedestrianLock() bool
}

// PedestrianScheduler 按固定周期发出行人过街请求
// 四个方向的人行横道同时启用和结束
type PedestrianScheduler struct {
	period  float64
	elapsed float64

	Requested int // 发出的请求数
	Coalesced int // 与未处理请求合并的请求数
}

// NewPedestrianScheduler 根据每小时过街次数创建调度器，频率为0时从不发出请求
func NewPedestrianScheduler(cfg config.PedestrianConfig) *PedestrianScheduler {
	s := &PedestrianScheduler{}
	if cfg.FrequencyPerHour > 0 {
		s.period = 3600 / cfg.FrequencyPerHour
	}
	return s
}

// Enabled 是否启用
func (s *PedestrianScheduler) Enabled() bool {
	return s.period > 0
}

// Period 返回请求间隔秒数
func (s *PedestrianScheduler) Period() float64 {
	return s.period
}

// Tick 推进 dt 秒，到期时向 lock 发出请求
func (s *PedestrianScheduler) Tick(dt float64, lock PedestrianLock) {
	if s.period <= 0 {
		return
	}
	s.elapsed += dt
	for s.elapsed+eps >= s.period {
		s.elapsed -= s.period
		s.Requested++
		if !lock.RequestPedestrianLock() {
			s.Coalesced++
		}
	}
}
