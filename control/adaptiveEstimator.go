package control

import (
	"fmt"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"

	"github.com/samber/lo"
)

// SubSignal 方向组内的子信号
type SubSignal int

const (
	SubMain  SubSignal = iota // 直行与左转
	SubRight                  // 右转箭头
)

func (s SubSignal) String() string {
	if s == SubRight {
		return "right"
	}
	return "main"
}

// AdaptiveEstimator 根据平滑后的排队长度估计绿灯时长
//
//	Q = α·obs + (1-α)·Q
//	green = min + (max-min)·Q/(Q+k)
type AdaptiveEstimator struct {
	minGreen float64
	maxGreen float64
	k        float64
	alpha    float64
	smoothed [2][2]float64 // [Group][SubSignal]
}

// NewAdaptiveEstimator 创建估计器，所有平滑值初始为0
func NewAdaptiveEstimator(cfg config.AdaptiveConfig) *AdaptiveEstimator {
	if cfg.MinGreen <= 0 || cfg.MaxGreen < cfg.MinGreen || cfg.K <= 0 || cfg.Alpha <= 0 || cfg.Alpha > 1 {
		panic(fmt.Sprintf("invalid adaptive parameters %+v", cfg))
	}
	return &AdaptiveEstimator{
		minGreen: cfg.MinGreen,
		maxGreen: cfg.MaxGreen,
		k:        cfg.K,
		alpha:    cfg.Alpha,
	}
}

// GreenFor 返回平滑排队长度为 q 时的绿灯时长
func (e *AdaptiveEstimator) GreenFor(q float64) float64 {
	if q < 0 {
		panic(fmt.Sprintf("negative queue length %f", q))
	}
	green := e.minGreen + (e.maxGreen-e.minGreen)*q/(q+e.k)
	// 对 q >= 0 公式值必在区间内，NaN 也在这里拦下
	if !(green >= e.minGreen-eps && green <= e.maxGreen+eps) {
		panic(fmt.Sprintf("green %f outside [%f,%f] for queue %f", green, e.minGreen, e.maxGreen, q))
	}
	// 只消除浮点舍入误差
	return lo.Clamp(green, e.minGreen, e.maxGreen)
}

// Green 返回当前平滑值对应的绿灯时长，不更新平滑状态
func (e *AdaptiveEstimator) Green(g element.Group, s SubSignal) float64 {
	return e.GreenFor(e.smoothed[g][s])
}

// Observe 在相位开始时记录一次观测排队长度，更新平滑值并返回本相位绿灯时长
func (e *AdaptiveEstimator) Observe(g element.Group, s SubSignal, observed int) float64 {
	if observed < 0 {
		panic(fmt.Sprintf("negative queue length %d", observed))
	}
	e.smoothed[g][s] = e.alpha*float64(observed) + (1-e.alpha)*e.smoothed[g][s]
	return e.Green(g, s)
}

// Smoothed 返回当前平滑排队长度
func (e *AdaptiveEstimator) Smoothed(g element.Group, s SubSignal) float64 {
	return e.smoothed[g][s]
}
