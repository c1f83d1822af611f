package config

import (
	"errors"
	"fmt"
)

const (
	MinLanes = 1
	MaxLanes = 5
)

// ValidationError 描述一个非法的配置项
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AxisGreenBudget 返回每个方向组(南北或东西)每小时可分配的绿灯秒数
// 半小时减去每个周期内的过渡时间：主相位与右转相位前后各一个黄灯，以及一个全红
func AxisGreenBudget(cyclesPerHour float64, timing TimingConfig) float64 {
	overhead := 4*timing.AmberSeconds + timing.AllRedSeconds
	return 1800 - cyclesPerHour*overhead
}

// Validate 检查配置是否合法，返回所有违规项的合并错误
// 不会修改任何字段
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	// 模拟时钟
	if c.Simulation.TickSeconds <= 0 {
		add("simulation.tickSeconds", "must be positive, got %g", c.Simulation.TickSeconds)
	}
	if c.Simulation.DurationSeconds < 0 {
		add("simulation.durationSeconds", "must be non-negative, got %g", c.Simulation.DurationSeconds)
	}
	if c.Simulation.SpeedMultiplier <= 0 {
		add("simulation.speedMultiplier", "must be positive, got %g", c.Simulation.SpeedMultiplier)
	}
	switch c.Simulation.ArrivalModel {
	case ArrivalAccumulator, ArrivalPoisson:
	default:
		add("simulation.arrivalModel", "unknown model %q", c.Simulation.ArrivalModel)
	}
	switch c.Simulation.RightTurnPolicy {
	case RightTurnSkipWhenEmpty, RightTurnAlways:
	default:
		add("simulation.rightTurnPolicy", "unknown policy %q", c.Simulation.RightTurnPolicy)
	}

	// 路口几何
	j := c.Junction
	if j.Lanes < MinLanes || j.Lanes > MaxLanes {
		add("junction.lanes", "must be within [%d,%d], got %d", MinLanes, MaxLanes, j.Lanes)
	}
	if j.ApproachLength <= 0 {
		add("junction.approachLength", "must be positive, got %g", j.ApproachLength)
	}
	if j.ExitLength <= 0 {
		add("junction.exitLength", "must be positive, got %g", j.ExitLength)
	}
	if j.LaneWidth <= 0 {
		add("junction.laneWidth", "must be positive, got %g", j.LaneWidth)
	}
	if j.VehicleLength <= 0 {
		add("junction.vehicleLength", "must be positive, got %g", j.VehicleLength)
	}
	if j.SafeGap < 0 {
		add("junction.safeGap", "must be non-negative, got %g", j.SafeGap)
	}
	if j.VehicleSpeed <= 0 {
		add("junction.vehicleSpeed", "must be positive, got %g", j.VehicleSpeed)
	}
	if j.ApproachLength > 0 && j.VehicleLength > 0 && j.ApproachLength < j.VehicleLength+j.SafeGap {
		add("junction.approachLength", "%g is shorter than one vehicle plus safe gap", j.ApproachLength)
	}

	// 到达率
	for _, d := range []string{North, East, South, West} {
		r := c.Traffic.Rates(d)
		if r.Forward < 0 {
			add("traffic."+d+".forward", "must be non-negative, got %g", r.Forward)
		}
		if r.Left < 0 {
			add("traffic."+d+".left", "must be non-negative, got %g", r.Left)
		}
		if r.Right < 0 {
			add("traffic."+d+".right", "must be non-negative, got %g", r.Right)
		}
	}

	// 行人
	if c.Pedestrian.FrequencyPerHour < 0 {
		add("pedestrian.frequencyPerHour", "must be non-negative, got %g", c.Pedestrian.FrequencyPerHour)
	}
	if c.Pedestrian.DurationSeconds < 0 {
		add("pedestrian.durationSeconds", "must be non-negative, got %g", c.Pedestrian.DurationSeconds)
	}
	if c.Pedestrian.FrequencyPerHour > 0 && c.Pedestrian.DurationSeconds <= 0 {
		add("pedestrian.durationSeconds", "must be positive when crossings are enabled")
	}

	// 过渡相位
	if c.Timing.AmberSeconds < 0 {
		add("timing.amberSeconds", "must be non-negative, got %g", c.Timing.AmberSeconds)
	}
	if c.Timing.AllRedSeconds <= 0 {
		add("timing.allRedSeconds", "must be positive, got %g", c.Timing.AllRedSeconds)
	}

	// 自适应控制
	a := c.Adaptive
	if a.MinGreen <= 0 {
		add("adaptive.minGreen", "must be positive, got %g", a.MinGreen)
	}
	if a.MaxGreen < a.MinGreen {
		add("adaptive.maxGreen", "%g is below minGreen %g", a.MaxGreen, a.MinGreen)
	}
	if a.K <= 0 {
		add("adaptive.k", "must be positive, got %g", a.K)
	}
	if a.Alpha <= 0 || a.Alpha > 1 {
		add("adaptive.alpha", "must be within (0,1], got %g", a.Alpha)
	}

	// 手动相位
	if c.Manual.Enabled {
		errs = append(errs, c.Manual.validate(c.Timing, c.Traffic)...)
	}

	// 日志
	if c.Logging.StatusIntervalSeconds < 0 {
		add("logging.statusIntervalSeconds", "must be non-negative, got %g", c.Logging.StatusIntervalSeconds)
	}
	if c.Logging.TraceIntervalSeconds < 0 {
		add("logging.traceIntervalSeconds", "must be non-negative, got %g", c.Logging.TraceIntervalSeconds)
	}

	// 重复运行
	if c.Replication.Runs < 0 {
		add("replication.runs", "must be non-negative, got %d", c.Replication.Runs)
	}
	if c.Replication.Workers < 0 {
		add("replication.workers", "must be non-negative, got %d", c.Replication.Workers)
	}

	return errors.Join(errs...)
}

func (m ManualConfig) validate(timing TimingConfig, traffic TrafficConfig) []error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if m.CyclesPerHour <= 0 {
		add("manual.cyclesPerHour", "must be positive, got %g", m.CyclesPerHour)
		return errs
	}
	if m.VerticalMainGreen <= 0 {
		add("manual.verticalMainGreen", "must be positive, got %g", m.VerticalMainGreen)
	}
	if m.HorizontalMainGreen <= 0 {
		add("manual.horizontalMainGreen", "must be positive, got %g", m.HorizontalMainGreen)
	}
	if m.VerticalRightGreen < 0 {
		add("manual.verticalRightGreen", "must be non-negative, got %g", m.VerticalRightGreen)
	}
	if m.HorizontalRightGreen < 0 {
		add("manual.horizontalRightGreen", "must be non-negative, got %g", m.HorizontalRightGreen)
	}
	// 有右转需求的相位组必须分配右转绿灯
	if m.VerticalRightGreen == 0 && traffic.North.Right+traffic.South.Right > 0 {
		add("manual.verticalRightGreen", "must be positive when north/south right-turn rate is %g veh/h",
			traffic.North.Right+traffic.South.Right)
	}
	if m.HorizontalRightGreen == 0 && traffic.East.Right+traffic.West.Right > 0 {
		add("manual.horizontalRightGreen", "must be positive when east/west right-turn rate is %g veh/h",
			traffic.East.Right+traffic.West.Right)
	}

	budget := AxisGreenBudget(m.CyclesPerHour, timing)
	if budget <= 0 {
		add("manual.cyclesPerHour", "%g cycles per hour leave no green time after transitions", m.CyclesPerHour)
		return errs
	}
	if total := m.VerticalMainGreen + m.VerticalRightGreen; total > budget {
		add("manual.verticalMainGreen+verticalRightGreen", "%g s/h exceeds the per-axis budget of %g s/h", total, budget)
	}
	if total := m.HorizontalMainGreen + m.HorizontalRightGreen; total > budget {
		add("manual.horizontalMainGreen+horizontalRightGreen", "%g s/h exceeds the per-axis budget of %g s/h", total, budget)
	}
	return errs
}
