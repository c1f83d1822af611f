package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// 方向键，与 element.Direction 的字符串形式一致
const (
	North = "north"
	East  = "east"
	South = "south"
	West  = "west"
)

// 到达模型
const (
	ArrivalAccumulator = "accumulator" // 累积小数期望，超过1时生成
	ArrivalPoisson     = "poisson"     // 每个时间步按泊松分布抽样
)

// 右转相位策略
const (
	RightTurnSkipWhenEmpty = "skip-when-empty" // 主相位结束时没有排队右转车辆则跳过
	RightTurnAlways        = "always"          // 无论是否有车都执行右转相位
)

// Config 保存所有配置项的顶级结构
type Config struct {
	Simulation  SimulationConfig  `json:"simulation"`
	Junction    JunctionConfig    `json:"junction"`
	Traffic     TrafficConfig     `json:"traffic"`
	Pedestrian  PedestrianConfig  `json:"pedestrian"`
	Timing      TimingConfig      `json:"timing"`
	Adaptive    AdaptiveConfig    `json:"adaptive"`
	Manual      ManualConfig      `json:"manual"`
	Logging     LoggingConfig     `json:"logging"`
	Replication ReplicationConfig `json:"replication"`
}

// SimulationConfig 保存模拟时钟相关的配置项
type SimulationConfig struct {
	TickSeconds     float64 `json:"tickSeconds"`     // 每个时间步的模拟秒数
	DurationSeconds float64 `json:"durationSeconds"` // 批量模式下的模拟总时长
	SpeedMultiplier float64 `json:"speedMultiplier"` // 实时模式下的初始倍速
	Seed            uint64  `json:"seed"`
	ArrivalModel    string  `json:"arrivalModel"`
	RightTurnPolicy string  `json:"rightTurnPolicy"`
}

// JunctionConfig 保存路口几何与车辆参数
// 长度单位为米，速度单位为米/秒
type JunctionConfig struct {
	Lanes          int     `json:"lanes"`
	ApproachLength float64 `json:"approachLength"`
	ExitLength     float64 `json:"exitLength"`
	LaneWidth      float64 `json:"laneWidth"`
	VehicleLength  float64 `json:"vehicleLength"`
	SafeGap        float64 `json:"safeGap"`
	VehicleSpeed   float64 `json:"vehicleSpeed"`
}

// TurnRates 保存一个方向上各转向的到达率(辆/小时)
type TurnRates struct {
	Forward float64 `json:"forward"`
	Left    float64 `json:"left"`
	Right   float64 `json:"right"`
}

// Total 返回该方向的总到达率
func (r TurnRates) Total() float64 {
	return r.Forward + r.Left + r.Right
}

// TrafficConfig 保存四个方向的到达率
type TrafficConfig struct {
	North TurnRates `json:"north"`
	East  TurnRates `json:"east"`
	South TurnRates `json:"south"`
	West  TurnRates `json:"west"`
}

// Rates 按方向键返回到达率
func (t TrafficConfig) Rates(direction string) TurnRates {
	switch direction {
	case North:
		return t.North
	case East:
		return t.East
	case South:
		return t.South
	case West:
		return t.West
	default:
		panic(fmt.Sprintf("unknown direction %q", direction))
	}
}

// PedestrianConfig 保存行人过街参数
type PedestrianConfig struct {
	FrequencyPerHour float64 `json:"frequencyPerHour"`
	DurationSeconds  float64 `json:"durationSeconds"`
}

// TimingConfig 保存过渡相位时长
type TimingConfig struct {
	AmberSeconds  float64 `json:"amberSeconds"`
	AllRedSeconds float64 `json:"allRedSeconds"`
}

// AdaptiveConfig 保存自适应绿灯时长估计参数
type AdaptiveConfig struct {
	MinGreen float64 `json:"minGreen"`
	MaxGreen float64 `json:"maxGreen"`
	K        float64 `json:"k"`
	Alpha    float64 `json:"alpha"`
}

// ManualConfig 保存用户自定义的固定周期参数
// 各绿灯时长为每小时分配给该相位的绿灯秒数
type ManualConfig struct {
	Enabled              bool    `json:"enabled"`
	CyclesPerHour        float64 `json:"cyclesPerHour"`
	VerticalMainGreen    float64 `json:"verticalMainGreen"`
	VerticalRightGreen   float64 `json:"verticalRightGreen"`
	HorizontalMainGreen  float64 `json:"horizontalMainGreen"`
	HorizontalRightGreen float64 `json:"horizontalRightGreen"`
}

// PhaseSeconds 将每小时绿灯秒数换算为单个周期内的相位时长
func (m ManualConfig) PhaseSeconds(greenPerHour float64) float64 {
	if m.CyclesPerHour <= 0 {
		return 0
	}
	return greenPerHour / m.CyclesPerHour
}

// LoggingConfig 保存日志与数据输出相关的配置项
type LoggingConfig struct {
	LogDir                string  `json:"logDir"`
	DataDir               string  `json:"dataDir"`
	StatusIntervalSeconds float64 `json:"statusIntervalSeconds"`
	TraceIntervalSeconds  float64 `json:"traceIntervalSeconds"` // 车辆轨迹采样间隔，0 表示不记录
}

// ReplicationConfig 保存多随机种子重复运行的参数
type ReplicationConfig struct {
	Runs    int `json:"runs"`
	Workers int `json:"workers"`
}

// Default 返回一份完整的默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.Junction.Lanes = 3
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads configuration from the specified JSON file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", filename, err)
	}

	// 在默认配置上解码，文件中显式写出的零值保持不变
	cfg := &Config{}
	applyDefaults(cfg)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}
	return cfg, nil
}

// applyDefaults 为零值的引擎参数填充默认值，只作用于尚未解码的配置
// 车道数、到达率、行人与手动相位等运行参数不设默认值，也不做任何修正
func applyDefaults(cfg *Config) {
	// 模拟时钟
	if cfg.Simulation.TickSeconds == 0 {
		cfg.Simulation.TickSeconds = 0.1
	}
	if cfg.Simulation.DurationSeconds == 0 {
		cfg.Simulation.DurationSeconds = 3600
	}
	if cfg.Simulation.SpeedMultiplier == 0 {
		cfg.Simulation.SpeedMultiplier = 1.0
	}
	if cfg.Simulation.ArrivalModel == "" {
		cfg.Simulation.ArrivalModel = ArrivalAccumulator
	}
	if cfg.Simulation.RightTurnPolicy == "" {
		cfg.Simulation.RightTurnPolicy = RightTurnSkipWhenEmpty
	}

	// 路口几何
	if cfg.Junction.ApproachLength == 0 {
		cfg.Junction.ApproachLength = 60
	}
	if cfg.Junction.ExitLength == 0 {
		cfg.Junction.ExitLength = 40
	}
	if cfg.Junction.LaneWidth == 0 {
		cfg.Junction.LaneWidth = 3.5
	}
	if cfg.Junction.VehicleLength == 0 {
		cfg.Junction.VehicleLength = 4.5
	}
	if cfg.Junction.SafeGap == 0 {
		cfg.Junction.SafeGap = 2.0
	}
	if cfg.Junction.VehicleSpeed == 0 {
		cfg.Junction.VehicleSpeed = 10.0
	}

	// 过渡相位
	if cfg.Timing.AmberSeconds == 0 {
		cfg.Timing.AmberSeconds = 1.0
	}
	if cfg.Timing.AllRedSeconds == 0 {
		cfg.Timing.AllRedSeconds = 1.0
	}

	// 自适应控制
	if cfg.Adaptive.MinGreen == 0 {
		cfg.Adaptive.MinGreen = 5
	}
	if cfg.Adaptive.MaxGreen == 0 {
		cfg.Adaptive.MaxGreen = 30
	}
	if cfg.Adaptive.K == 0 {
		cfg.Adaptive.K = 2.0
	}
	if cfg.Adaptive.Alpha == 0 {
		cfg.Adaptive.Alpha = 0.5
	}

	// 输出
	if cfg.Logging.LogDir == "" {
		cfg.Logging.LogDir = "./log"
	}
	if cfg.Logging.DataDir == "" {
		cfg.Logging.DataDir = "./data"
	}
	if cfg.Logging.StatusIntervalSeconds == 0 {
		cfg.Logging.StatusIntervalSeconds = 600
	}

	// 重复运行
	if cfg.Replication.Runs == 0 {
		cfg.Replication.Runs = 1
	}
}
