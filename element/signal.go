package element

// MainSignal 主信号灯的三个灯色
// 红灯与黄灯同时亮表示即将转绿
type MainSignal struct {
	Red   bool `json:"red"`
	Amber bool `json:"amber"`
	Green bool `json:"green"`
}

var (
	SignalRed      = MainSignal{Red: true}
	SignalRedAmber = MainSignal{Red: true, Amber: true}
	SignalGreen    = MainSignal{Green: true}
	SignalAmber    = MainSignal{Amber: true}
)

// DirectionSignals 一个进口道上所有信号灯的状态
type DirectionSignals struct {
	Main       MainSignal `json:"mainSignal"`
	RightArrow bool       `json:"rightTurnSignal"`
	Pedestrian bool       `json:"pedestrianSignal"`
}

// SignalState 四个进口道的信号灯状态
// 值类型，复制后互不影响
type SignalState [4]DirectionSignals

// AllRedSignals 返回所有车辆信号为红灯的状态
func AllRedSignals(pedestrian bool) SignalState {
	var s SignalState
	for i := range s {
		s[i] = DirectionSignals{Main: SignalRed, Pedestrian: pedestrian}
	}
	return s
}

// For 返回指定进口道的信号状态
func (s SignalState) For(d Direction) DirectionSignals {
	return s[d]
}

// Allows 判断指定进口道的指定转向当前是否放行
func (s SignalState) Allows(d Direction, turn TurnType) bool {
	if turn.UsesMainSignal() {
		return s[d].Main.Green
	}
	return s[d].RightArrow
}

// AnyVehicleGreen 是否有任意车辆信号放行
func (s SignalState) AnyVehicleGreen() bool {
	for _, ds := range s {
		if ds.Main.Green || ds.RightArrow {
			return true
		}
	}
	return false
}
