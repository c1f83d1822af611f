package element

import (
	"fmt"
	"math"
)

// Direction 表示车辆驶入路口的进口道方向
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions 按固定顺序列出四个进口道，遍历时统一使用此顺序保证确定性
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// MarshalText 以名称编码，JSON 中输出 "north" 等字符串
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Group 返回该方向所属的方向组
func (d Direction) Group() Group {
	if d == North || d == South {
		return Vertical
	}
	return Horizontal
}

// Opposite 返回对向进口道
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Heading 返回从该进口道驶入的车辆行驶朝向
// 0 表示向北(屏幕上方)，顺时针为正
func (d Direction) Heading() float64 {
	switch d {
	case North:
		return math.Pi // 由北向南
	case East:
		return -math.Pi / 2 // 由东向西
	case South:
		return 0
	case West:
		return math.Pi / 2
	default:
		panic(fmt.Sprintf("unknown direction %d", int(d)))
	}
}

// ExitArm 返回指定转向离开路口时使用的出口道
// 靠左行驶：左转进入顺时针下一个进口道方向，右转进入逆时针下一个
func (d Direction) ExitArm(turn TurnType) Direction {
	switch turn {
	case TurnForward:
		return (d + 2) % 4
	case TurnLeft:
		return (d + 1) % 4
	case TurnRight:
		return (d + 3) % 4
	default:
		panic(fmt.Sprintf("unknown turn type %d", int(turn)))
	}
}

// TurnType 表示车辆的转向
type TurnType int

const (
	TurnForward TurnType = iota
	TurnLeft
	TurnRight
)

// TurnTypes 按固定顺序列出所有转向
var TurnTypes = [3]TurnType{TurnForward, TurnLeft, TurnRight}

func (t TurnType) String() string {
	switch t {
	case TurnForward:
		return "forward"
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	default:
		return fmt.Sprintf("TurnType(%d)", int(t))
	}
}

func (t TurnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UsesMainSignal 直行和左转共用主信号灯，右转使用右转箭头灯
func (t TurnType) UsesMainSignal() bool {
	return t != TurnRight
}

// Group 表示共享同一信号相位的一对对向进口道
type Group int

const (
	Vertical   Group = iota // 南北
	Horizontal              // 东西
)

func (g Group) String() string {
	switch g {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("Group(%d)", int(g))
	}
}

// Directions 返回该方向组包含的两个进口道
func (g Group) Directions() [2]Direction {
	if g == Vertical {
		return [2]Direction{North, South}
	}
	return [2]Direction{East, West}
}

// Other 返回另一个方向组
func (g Group) Other() Group {
	if g == Vertical {
		return Horizontal
	}
	return Vertical
}

// Movement 表示一个进口道上的一种转向
type Movement struct {
	Direction Direction
	Turn      TurnType
}

func (m Movement) String() string {
	return m.Direction.String() + "-" + m.Turn.String()
}

// Index 返回 movement 在 [0,12) 内的编号
func (m Movement) Index() int {
	return int(m.Direction)*len(TurnTypes) + int(m.Turn)
}

// normalizeAngle 将角度规范到 (-π, π]
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
