package element

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
)

// PointKind 路口图中节点的类型
type PointKind int

const (
	PointEntry    PointKind = iota // 进口道起点
	PointStopLine                  // 停车线
	PointBoxExit                   // 直行驶出路口中心区域的位置
	PointPivot                     // 左转转向点
	PointCorner                    // 右转斜穿后的转角点
	PointArmExit                   // 出口道终点
)

// Point 路口图中的一个节点
type Point struct {
	Kind      PointKind
	Direction Direction
	Lane      int
}

// ID 实现 graph.Node
// 出口道终点只与方向有关，车道号固定为0
func (p Point) ID() int64 {
	return int64(p.Kind)*100 + int64(p.Direction)*10 + int64(p.Lane)
}

func (p Point) String() string {
	return fmt.Sprintf("point(%d,%s,%d)", p.Kind, p.Direction, p.Lane)
}

// SegmentKind 路段类型
type SegmentKind int

const (
	SegmentApproach SegmentKind = iota // 进口道，终点为停车线
	SegmentTransit                     // 直行穿过路口
	SegmentPivot                       // 左转前在路口内行驶的一小段，末端转向
	SegmentDiagonal                    // 右转斜穿路口
	SegmentExit                        // 出口道
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentApproach:
		return "approach"
	case SegmentTransit:
		return "transit"
	case SegmentPivot:
		return "pivot"
	case SegmentDiagonal:
		return "diagonal"
	case SegmentExit:
		return "exit"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Link 表示路口图中连接两个节点的一段路径，长度即权重
type Link struct {
	F, T    Point
	Kind    SegmentKind
	Length  float64 // 米
	Heading float64 // 弧度，0 向北，顺时针为正
}

// NewLink 创建一段路径
func NewLink(from, to Point, kind SegmentKind, length, heading float64) *Link {
	if length <= 0 {
		panic(fmt.Sprintf("link %v->%v length must be positive, got %f", from, to, length))
	}
	return &Link{F: from, T: to, Kind: kind, Length: length, Heading: normalizeAngle(heading)}
}

// From 实现 graph.Edge
func (l *Link) From() graph.Node { return l.F }

// To 实现 graph.Edge
func (l *Link) To() graph.Node { return l.T }

// ReversedEdge 实现 graph.Edge
func (l *Link) ReversedEdge() graph.Edge {
	return &Link{F: l.T, T: l.F, Kind: l.Kind, Length: l.Length, Heading: normalizeAngle(l.Heading + math.Pi)}
}

// Weight 实现 graph.WeightedEdge
func (l *Link) Weight() float64 { return l.Length }
