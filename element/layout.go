package element

import (
	"fmt"
	"math"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/utils"

	"gonum.org/v1/gonum/graph/simple"
)

// Segment 路线上的一段，Start 为该段起点在路线上的累计距离
type Segment struct {
	Kind    SegmentKind
	Start   float64
	Length  float64
	Heading float64
}

// End 返回该段终点在路线上的累计距离
func (s Segment) End() float64 {
	return s.Start + s.Length
}

// Route 车辆从进口道起点到出口道终点的固定路线
type Route struct {
	Direction Direction
	Lane      int
	Turn      TurnType
	Segments  []Segment
	length    float64
}

// StopLine 返回停车线在路线上的位置，即进口道长度
func (r *Route) StopLine() float64 {
	return r.Segments[0].Length
}

// Length 返回路线总长度
func (r *Route) Length() float64 {
	return r.length
}

// SegmentAt 返回 progress 所在的路段下标
// progress 位于两段交界处时属于后一段，超过终点时返回最后一段
func (r *Route) SegmentAt(progress float64) int {
	for i := len(r.Segments) - 1; i > 0; i-- {
		if progress >= r.Segments[i].Start {
			return i
		}
	}
	return 0
}

// HeadingAt 返回车辆车头位于 progress 时的朝向
func (r *Route) HeadingAt(progress float64) float64 {
	return r.Segments[r.SegmentAt(progress)].Heading
}

type routeKey struct {
	direction Direction
	lane      int
	turn      TurnType
}

// Layout 单个四岔路口的几何结构
// 路口图为带权有向图，节点为进口道起点、停车线、转向点和出口道终点，每条路线是图上的最短路
type Layout struct {
	lanes          int
	approachLength float64
	exitLength     float64
	laneWidth      float64
	boxSize        float64

	graph  *simple.WeightedDirectedGraph
	routes map[routeKey]*Route
}

// NewLayout 根据路口配置构建路口图并预先计算所有路线
func NewLayout(cfg config.JunctionConfig) *Layout {
	if cfg.Lanes < config.MinLanes || cfg.Lanes > config.MaxLanes {
		panic(fmt.Sprintf("lanes must be within [%d,%d], got %d", config.MinLanes, config.MaxLanes, cfg.Lanes))
	}

	l := &Layout{
		lanes:          cfg.Lanes,
		approachLength: cfg.ApproachLength,
		exitLength:     cfg.ExitLength,
		laneWidth:      cfg.LaneWidth,
		boxSize:        2 * float64(cfg.Lanes) * cfg.LaneWidth,
		graph:          simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		routes:         make(map[routeKey]*Route),
	}
	l.buildGraph()
	l.buildRoutes()
	return l
}

func (l *Layout) buildGraph() {
	for _, d := range Directions {
		h := d.Heading()
		for lane := 0; lane < l.lanes; lane++ {
			entry := Point{Kind: PointEntry, Direction: d, Lane: lane}
			stop := Point{Kind: PointStopLine, Direction: d, Lane: lane}
			l.graph.SetWeightedEdge(NewLink(entry, stop, SegmentApproach, l.approachLength, h))

			// 直行，任意车道
			out := Point{Kind: PointBoxExit, Direction: d, Lane: lane}
			l.graph.SetWeightedEdge(NewLink(stop, out, SegmentTransit, l.boxSize, h))
			l.graph.SetWeightedEdge(NewLink(out, armExit(d.ExitArm(TurnForward)), SegmentExit, l.exitLength, h))

			// 左转只在最内侧车道，驶入路口一小段后原地转向
			if lane == 0 {
				pivot := Point{Kind: PointPivot, Direction: d, Lane: lane}
				l.graph.SetWeightedEdge(NewLink(stop, pivot, SegmentPivot, (float64(lane)+0.5)*l.laneWidth, h))
				l.graph.SetWeightedEdge(NewLink(pivot, armExit(d.ExitArm(TurnLeft)), SegmentExit, l.exitLength, h-math.Pi/2))
			}

			// 右转只在最外侧车道，斜穿路口后转入出口道
			if lane == l.lanes-1 {
				corner := Point{Kind: PointCorner, Direction: d, Lane: lane}
				l.graph.SetWeightedEdge(NewLink(stop, corner, SegmentDiagonal, l.boxSize/math.Sqrt2, h+math.Pi/4))
				l.graph.SetWeightedEdge(NewLink(corner, armExit(d.ExitArm(TurnRight)), SegmentExit, l.exitLength, h+math.Pi/2))
			}
		}
	}
}

func (l *Layout) buildRoutes() {
	for _, d := range Directions {
		for lane := 0; lane < l.lanes; lane++ {
			for _, turn := range TurnTypes {
				if !l.Permits(lane, turn) {
					continue
				}
				r, err := l.findRoute(d, lane, turn)
				if err != nil {
					panic(fmt.Sprintf("junction graph incomplete: %v", err))
				}
				l.routes[routeKey{d, lane, turn}] = r
			}
		}
	}
}

func (l *Layout) findRoute(d Direction, lane int, turn TurnType) (*Route, error) {
	origin := Point{Kind: PointEntry, Direction: d, Lane: lane}
	nodes, _, err := utils.ShortestPath(l.graph, origin, armExit(d.ExitArm(turn)))
	if err != nil {
		return nil, fmt.Errorf("route %s lane %d %s: %w", d, lane, turn, err)
	}
	edges, err := utils.PathEdges(l.graph, nodes)
	if err != nil {
		return nil, fmt.Errorf("route %s lane %d %s: %w", d, lane, turn, err)
	}

	r := &Route{Direction: d, Lane: lane, Turn: turn, Segments: make([]Segment, 0, len(edges))}
	for _, e := range edges {
		link := e.(*Link)
		r.Segments = append(r.Segments, Segment{
			Kind:    link.Kind,
			Start:   r.length,
			Length:  link.Length,
			Heading: link.Heading,
		})
		r.length += link.Length
	}
	return r, nil
}

func armExit(d Direction) Point {
	return Point{Kind: PointArmExit, Direction: d}
}

// Permits 判断该车道是否允许该转向
// 左转只能使用车道0，右转只能使用最后一条车道，直行不限
func (l *Layout) Permits(lane int, turn TurnType) bool {
	if lane < 0 || lane >= l.lanes {
		return false
	}
	switch turn {
	case TurnLeft:
		return lane == 0
	case TurnRight:
		return lane == l.lanes-1
	case TurnForward:
		return true
	default:
		return false
	}
}

// Route 返回指定进口道、车道和转向的路线
func (l *Layout) Route(d Direction, lane int, turn TurnType) *Route {
	r, ok := l.routes[routeKey{d, lane, turn}]
	if !ok {
		panic(fmt.Sprintf("no route for %s lane %d turning %s with %d lanes", d, lane, turn, l.lanes))
	}
	return r
}

// Lanes 返回每个进口道的车道数
func (l *Layout) Lanes() int {
	return l.lanes
}

// StopLine 返回停车线位置
func (l *Layout) StopLine() float64 {
	return l.approachLength
}

// BoxSize 返回路口中心区域边长
func (l *Layout) BoxSize() float64 {
	return l.boxSize
}

// ForwardLanes 返回直行车辆可以使用的车道
// 三车道及以上时使用中间车道，否则使用车道0
func (l *Layout) ForwardLanes() []int {
	if l.lanes <= 2 {
		return []int{0}
	}
	lanes := make([]int, 0, l.lanes-2)
	for i := 1; i < l.lanes-1; i++ {
		lanes = append(lanes, i)
	}
	return lanes
}

// LaneFor 返回左转或右转车辆的固定车道
func (l *Layout) LaneFor(turn TurnType) int {
	switch turn {
	case TurnLeft:
		return 0
	case TurnRight:
		return l.lanes - 1
	default:
		panic(fmt.Sprintf("turn %s has no fixed lane", turn))
	}
}
