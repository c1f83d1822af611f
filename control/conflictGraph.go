package control

import (
	"fmt"

	"github.com/aslik04/junction-modelling/element"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// pedestrianNode 行人过街在冲突图中的节点编号，车辆 movement 占用 [0,12)
const pedestrianNode int64 = 100

// ConflictGraph 交通流冲突图，节点为 movement，边表示两个 movement 不能同时放行
type ConflictGraph struct {
	g *simple.UndirectedGraph
}

func movementNode(m element.Movement) graph.Node {
	return simple.Node(m.Index())
}

// NewConflictGraph 构建四岔路口(靠左行驶)的冲突图
func NewConflictGraph() *ConflictGraph {
	g := simple.NewUndirectedGraph()
	var all []element.Movement
	for _, d := range element.Directions {
		for _, t := range element.TurnTypes {
			m := element.Movement{Direction: d, Turn: t}
			all = append(all, m)
			g.AddNode(movementNode(m))
		}
	}
	g.AddNode(simple.Node(pedestrianNode))

	for i, a := range all {
		// 行人过街与所有车辆冲突
		g.SetEdge(g.NewEdge(simple.Node(pedestrianNode), movementNode(a)))

		for _, b := range all[i+1:] {
			if conflicting(a, b) {
				g.SetEdge(g.NewEdge(movementNode(a), movementNode(b)))
			}
		}
	}
	return &ConflictGraph{g: g}
}

// conflicting 判断两个不同进口道的 movement 是否冲突
func conflicting(a, b element.Movement) bool {
	if a.Direction == b.Direction {
		return false
	}
	// 南北与东西方向的车流全部交叉
	if a.Direction.Group() != b.Direction.Group() {
		return true
	}
	// 对向：右转穿过对向直行，并与对向左转汇入同一出口道
	for _, pair := range [][2]element.Movement{{a, b}, {b, a}} {
		if pair[0].Turn == element.TurnRight && pair[1].Turn != element.TurnRight {
			return true
		}
	}
	return false
}

// Conflicts 判断两个 movement 是否冲突
func (c *ConflictGraph) Conflicts(a, b element.Movement) bool {
	return c.g.HasEdgeBetween(int64(a.Index()), int64(b.Index()))
}

// ValidateGreenSet 检查一组同时放行的 movement 两两不冲突
// pedestrian 为 true 时表示该相位同时放行行人
func (c *ConflictGraph) ValidateGreenSet(movements []element.Movement, pedestrian bool) error {
	for i, a := range movements {
		if pedestrian {
			return fmt.Errorf("movement %s released together with pedestrian crossing", a)
		}
		for _, b := range movements[i+1:] {
			if c.Conflicts(a, b) {
				return fmt.Errorf("conflicting movements %s and %s released together", a, b)
			}
		}
	}
	return nil
}
