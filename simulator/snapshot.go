package simulator

import (
	"sync"
	"sync/atomic"

	"github.com/aslik04/junction-modelling/control"
	"github.com/aslik04/junction-modelling/element"
)

// VehicleView 快照中的车辆信息
type VehicleView struct {
	ID        int64                `json:"id"`
	Direction element.Direction    `json:"direction"`
	Lane      int                  `json:"lane"`
	Turn      element.TurnType     `json:"turnType"`
	Progress  float64              `json:"pathProgress"`
	Heading   float64              `json:"heading"`
	State     element.VehicleState `json:"state"`
}

// Snapshot 每个时间步结束时发布的只读状态，发布后不再修改
type Snapshot struct {
	RunID    string              `json:"runId"`
	Tick     int                 `json:"tick"`
	Elapsed  float64             `json:"elapsed"`
	Phase    control.Phase       `json:"phase"`
	Speed    float64             `json:"speed"`
	Paused   bool                `json:"paused"`
	Signals  element.SignalState `json:"signals"`
	Vehicles []VehicleView       `json:"vehicles"`
}

func newSnapshot(runID string, tick int, elapsed float64, phase control.Phase, speed float64, paused bool,
	signals element.SignalState, lanes [4][]*element.LaneQueue) *Snapshot {
	n := 0
	for _, qs := range lanes {
		for _, q := range qs {
			n += q.Len()
		}
	}

	s := &Snapshot{
		RunID:    runID,
		Tick:     tick,
		Elapsed:  elapsed,
		Phase:    phase,
		Speed:    speed,
		Paused:   paused,
		Signals:  signals,
		Vehicles: make([]VehicleView, 0, n),
	}
	for _, qs := range lanes {
		for _, q := range qs {
			for _, v := range q.Vehicles() {
				s.Vehicles = append(s.Vehicles, VehicleView{
					ID:        v.ID,
					Direction: v.Direction,
					Lane:      v.Lane,
					Turn:      v.Turn(),
					Progress:  v.Progress,
					Heading:   v.Heading(),
					State:     v.State,
				})
			}
		}
	}
	return s
}

// SnapshotHub 单写多读的快照分发
// 每个订阅者只有一个槽位，新快照覆盖未读取的旧快照，发布从不阻塞
type SnapshotHub struct {
	latest atomic.Pointer[Snapshot]

	mu     sync.Mutex
	subs   map[int]chan *Snapshot
	nextID int
}

// NewSnapshotHub 创建快照分发器
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{subs: make(map[int]chan *Snapshot)}
}

// Publish 发布新快照
func (h *SnapshotHub) Publish(s *Snapshot) {
	h.latest.Store(s)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		// 丢弃未读取的旧快照
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Latest 返回最近一次发布的快照，尚未发布时返回 nil
func (h *SnapshotHub) Latest() *Snapshot {
	return h.latest.Load()
}

// Subscribe 订阅快照，返回的函数用于取消订阅并关闭通道
func (h *SnapshotHub) Subscribe() (<-chan *Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan *Snapshot, 1)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers 返回当前订阅者数量
func (h *SnapshotHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
