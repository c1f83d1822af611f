package recorder

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/aslik04/junction-modelling/log"
	"github.com/aslik04/junction-modelling/simulator"
)

// 缓存达到该行数时写入文件
const maxCacheRows = 50000

var traceHeader = []string{
	"Run ID", "Tick", "Elapsed", "Phase", "Vehicle ID", "Direction", "Lane", "Turn", "Progress", "Heading", "State",
}

// TraceRecorder 按固定间隔采样快照中的车辆位置并写入CSV
// Record 可被多个运行并发调用
type TraceRecorder struct {
	filename string
	every    int

	mu    sync.Mutex // 保护缓存和写入
	cache [][]string
	err   error // 第一次写入失败的错误
}

// NewTraceRecorder 创建文件并写入表头，every 为采样间隔(时间步数)
func NewTraceRecorder(filename string, every int) (*TraceRecorder, error) {
	if every <= 0 {
		return nil, fmt.Errorf("trace interval must be positive, got %d", every)
	}
	if err := initializeCSV(filename, traceHeader); err != nil {
		return nil, err
	}
	return &TraceRecorder{
		filename: filename,
		every:    every,
		cache:    make([][]string, 0, 1000),
	}, nil
}

// Record 记录一个快照，不在采样点上的快照被忽略
func (r *TraceRecorder) Record(s *simulator.Snapshot) {
	if s == nil || s.Tick%r.every != 0 {
		return
	}

	rows := getTraceData(s)
	if len(rows) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = append(r.cache, rows...)
	if len(r.cache) >= maxCacheRows {
		log.WriteLog(fmt.Sprintf("Trace cache reached %d rows, writing to %s", len(r.cache), r.filename))
		r.flushLocked()
	}
}

// getTraceData 将快照中的车辆转换为CSV记录
func getTraceData(s *simulator.Snapshot) [][]string {
	rows := make([][]string, 0, len(s.Vehicles))
	tick := strconv.Itoa(s.Tick)
	elapsed := formatFloat(s.Elapsed)
	phase := s.Phase.String()

	for _, v := range s.Vehicles {
		rows = append(rows, []string{
			s.RunID,
			tick,
			elapsed,
			phase,
			strconv.FormatInt(v.ID, 10),
			v.Direction.String(),
			strconv.Itoa(v.Lane),
			v.Turn.String(),
			formatFloat(v.Progress),
			formatFloat(v.Heading),
			v.State.String(),
		})
	}
	return rows
}

func (r *TraceRecorder) flushLocked() {
	if len(r.cache) == 0 {
		return
	}
	if err := appendToCSV(r.filename, r.cache); err != nil && r.err == nil {
		r.err = err
	}
	r.cache = r.cache[:0]
}

// Close 写入剩余缓存并返回记录过程中的第一个错误
func (r *TraceRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	if r.err != nil {
		return fmt.Errorf("trace %s: %w", r.filename, r.err)
	}
	return nil
}
