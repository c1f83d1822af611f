package recorder

import (
	"strconv"
	"sync/atomic"

	"github.com/aslik04/junction-modelling/simulator"
)

var recordIndex int64 = 0 // 递增的唯一索引

var tripHeader = []string{
	"Record ID", "Run ID", "Vehicle ID", "Direction", "Lane", "Turn", "Spawned At", "Enqueued At", "Exited At", "Wait", "Queued",
}

func getTripData(runID string, trip simulator.Trip) []string {
	// 生成唯一递增索引
	idx := atomic.AddInt64(&recordIndex, 1)

	enqueued := ""
	if trip.Queued {
		enqueued = formatFloat(trip.EnqueuedAt)
	}

	return []string{
		strconv.FormatInt(idx, 10),
		runID,
		strconv.FormatInt(trip.ID, 10),
		trip.Direction.String(),
		strconv.Itoa(trip.Lane),
		trip.Turn.String(),
		formatFloat(trip.SpawnedAt),
		enqueued, // 未排队的车辆留空
		formatFloat(trip.ExitedAt),
		formatFloat(trip.Wait),
		strconv.FormatBool(trip.Queued),
	}
}

// WriteTripCSV 写入一次运行中所有已驶出车辆的行程记录
// 文件不存在时先写表头，存在时追加
func WriteTripCSV(filename, runID string, trips []simulator.Trip) error {
	if !fileExists(filename) {
		if err := initializeCSV(filename, tripHeader); err != nil {
			return err
		}
	}
	if len(trips) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(trips))
	for _, trip := range trips {
		rows = append(rows, getTripData(runID, trip))
	}
	return appendToCSV(filename, rows)
}
