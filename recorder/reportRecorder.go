package recorder

import (
	"fmt"
	"strconv"

	"github.com/aslik04/junction-modelling/simulator"
)

var reportHeader = []string{
	"Run ID", "Mode", "Seed", "Ticks", "Elapsed", "Direction", "VPH", "Avg Wait", "Max Wait", "Max Queue",
	"Score", "Waited", "Spawned", "Exited", "Deferred", "Aggregate",
}

// WriteReportCSV 写入运行结果，每次运行每个进口道一行
// 中止的运行不能作为最终成绩写入
func WriteReportCSV(filename string, reports ...simulator.Report) error {
	for _, r := range reports {
		if r.Partial {
			return fmt.Errorf("run %s is partial and cannot be exported", r.RunID)
		}
	}

	if err := initializeCSV(filename, reportHeader); err != nil {
		return err
	}

	var rows [][]string
	for _, r := range reports {
		for _, d := range r.Directions {
			rows = append(rows, []string{
				r.RunID,
				r.Mode,
				strconv.FormatUint(r.Seed, 10),
				strconv.Itoa(r.Ticks),
				formatFloat(r.Elapsed),
				d.Direction.String(),
				formatFloat(d.VPH),
				formatFloat(d.AvgWait),
				formatFloat(d.MaxWait),
				strconv.Itoa(d.MaxQueue),
				formatFloat(d.Score),
				strconv.Itoa(d.Waited),
				strconv.Itoa(d.Spawned),
				strconv.Itoa(d.Exited),
				strconv.Itoa(d.Deferred),
				fmt.Sprintf("%.6f", r.Aggregate),
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return appendToCSV(filename, rows)
}
