package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/control"
	"github.com/aslik04/junction-modelling/utils"

	"gonum.org/v1/gonum/stat"
)

// ReplicationSummary 多个随机种子重复运行的总评分统计
type ReplicationSummary struct {
	Mode   string
	Seeds  []uint64
	Scores []float64
	Mean   float64
	StdDev float64
}

// Replicate 使用种子 seed..seed+runs-1 在工作池上重复运行，返回总评分的均值和标准差
// 累积到达模型与种子无关，各次结果相同
func Replicate(ctx context.Context, cfg *config.Config, mode control.Mode, runs, workers int) (ReplicationSummary, error) {
	if runs <= 0 {
		return ReplicationSummary{}, fmt.Errorf("runs must be positive, got %d", runs)
	}
	if err := cfg.Validate(); err != nil {
		return ReplicationSummary{}, err
	}

	summary := ReplicationSummary{
		Mode:   mode.String(),
		Seeds:  make([]uint64, runs),
		Scores: make([]float64, runs),
	}
	errs := make([]error, runs)
	ran := make([]bool, runs)

	pool := utils.NewWorkerPool(ctx, workers)
	for i := 0; i < runs; i++ {
		i := i
		seed := cfg.Simulation.Seed + uint64(i)
		summary.Seeds[i] = seed
		submitted := pool.Submit(func() {
			ran[i] = true
			res, err := runOnce(ctx, cfg, mode, WithSeed(seed))
			summary.Scores[i] = res.Report.Aggregate
			errs[i] = err
		})
		if !submitted {
			break
		}
	}
	pool.Wait()
	pool.Stop()

	for i := range ran {
		if !ran[i] && errs[i] == nil {
			errs[i] = fmt.Errorf("replication %d not run: %w", i, errors.Join(ErrAborted, ctx.Err()))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return summary, err
	}

	if runs == 1 {
		summary.Mean = summary.Scores[0]
		return summary, nil
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(summary.Scores, nil)
	return summary, nil
}
