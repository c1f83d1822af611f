package simulator

import (
	"context"
	"fmt"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/control"

	"golang.org/x/sync/errgroup"
)

// Comparison 自适应运行与手动运行的对比结果
// 未启用手动配置时 Manual 为 nil，ScoreDifference 为0
type Comparison struct {
	Adaptive        Result
	Manual          *Result
	ScoreDifference float64
}

// Compare 用同一配置并发执行自适应运行和(启用时)手动运行，两次运行互不共享状态
// opts 同时作用于两次运行，其中的回调可能被并发调用
func Compare(ctx context.Context, cfg *config.Config, opts ...Option) (Comparison, error) {
	if err := cfg.Validate(); err != nil {
		return Comparison{}, err
	}

	var (
		cmp    Comparison
		manual Result
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := runOnce(gctx, cfg, control.ModeAdaptive, opts...)
		cmp.Adaptive = res
		return err
	})
	if cfg.Manual.Enabled {
		g.Go(func() error {
			res, err := runOnce(gctx, cfg, control.ModeManual, opts...)
			manual = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return cmp, err
	}
	if cfg.Manual.Enabled {
		cmp.Manual = &manual
		cmp.ScoreDifference = ScoreDifference(manual.Report, cmp.Adaptive.Report)
	}
	return cmp, nil
}

func runOnce(ctx context.Context, cfg *config.Config, mode control.Mode, opts ...Option) (Result, error) {
	sim, err := New(cfg, mode, opts...)
	if err != nil {
		return Result{}, err
	}
	res, err := sim.RunBatch(ctx, 0)
	if err != nil {
		return res, fmt.Errorf("%s run %s: %w", mode, sim.ID(), err)
	}
	return res, nil
}
