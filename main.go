package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/control"
	"github.com/aslik04/junction-modelling/log"
	"github.com/aslik04/junction-modelling/recorder"
	"github.com/aslik04/junction-modelling/simulator"
)

func main() {
	configPath := flag.String("config", "config/config.json", "配置文件路径")
	ticks := flag.Int("ticks", 0, "模拟时间步数，0 表示使用配置文件中的模拟时长")
	replications := flag.Int("replications", -1, "重复运行次数，-1 表示使用配置文件中的值")
	flag.Parse()

	if err := run(*configPath, *ticks, *replications); err != nil {
		log.WriteLog(fmt.Sprintf("Simulation failed: %v", err))
		log.CloseLog()
		os.Exit(1)
	}
	log.CloseLog()
}

func run(configPath string, ticks, replications int) error {
	// 加载配置文件
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if ticks > 0 {
		cfg.Simulation.DurationSeconds = float64(ticks) * cfg.Simulation.TickSeconds
	}
	if replications >= 0 {
		cfg.Replication.Runs = replications
	}

	// 生成唯一的初始化时间标识
	initTime := time.Now().Format("20060102150405")

	// 日志初始化
	logFile := filepath.Join(cfg.Logging.LogDir, initTime+".log")
	if err := log.InitLog(logFile); err != nil {
		return err
	}
	log.LogEnvironment()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []simulator.Option
	var trace *recorder.TraceRecorder
	if cfg.Logging.TraceIntervalSeconds > 0 {
		every := max(int(math.Round(cfg.Logging.TraceIntervalSeconds/cfg.Simulation.TickSeconds)), 1)
		traceFile := filepath.Join(cfg.Logging.DataDir, initTime+"_TraceData.csv")
		trace, err = recorder.NewTraceRecorder(traceFile, every)
		if err != nil {
			return err
		}
		opts = append(opts, simulator.WithSnapshotHook(trace.Record))
		log.WriteLog(fmt.Sprintf("轨迹记录已启用，采样间隔: %d 步", every))
	}

	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	start := time.Now()
	cmp, err := simulator.Compare(ctx, cfg, opts...)
	if trace != nil {
		if cerr := trace.Close(); cerr != nil {
			log.WriteLog(fmt.Sprintf("Trace write failed: %v", cerr))
		}
	}
	if err != nil {
		return err
	}
	log.WriteLog(fmt.Sprintf("Comparison completed in %v", time.Since(start)))

	reports := []simulator.Report{cmp.Adaptive.Report}
	logReport(cmp.Adaptive.Report)
	if err := writeRunData(cfg, initTime, cmp.Adaptive); err != nil {
		return err
	}
	if cmp.Manual != nil {
		reports = append(reports, cmp.Manual.Report)
		logReport(cmp.Manual.Report)
		if err := writeRunData(cfg, initTime, *cmp.Manual); err != nil {
			return err
		}
		log.WriteLog(fmt.Sprintf("Score difference (adaptive - manual): %.6f", cmp.ScoreDifference))
	}

	reportFile := filepath.Join(cfg.Logging.DataDir, initTime+"_Report.csv")
	if err := recorder.WriteReportCSV(reportFile, reports...); err != nil {
		return err
	}

	if cfg.Replication.Runs > 1 {
		if err := replicate(ctx, cfg); err != nil {
			return err
		}
	}

	log.WriteLog("---------------------------------- Completed ----------------------------------")
	return nil
}

func writeRunData(cfg *config.Config, initTime string, res simulator.Result) error {
	tripFile := filepath.Join(cfg.Logging.DataDir, fmt.Sprintf("%s_%s_TripData.csv", initTime, res.Report.RunID))
	return recorder.WriteTripCSV(tripFile, res.Report.RunID, res.Trips)
}

func logReport(r simulator.Report) {
	log.WriteLog(fmt.Sprintf("---------- %s run %s (seed %d, %s) ----------",
		r.Mode, r.RunID, r.Seed, log.ConvertTimeStepToTime(r.Elapsed)))
	for _, d := range r.Directions {
		log.WriteLog(fmt.Sprintf("%-5s VPH: %6.0f, AvgWait: %6.2fs, MaxWait: %6.2fs, MaxQueue: %3d, Score: %8.3f, Exited: %d, Deferred: %d",
			d.Direction, d.VPH, d.AvgWait, d.MaxWait, d.MaxQueue, d.Score, d.Exited, d.Deferred))
	}
	log.WriteLog(fmt.Sprintf("Aggregate score: %.6f", r.Aggregate))
}

func replicate(ctx context.Context, cfg *config.Config) error {
	modes := []control.Mode{control.ModeAdaptive}
	if cfg.Manual.Enabled {
		modes = append(modes, control.ModeManual)
	}

	for _, mode := range modes {
		summary, err := simulator.Replicate(ctx, cfg, mode, cfg.Replication.Runs, cfg.Replication.Workers)
		if err != nil {
			return fmt.Errorf("replicate %s: %w", mode, err)
		}
		log.WriteLog(fmt.Sprintf("Replications (%s, %d runs, seeds %d-%d): mean %.6f, std %.6f",
			summary.Mode, len(summary.Scores), summary.Seeds[0], summary.Seeds[len(summary.Seeds)-1],
			summary.Mean, summary.StdDev))
	}
	return nil
}
