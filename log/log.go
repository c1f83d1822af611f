package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logger  = log.New(os.Stderr, "", log.LstdFlags)
	logFile *os.File
)

// InitLog 打开运行日志文件，日志同时输出到文件和标准输出
// 再次调用会关闭之前打开的文件
func InitLog(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logger = log.New(io.MultiWriter(os.Stdout, f), "", log.LstdFlags)
	return nil
}

// WriteLog 写入一行日志，可并发调用
func WriteLog(msg string) {
	mu.Lock()
	defer mu.Unlock()
	logger.Println(msg)
}

// CloseLog 关闭日志文件，之后的日志回到标准错误输出
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
	logger = log.New(os.Stderr, "", log.LstdFlags)
}

// SetOutput 将日志重定向到任意 writer，主要用于测试
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", log.LstdFlags)
}

// LogEnvironment 记录运行环境信息
func LogEnvironment() {
	WriteLog(fmt.Sprintf("Go Version: %s", runtime.Version()))
	WriteLog(fmt.Sprintf("OS/Arch: %s/%s", runtime.GOOS, runtime.GOARCH))
	WriteLog(fmt.Sprintf("CPU: %d, GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0)))
	WriteLog(fmt.Sprintf("Start Time: %s", time.Now().Format(time.RFC3339)))
}

// LogSimParameters 记录本次运行的模拟参数
func LogSimParameters(runID string, mode string, lanes int, tickSeconds, durationSeconds float64,
	arrivalModel, rightTurnPolicy string, seed uint64) {
	WriteLog("---------------------------------- Parameters ----------------------------------")
	WriteLog(fmt.Sprintf("运行ID: %s", runID))
	WriteLog(fmt.Sprintf("控制模式: %s", mode))
	WriteLog(fmt.Sprintf("车道数: %d", lanes))
	WriteLog(fmt.Sprintf("时间步长: %.2fs, 模拟时长: %s", tickSeconds, ConvertTimeStepToTime(durationSeconds)))
	WriteLog(fmt.Sprintf("到达模型: %s, 右转策略: %s", arrivalModel, rightTurnPolicy))
	WriteLog(fmt.Sprintf("随机种子: %d", seed))
}

// ConvertTimeStepToTime 将模拟秒数格式化为 HH:MM:SS
func ConvertTimeStepToTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
