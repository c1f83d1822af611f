package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// initializeCSV 创建文件并写入表头，已存在的文件会被覆盖
func initializeCSV(filename string, header []string) (err error) {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", filename, err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filename, cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", filename, err)
	}
	writer.Flush()
	return writer.Error()
}

// appendToCSV 向已存在的文件追加数据行
func appendToCSV(filename string, data [][]string) (err error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filename, cerr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(data); err != nil {
		return fmt.Errorf("write data to %s: %w", filename, err)
	}
	return nil
}

// fileExists 检查文件是否存在
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
