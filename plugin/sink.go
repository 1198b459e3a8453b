package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/donutnomad/dissolvegen/internal/utils"
	"github.com/pmezard/go-difflib/difflib"
)

//go:generate mockgen -destination=mock_writer_test.go -package=plugin . FileWriter

// FileWriter 接收合并后的生成文件
// RemoveFile 只会用于带 GeneratedHeader 的过期生成文件
type FileWriter interface {
	WriteFile(path string, content []byte) error
	RemoveFile(path string) error
}

// DiskWriter 格式化后写入磁盘
type DiskWriter struct{}

func (DiskWriter) WriteFile(path string, content []byte) error {
	return utils.WriteFormat(path, content)
}

func (DiskWriter) RemoveFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// StaleFile 与磁盘内容不一致的生成文件
type StaleFile struct {
	Path string
	Diff string // unified diff，磁盘内容 -> 期望内容
}

// CheckWriter 不写盘，只比较生成结果与磁盘上的文件
type CheckWriter struct {
	mu    sync.Mutex
	stale []StaleFile
}

func NewCheckWriter() *CheckWriter {
	return &CheckWriter{}
}

func (w *CheckWriter) WriteFile(path string, content []byte) error {
	want, err := utils.FormatSource(path, content)
	if err != nil {
		return err
	}

	got, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	if bytes.Equal(got, want) {
		return nil
	}
	return w.record(path, got, want)
}

// RemoveFile 应当删除的文件同样算作过期，差异为整个文件被删除
func (w *CheckWriter) RemoveFile(path string) error {
	got, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	return w.record(path, got, nil)
}

func (w *CheckWriter) record(path string, got, want []byte) error {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(got)),
		B:        difflib.SplitLines(string(want)),
		FromFile: path + " (当前)",
		ToFile:   path + " (期望)",
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("生成 %s 的差异失败: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stale = append(w.stale, StaleFile{Path: path, Diff: diff})
	return nil
}

// Stale 返回过期的文件
func (w *CheckWriter) Stale() []StaleFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]StaleFile(nil), w.stale...)
}
