package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

// FormatSource 格式化生成的源码并整理 imports
func FormatSource(path string, src []byte) ([]byte, error) {
	out, err := imports.Process(path, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", path, err)
	}
	return out, nil
}

// WriteFormat 格式化源码后写入文件
// 格式化失败时仍然写入原始内容，便于排查生成结果
func WriteFormat(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	out, err := FormatSource(path, src)
	if err != nil {
		if werr := os.WriteFile(path, src, 0644); werr != nil {
			return fmt.Errorf("写入文件失败: %w", werr)
		}
		return err
	}
	return os.WriteFile(path, out, 0644)
}
