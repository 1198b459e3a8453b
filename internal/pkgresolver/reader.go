package pkgresolver

import (
	"cmp"
	"fmt"
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// PackageFileReader 从包目录读取 package 声明
type PackageFileReader struct{}

// ReadPackageName 读取目录中参与当前平台构建的源文件的包名
// 文件之间不一致时（如 package documentation 或带 ignore 约束的工具文件）取出现最多的名字
func (r *PackageFileReader) ReadPackageName(pkgDir string) (string, error) {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return "", fmt.Errorf("读取目录失败 %s: %w", pkgDir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if ok, err := build.Default.MatchFile(pkgDir, name); err != nil || !ok {
			continue
		}
		pkgName, err := parsePackageClause(filepath.Join(pkgDir, name))
		if err != nil {
			continue
		}
		names = append(names, pkgName)
	}

	if len(names) == 0 {
		return "", fmt.Errorf("目录 %s 中没有找到 Go 源文件", pkgDir)
	}
	return majority(names), nil
}

// majority 出现次数最多的名字，次数相同时取字典序最小的
func majority(names []string) string {
	counts := lo.CountValues(names)
	keys := lo.Keys(counts)
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(counts[b], counts[a]), cmp.Compare(a, b))
	})
	return keys[0]
}

func parsePackageClause(filename string) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), filename, nil, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("解析文件 %s 失败: %w", filename, err)
	}
	return f.Name.Name, nil
}
