package pkgresolver

import (
	"fmt"
	"go/build"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StdLibScanner 通过遍历 $GOROOT/src 得到可导入的标准库包集合
type StdLibScanner struct {
	goroot   string
	stdPkgs  map[string]bool
	initOnce sync.Once
	initErr  error
}

func NewStdLibScanner() *StdLibScanner {
	return &StdLibScanner{stdPkgs: make(map[string]bool)}
}

// Init 延迟初始化，只遍历一次
func (s *StdLibScanner) Init() error {
	s.initOnce.Do(func() {
		s.goroot = build.Default.GOROOT
		if s.goroot == "" {
			s.goroot = os.Getenv("GOROOT")
		}
		if s.goroot == "" {
			s.initErr = fmt.Errorf("无法获取 GOROOT")
			return
		}
		s.initErr = s.scan(filepath.Join(s.goroot, "src"))
	})
	return s.initErr
}

func (s *StdLibScanner) scan(srcDir string) error {
	return filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// 无法读取的目录直接忽略
			if d != nil && d.IsDir() && p != srcDir {
				return fs.SkipDir
			}
			return err
		}
		rel, _ := filepath.Rel(srcDir, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			name := d.Name()
			// internal 与 vendor 对用户代码不可见，cmd 是工具链而非库
			if p != srcDir && (strings.HasPrefix(name, ".") || name == "testdata" || name == "vendor" || name == "internal" || rel == "cmd") {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if dir := filepath.ToSlash(filepath.Dir(rel)); dir != "." && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			s.stdPkgs[dir] = true
		}
		return nil
	})
}

// IsStdLib 判断是否是标准库
func (s *StdLibScanner) IsStdLib(importPath string) (bool, error) {
	if err := s.Init(); err != nil {
		return false, err
	}
	// 第一段含点的一定不是标准库
	first, _, _ := strings.Cut(importPath, "/")
	if strings.Contains(first, ".") {
		return false, nil
	}
	return s.stdPkgs[importPath], nil
}

// GetStdLibPath 标准库包的磁盘目录
func (s *StdLibScanner) GetStdLibPath(importPath string) (string, error) {
	isStd, err := s.IsStdLib(importPath)
	if err != nil {
		return "", err
	}
	if !isStd {
		return "", fmt.Errorf("%s 不是标准库", importPath)
	}
	return filepath.Join(s.goroot, "src", filepath.FromSlash(importPath)), nil
}
