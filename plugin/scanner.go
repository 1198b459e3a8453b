package plugin

import (
	"bufio"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Scanner 注解扫描器
//
// 先用正则逐行过滤出可能带注解的文件，再只对这些文件做 AST 解析。
// 两个阶段都并行执行，结果按文件收集顺序返回。
type Scanner struct {
	workers          int
	verbose          bool
	annotationFilter []string
}

type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) { s.verbose = v }
}

// WithAnnotationFilter 只保留指定名称的注解，为空时保留全部
func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) { s.annotationFilter = annotations }
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var quickMatchRegex = regexp.MustCompile(`@(\w+)`)

// Scan 扫描 patterns 下的源文件
// pattern 可以是文件、目录，或以 /... 结尾的递归目录
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	files, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	hits, err := parallelMap(ctx, s.workers, files, func(path string) (bool, error) {
		matched, err := s.QuickMatchFile(path)
		// 读不了的文件当作不匹配
		return matched && err == nil, nil
	})
	if err != nil {
		return nil, err
	}
	candidates := lo.Filter(files, func(_ string, i int) bool { return hits[i] })

	scans, err := parallelMap(ctx, s.workers, candidates, func(path string) (*fileScan, error) {
		return s.parseFile(path), nil
	})
	if err != nil {
		return nil, err
	}

	result := &ScanResult{PackageConfigs: make(map[string]*PackageConfig)}
	unparsed := make(map[string]bool)
	for i, sc := range scans {
		if sc.err != nil {
			unparsed[candidates[i]] = true
			if s.verbose {
				fmt.Printf("跳过无法解析的文件: %v\n", sc.err)
			}
			continue
		}
		for _, t := range sc.targets {
			switch t.Target.Kind {
			case TargetStruct:
				result.Structs = append(result.Structs, t)
			case TargetInterface:
				result.Interfaces = append(result.Interfaces, t)
			default:
				result.Types = append(result.Types, t)
			}
		}
		if sc.pkgConfig != nil {
			mergePackageConfig(result.PackageConfigs, sc.pkgConfig)
		}
	}
	// 解析失败的文件不知道原来有哪些目标，不计入
	result.Files = lo.Reject(files, func(path string, _ int) bool { return unparsed[path] })
	return result, nil
}

// parallelMap 用最多 workers 个 goroutine 对 items 执行 fn，结果与 items 一一对应
func parallelMap[T, R any](ctx context.Context, workers int, items []T, fn func(T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(item)
			out[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// QuickMatchFile 检查文件的注释行里是否有关心的注解或 go:dissolve: 指令
// dev 模式用它判断文件变化是否需要重新生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "//") && !strings.HasPrefix(line, "/*") {
			continue
		}
		if strings.Contains(line, directivePrefix) {
			return true, nil
		}
		for _, m := range quickMatchRegex.FindAllStringSubmatch(line, -1) {
			if len(s.annotationFilter) == 0 || slices.Contains(s.annotationFilter, m[1]) {
				return true, nil
			}
		}
	}
	return false, sc.Err()
}

// fileScan 单个文件的解析结果，targets 保持声明顺序
type fileScan struct {
	targets   []*AnnotatedTarget
	pkgConfig *PackageConfig
	err       error
}

func (s *Scanner) parseFile(filePath string) *fileScan {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return &fileScan{err: err}
	}

	result := &fileScan{pkgConfig: parsePackageConfig(file, filePath)}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			if t := s.annotatedType(filePath, file.Name.Name, gd, spec.(*ast.TypeSpec)); t != nil {
				result.targets = append(result.targets, t)
			}
		}
	}
	return result
}

// annotatedType 分组声明中 TypeSpec 自己的文档优先，没有时使用 GenDecl 的
func (s *Scanner) annotatedType(filePath, pkgName string, decl *ast.GenDecl, spec *ast.TypeSpec) *AnnotatedTarget {
	doc := spec.Doc
	if doc == nil {
		doc = decl.Doc
	}
	annotations := ParseAnnotationsFromDoc(doc)
	if len(s.annotationFilter) > 0 {
		annotations = FilterByNames(annotations, s.annotationFilter...)
	}
	if len(annotations) == 0 {
		return nil
	}

	kind := TargetType
	switch spec.Type.(type) {
	case *ast.StructType:
		kind = TargetStruct
	case *ast.InterfaceType:
		kind = TargetInterface
	}
	return &AnnotatedTarget{
		Target: &Target{
			Kind:        kind,
			Name:        spec.Name.Name,
			PackageName: pkgName,
			FilePath:    filePath,
			Position:    spec.Pos(),
			Node:        spec,
		},
		Annotations: annotations,
	}
}

// collectFiles 展开 patterns，返回去重后的绝对路径
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		root, recursive := strings.CutSuffix(pattern, "/...")
		if pattern == "..." {
			root, recursive = ".", true
		}
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if strings.HasSuffix(absRoot, ".go") {
				add(absRoot)
			}
			continue
		}

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				name := d.Name()
				if !recursive || strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSourceFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// generatedSuffixes 测试文件与生成文件，扫描时跳过
var generatedSuffixes = []string{"_test.go", "_gen.go", "_dissolve.go"}

// IsSourceFile 是否为需要扫描的 Go 源文件
func IsSourceFile(path string) bool {
	if !strings.HasSuffix(path, ".go") {
		return false
	}
	return !lo.SomeBy(generatedSuffixes, func(suffix string) bool {
		return strings.HasSuffix(path, suffix)
	})
}

var defaultScanner = NewScanner()

func Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	return defaultScanner.Scan(ctx, patterns...)
}

func ScanWithFilter(ctx context.Context, annotations []string, patterns ...string) (*ScanResult, error) {
	return NewScanner(WithAnnotationFilter(annotations...)).Scan(ctx, patterns...)
}
