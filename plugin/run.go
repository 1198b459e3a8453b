package plugin

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/donutnomad/dissolvegen/internal/utils"
	"github.com/donutnomad/gg"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Run 扫描 patterns，把目标分发给 registry 中的生成器，合并同一文件的输出并写盘
func Run(ctx context.Context, registry *Registry, patterns ...string) error {
	return RunWithOptions(ctx, &RunOptions{
		Registry: registry,
		Patterns: patterns,
	})
}

// RunGlobal 使用全局注册表运行
func RunGlobal(ctx context.Context, patterns ...string) error {
	return Run(ctx, globalRegistry, patterns...)
}

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry // 为 nil 时使用全局注册表
	Patterns []string
	Verbose  bool
	Output   string     // 命令行指定的默认输出路径（最低优先级）
	Async    bool       // 各生成器并发执行
	Writer   FileWriter // 为 nil 时格式化后写入磁盘
}

// RunStats 运行统计信息，-json 时原样输出
type RunStats struct {
	ScanDuration     time.Duration `json:"scan_duration"`
	GenerateDuration time.Duration `json:"generate_duration"`
	TotalDuration    time.Duration `json:"total_duration"`
	TargetCount      int           `json:"target_count"`
	FileCount        int           `json:"file_count"`
	Skipped          int           `json:"skipped"` // 被生成器拒绝的目标
	Files            []string      `json:"files,omitempty"`
	Errors           []string      `json:"errors,omitempty"`
	Stale            []string      `json:"stale,omitempty"`   // check 模式下过期的文件
	Removed          []string      `json:"removed,omitempty"` // 删除的过期生成文件，check 模式下为应删除的
}

func RunWithOptions(ctx context.Context, opts *RunOptions) error {
	_, err := RunWithOptionsAndStats(ctx, opts)
	return err
}

// genOutcome 一个生成器的执行结果
type genOutcome struct {
	name   string
	result *GenerateResult
	err    error
}

// RunWithOptionsAndStats 运行并返回统计信息
// 单个目标或文件的错误不会中断其他输出，全部收集后统一返回
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := lo.Ternary(opts.Registry != nil, opts.Registry, globalRegistry)
	writer := opts.Writer
	if writer == nil {
		writer = DiskWriter{}
	}

	annotations := registry.Annotations()
	if len(annotations) == 0 {
		return nil, errors.New("没有已注册的生成器")
	}

	scanStart := time.Now()
	scanner := NewScanner(
		WithAnnotationFilter(annotations...),
		WithScannerVerbose(opts.Verbose),
	)
	scanned, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)
	stats.TargetCount = len(scanned.All())

	if opts.Verbose {
		if stats.TargetCount == 0 {
			fmt.Println("没有找到任何带注解的目标")
		} else {
			fmt.Printf("找到 %d 个带注解的目标 (扫描耗时: %v)\n", stats.TargetCount, stats.ScanDuration)
		}
	}

	generateStart := time.Now()
	dispatch := registry.DispatchTargets(scanned)
	genNames := orderedGenerators(registry, dispatch)

	// 参数在并发执行前解析完，生成器只读取 ParsedParams
	allErrors := resolveParams(registry, genNames, dispatch)

	outcomes, err := runGenerators(ctx, registry, genNames, func(gen Generator) *GenerateContext {
		return &GenerateContext{
			Targets:        dispatch[gen.Name()],
			PackageConfigs: scanned.PackageConfigs,
			DefaultOutput:  opts.Output,
			Verbose:        opts.Verbose,
		}
	}, opts)
	if err != nil {
		return nil, err
	}

	files, fileGens, errs := collectOutputs(outcomes)
	allErrors = append(allErrors, errs...)
	for _, o := range outcomes {
		if o.result != nil {
			stats.Skipped += o.result.Skipped
		}
	}

	_, toDisk := writer.(DiskWriter)
	for _, path := range utils.SortedKeys(files) {
		merged, err := mergeDefinitionsWithSeparator(files[path], fileGens[path])
		if err != nil {
			allErrors = append(allErrors, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}
		if err := writer.WriteFile(path, merged.Bytes()); err != nil {
			allErrors = append(allErrors, fmt.Errorf("写入文件 %s 失败: %w", path, err))
			continue
		}
		stats.FileCount++
		stats.Files = append(stats.Files, path)
		if toDisk || opts.Verbose {
			fmt.Printf("生成文件: %s\n", path)
		}
	}

	// 被拒绝或去掉标记的声明不能留下上一次的输出
	produced := lo.MapValues(files, func(_ []*gg.Generator, _ string) bool { return true })
	stale, errs := staleOutputs(registry, scanned, outcomes, produced, opts.Output)
	allErrors = append(allErrors, errs...)
	for _, path := range stale {
		if err := writer.RemoveFile(path); err != nil {
			allErrors = append(allErrors, fmt.Errorf("删除过期文件 %s 失败: %w", path, err))
			continue
		}
		stats.Removed = append(stats.Removed, path)
		if toDisk || opts.Verbose {
			fmt.Printf("删除过期文件: %s\n", path)
		}
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if len(allErrors) > 0 {
		stats.Errors = lo.Map(allErrors, func(e error, _ int) string { return e.Error() })
		for _, e := range allErrors {
			fmt.Printf("错误: %v\n", e)
		}
		return stats, fmt.Errorf("生成过程中出现 %d 个错误", len(allErrors))
	}
	return stats, nil
}

// orderedGenerators 按优先级排序，相同优先级按名称
func orderedGenerators(registry *Registry, dispatch map[string][]*AnnotatedTarget) []string {
	names := utils.SortedKeys(dispatch)
	slices.SortStableFunc(names, func(a, b string) int {
		genA, _ := registry.GetByName(a)
		genB, _ := registry.GetByName(b)
		return genA.Priority() - genB.Priority()
	})
	return names
}

// resolveParams 将每个目标上属于该生成器的第一个注解解析到 ParsedParams
func resolveParams(registry *Registry, genNames []string, dispatch map[string][]*AnnotatedTarget) []error {
	var errs []error
	for _, name := range genNames {
		gen, ok := registry.GetByName(name)
		if !ok {
			continue
		}
		for _, target := range dispatch[name] {
			proto := gen.NewParams()
			if proto == nil {
				break
			}
			if reflect.ValueOf(proto).Kind() != reflect.Ptr {
				errs = append(errs, fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", proto))
				break
			}
			ann, found := lo.Find(target.Annotations, func(a *Annotation) bool {
				return slices.Contains(gen.Annotations(), a.Name)
			})
			if !found {
				continue
			}
			if err := ParseAnnotationParams(ann, proto, gen.ParamDefs()); err != nil {
				errs = append(errs, fmt.Errorf("解析参数失败: %s.%s: %w", target.Target.PackageName, target.Target.Name, err))
				continue
			}
			target.ParsedParams = reflect.ValueOf(proto).Elem().Interface()
		}
	}
	return errs
}

// runGenerators 执行生成器，结果顺序与 genNames 一致
func runGenerators(ctx context.Context, registry *Registry, genNames []string, newCtx func(Generator) *GenerateContext, opts *RunOptions) ([]genOutcome, error) {
	outcomes := make([]genOutcome, len(genNames))
	execute := func(i int) {
		name := genNames[i]
		outcomes[i].name = name
		gen, ok := registry.GetByName(name)
		if !ok {
			return
		}
		genCtx := newCtx(gen)
		if opts.Verbose {
			fmt.Printf("执行生成器: %s (开始处理 %d 个目标)\n", name, len(genCtx.Targets))
		}
		start := time.Now()
		outcomes[i].result, outcomes[i].err = gen.Generate(genCtx)
		if opts.Verbose {
			fmt.Printf("执行生成器: %s (耗时: %v)\n", name, time.Since(start))
		}
	}

	if !opts.Async {
		for i := range genNames {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			execute(i)
		}
		return outcomes, nil
	}

	var g errgroup.Group
	for i := range genNames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			execute(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// collectOutputs 按输出路径分组，同一文件内保持生成器的优先级顺序
// 原始源码输出先转换为 gg 定义，以便与其他生成器的输出合并 import
func collectOutputs(outcomes []genOutcome) (map[string][]*gg.Generator, map[string][]string, []error) {
	files := make(map[string][]*gg.Generator)
	fileGens := make(map[string][]string)
	var errs []error

	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, fmt.Errorf("生成器 %s 执行失败: %w", o.name, o.err))
			continue
		}
		if o.result == nil {
			continue
		}
		for _, path := range utils.SortedKeys(o.result.Definitions) {
			files[path] = append(files[path], o.result.Definitions[path])
			fileGens[path] = append(fileGens[path], o.name)
		}
		for _, path := range utils.SortedKeys(o.result.RawOutputs) {
			parsed, err := ParseSourceToGG(o.result.RawOutputs[path])
			if err != nil {
				errs = append(errs, fmt.Errorf("解析原始输出 %s 失败: %w", path, err))
				continue
			}
			files[path] = append(files[path], parsed)
			fileGens[path] = append(fileGens[path], o.name)
		}
		errs = append(errs, o.result.Errors...)
	}
	return files, fileGens, errs
}

// mergeDefinitionsWithSeparator 合并同一文件的多个定义，每段前加生成器名分隔注释
func mergeDefinitionsWithSeparator(definitions []*gg.Generator, genNames []string) (*gg.Generator, error) {
	if len(definitions) == 0 {
		return nil, errors.New("没有定义需要合并")
	}

	merged := gg.New()
	merged.SetHeader(GeneratedHeader)

	var pkgName string
	for _, def := range definitions {
		switch name := def.PackageName(); {
		case name == "":
		case pkgName == "":
			pkgName = name
		case pkgName != name:
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, name)
		}
	}
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}

	// import 交给 Merge 处理，Imports() 只有路径会丢失别名
	for i, def := range definitions {
		name := "unknown"
		if i < len(genNames) {
			name = genNames[i]
		}
		merged.Body().AddLine()
		merged.Body().AddString(fmt.Sprintf("// ================ %s ================", name))
		merged.Body().AddLine()
		merged.Merge(def)
	}
	return merged, nil
}
