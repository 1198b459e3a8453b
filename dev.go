package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/donutnomad/dissolvegen/plugin"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"golang.org/x/tools/imports"
)

// watchConfig dev 子命令的配置
type watchConfig struct {
	Patterns []string
	Verbose  bool
	Output   string
	Async    bool
	Debounce time.Duration
}

func runDev(args []string) {
	flags := flag.NewFlagSet("dev", flag.ExitOnError)
	debounce := flags.Duration("debounce", 500*time.Millisecond, "文件变动后等待多久再生成")
	_ = flags.Parse(args)

	mustHaveGenerators()

	cfg := &watchConfig{
		Patterns: lo.Ternary(flags.NArg() > 0, flags.Args(), []string{"./..."}),
		Verbose:  *verbose,
		Output:   lo.Ternary(*noOutput, "", *output),
		Async:    *async,
		Debounce: *debounce,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watch(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

// watch 监听 cfg.Patterns 下的源文件，带注解的文件保存后重新生成所在包
// ctx 取消时返回 nil
func watch(ctx context.Context, cfg *watchConfig) error {
	dirs, err := collectWatchDirs(cfg.Patterns)
	if err != nil {
		return fmt.Errorf("收集监听目录失败: %w", err)
	}
	if len(dirs) == 0 {
		return errors.New("没有找到需要监听的目录")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer fw.Close()

	registry := plugin.Global()
	s := &watchSession{
		cfg:      cfg,
		ctx:      ctx,
		registry: registry,
		fw:       fw,
		matcher:  plugin.NewScanner(plugin.WithAnnotationFilter(registry.Annotations()...)),
		roots: lo.FilterMap(cfg.Patterns, func(p string, _ int) (string, bool) {
			return recursiveRoot(p)
		}),
		pending: newDebouncer(cfg.Debounce),
	}
	defer s.pending.Stop()

	for _, dir := range dirs {
		if err := s.addDir(dir); err != nil {
			return err
		}
	}

	fmt.Printf("开发模式已启动，监听 %d 个目录（防抖 %v），按 Ctrl+C 退出\n\n", len(dirs), cfg.Debounce)
	err = s.loop()
	fmt.Println("\n正在退出...")
	return err
}

// watchSession 一次 dev 运行的状态
type watchSession struct {
	cfg      *watchConfig
	ctx      context.Context
	registry *plugin.Registry
	fw       *fsnotify.Watcher
	matcher  *plugin.Scanner
	roots    []string // 递归监听的根目录，其下新建的目录自动加入监听
	pending  *debouncer
}

func (s *watchSession) addDir(dir string) error {
	if err := s.fw.Add(dir); err != nil {
		return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
	}
	s.debugf("监听目录: %s\n", dir)
	return nil
}

func (s *watchSession) debugf(format string, args ...any) {
	if s.cfg.Verbose {
		fmt.Printf(format, args...)
	}
}

func (s *watchSession) loop() error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case ev, ok := <-s.fw.Events:
			if !ok {
				return nil
			}
			s.onEvent(ev)
		case err, ok := <-s.fw.Errors:
			if !ok {
				return nil
			}
			s.debugf("监听错误: %v\n", err)
		}
	}
}

func (s *watchSession) onEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		if ev.Has(fsnotify.Create) && underAny(ev.Name, s.roots) && !skipDir(info.Name()) {
			if err := s.addDir(ev.Name); err != nil {
				fmt.Println(err)
			}
		}
		return
	}
	if !plugin.IsSourceFile(ev.Name) {
		return
	}

	s.debugf("检测到文件变化: %s\n", ev.Name)
	matched, err := s.matcher.QuickMatchFile(ev.Name)
	switch {
	case err != nil:
		s.debugf("读取文件失败 %s: %v\n", ev.Name, err)
		return
	case !matched && !s.ownsGeneratedOutput(ev.Name):
		s.debugf("跳过文件（无注解）: %s\n", ev.Name)
		return
	}
	// 保存到一半的文件不触发生成
	if err := checkSyntax(ev.Name); err != nil {
		fmt.Printf("语法错误 %s: %v\n", ev.Name, err)
		return
	}

	pkgDir := filepath.Dir(ev.Name)
	s.pending.Trigger(pkgDir, func() {
		if s.ctx.Err() == nil {
			s.regenerate(pkgDir)
		}
	})
}

// ownsGeneratedOutput 注解被删掉的文件若还留着上一次的输出，也要重新生成以清理
func (s *watchSession) ownsGeneratedOutput(file string) bool {
	return lo.SomeBy(s.registry.Generators(), func(gen plugin.Generator) bool {
		owner, ok := gen.(plugin.OutputOwner)
		if !ok {
			return false
		}
		return lo.SomeBy(owner.OwnedOutputs(file, nil, s.cfg.Output), func(path string) bool {
			generated, _ := plugin.IsGeneratedFile(path)
			return generated
		})
	})
}

// regenerate 只重新生成发生变化的包
func (s *watchSession) regenerate(pkgDir string) {
	s.debugf("触发代码生成: %s\n", pkgDir)
	stats, err := plugin.RunWithOptionsAndStats(s.ctx, &plugin.RunOptions{
		Registry: s.registry,
		Patterns: []string{pkgDir},
		Verbose:  s.cfg.Verbose,
		Output:   s.cfg.Output,
		Async:    s.cfg.Async,
	})
	switch {
	case err != nil:
		// 逐条诊断已由 Run 打印
		fmt.Printf("生成失败: %v\n", err)
	case stats != nil && stats.FileCount > 0:
		fmt.Printf("已生成 %d 个文件，用时 %v\n", stats.FileCount, stats.TotalDuration)
	default:
		s.debugf("没有需要生成的文件\n")
	}
}

// debouncer 按 key 合并 delay 内的多次触发，只执行最后一次
type debouncer struct {
	delay  time.Duration
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// Stop 取消所有尚未执行的触发
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}

// checkSyntax 只做语法检查，不改动 import
func checkSyntax(filePath string) error {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	_, err = imports.Process(filePath, src, &imports.Options{
		Comments:   true,
		AllErrors:  true,
		FormatOnly: true,
	})
	return err
}

// recursiveRoot "dir/..." 或 "..." 形式的模式返回 dir 的绝对路径
func recursiveRoot(pattern string) (string, bool) {
	base, ok := strings.CutSuffix(pattern, "...")
	if !ok || (base != "" && !strings.HasSuffix(base, "/")) {
		return "", false
	}
	abs, err := filepath.Abs(lo.Ternary(base == "", ".", base))
	if err != nil {
		return "", false
	}
	return abs, true
}

func underAny(path string, roots []string) bool {
	return lo.SomeBy(roots, func(root string) bool {
		rel, err := filepath.Rel(root, path)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	})
}

// skipDir 隐藏目录、vendor 与 testdata 不监听
func skipDir(name string) bool {
	if name == "vendor" || name == "testdata" {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// collectWatchDirs 递归模式展开为全部子目录，单个文件取其所在目录
func collectWatchDirs(patterns []string) ([]string, error) {
	var dirs []string
	for _, pattern := range patterns {
		if root, ok := recursiveRoot(pattern); ok {
			if _, err := os.Stat(root); err != nil {
				return nil, err
			}
			err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
				switch {
				case err != nil:
					return err
				case !d.IsDir():
					return nil
				case path != root && skipDir(d.Name()):
					return filepath.SkipDir
				}
				dirs = append(dirs, path)
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		switch {
		case info.IsDir():
			dirs = append(dirs, abs)
		case plugin.IsSourceFile(abs):
			dirs = append(dirs, filepath.Dir(abs))
		}
	}
	return lo.Uniq(dirs), nil
}
