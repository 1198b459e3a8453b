package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/donutnomad/dissolvegen/dissolvegen"
	"github.com/donutnomad/dissolvegen/plugin"
	"github.com/samber/lo"
)

func init() {
	plugin.MustRegister(dissolvegen.NewDissolveGenerator())
}

var (
	verbose  = flag.Bool("v", false, "详细输出")
	help     = flag.Bool("h", false, "显示帮助信息")
	output   = flag.String("output", "", "默认输出路径（支持模板变量 $FILE, $PACKAGE, $TYPE），为空时使用 $FILE_dissolve.go")
	noOutput = flag.Bool("no-output", false, "忽略 -output，使用各生成器的默认输出")
	async    = flag.Bool("async", true, "异步执行生成器（默认 true）")
	jsonOut  = flag.Bool("json", false, "以 JSON 格式输出统计信息")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}

	args := flag.Args()

	// 默认命令是 gen
	if len(args) == 0 {
		runGen([]string{"./..."})
		return
	}

	switch cmd := args[0]; cmd {
	case "gen":
		runGen(args[1:])
	case "dev":
		runDev(args[1:])
	case "check":
		runCheck(args[1:])
	default:
		// 不是子命令，当作路径参数处理，执行 gen
		runGen(args)
	}
}

// runOptions 根据命令行参数构造运行选项
func runOptions(patterns []string, writer plugin.FileWriter) *plugin.RunOptions {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	// -no-output 时传空字符串，否则使用 -output 的值
	outputPath := *output
	if *noOutput {
		outputPath = ""
	}

	return &plugin.RunOptions{
		Registry: plugin.Global(),
		Patterns: patterns,
		Verbose:  *verbose && !*jsonOut,
		Output:   outputPath,
		Async:    *async,
		Writer:   writer,
	}
}

// mustHaveGenerators 检查是否有已注册的生成器，详细模式下列出它们
func mustHaveGenerators() {
	registry := plugin.Global()
	if len(registry.Generators()) == 0 {
		fmt.Fprintln(os.Stderr, "错误: 没有已注册的生成器")
		os.Exit(1)
	}

	if *verbose && !*jsonOut {
		fmt.Printf("已注册 %d 个生成器:\n", len(registry.Generators()))
		for _, gen := range registry.Generators() {
			anns := lo.Map(gen.Annotations(), func(item string, _ int) string {
				return "@" + item
			})
			fmt.Printf("  - %s (%s)\n", gen.Name(), strings.Join(anns, ","))
		}
		fmt.Println()
	}
}

func runGen(args []string) {
	mustHaveGenerators()

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), runOptions(args, nil))
	if *jsonOut {
		printJSON(stats, err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	// 输出统计信息
	if !*jsonOut && stats != nil && (stats.FileCount > 0 || *verbose) {
		fmt.Printf("\n统计: 扫描 %d 个目标, 生成 %d 个文件\n", stats.TargetCount, stats.FileCount)
		fmt.Printf("耗时: 扫描 %v, 生成 %v, 总计 %v\n", stats.ScanDuration, stats.GenerateDuration, stats.TotalDuration)
	}
}

// printJSON 输出统计信息，扫描失败等没有统计时只输出错误
func printJSON(stats *plugin.RunStats, err error) {
	if stats == nil {
		stats = &plugin.RunStats{}
		if err != nil {
			stats.Errors = []string{err.Error()}
		}
	}
	data, merr := sonic.ConfigStd.MarshalIndent(stats, "", "  ")
	if merr != nil {
		fmt.Fprintf(os.Stderr, "错误: 序列化统计信息失败: %v\n", merr)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, `dissolvegen - 为结构体生成拆解类型与转换方法

用法:
  dissolvegen [选项] [路径...]
  dissolvegen gen [选项] [路径...]
  dissolvegen check [选项] [路径...]
  dissolvegen dev [选项] [路径...]

命令:
  gen     执行代码生成（默认）
  check   只检查生成文件是否最新，输出差异，过期时退出码为 1
  dev     启动开发模式，监听文件变动自动生成

路径:
  支持 Go 包路径模式，如:
    ./...          递归扫描当前目录及子目录（默认）
    ./pkg/...      递归扫描指定目录
    ./models       只扫描 models 目录

选项:
`)
	flag.PrintDefaults()

	// 动态生成注解帮助信息
	registry := plugin.Global()
	if len(registry.Generators()) > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n支持的注解:\n")
		_, _ = fmt.Fprint(os.Stderr, plugin.FormatHelpText(registry))
	}

	_, _ = fmt.Fprintf(os.Stderr, `结构体注解:
  @dissolve(visibility = "pub(crate)")       转换方法的可见性: "pub", "pub(crate)", "pub(super)", "pub(self)", ""
  @dissolved(skip)                           跳过字段
  @dissolved(rename = "new_name")            重命名字段（仅命名字段）

模板变量:
  $FILE     - 源文件名（不含 .go 后缀）
  $PACKAGE  - 包名
  $TYPE     - 类型名（蛇形命名）
  {{ ... }} - text/template 语法，支持 sprig 函数，如 {{ .Type | lower }}

示例:
  dissolvegen                               扫描当前目录（默认 ./...）
  dissolvegen -v ./models/...               详细模式扫描 models 目录
  dissolvegen -output $FILE_parts ./...     指定输出文件名
  dissolvegen -json ./...                   以 JSON 输出统计信息
  dissolvegen check ./...                   CI 中检查生成文件是否最新
  dissolvegen dev ./...                     开发模式，监听文件变动
`)
}
