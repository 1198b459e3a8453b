package main

import (
	"context"
	"fmt"
	"os"

	"github.com/donutnomad/dissolvegen/plugin"
	"github.com/samber/lo"
)

// runCheck 在内存中重新生成并与磁盘上的文件比较，不写入任何文件
func runCheck(args []string) {
	mustHaveGenerators()

	writer := plugin.NewCheckWriter()
	stats, err := plugin.RunWithOptionsAndStats(context.Background(), runOptions(args, writer))

	stale := writer.Stale()
	if stats != nil {
		stats.Stale = lo.Map(stale, func(f plugin.StaleFile, _ int) string { return f.Path })
	}
	if *jsonOut {
		printJSON(stats, err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if len(stale) == 0 {
		if !*jsonOut {
			fmt.Println("生成文件均为最新")
		}
		return
	}

	if !*jsonOut {
		for _, f := range stale {
			fmt.Print(f.Diff)
		}
	}
	fmt.Fprintf(os.Stderr, "%d 个生成文件已过期，请运行 dissolvegen 重新生成\n", len(stale))
	os.Exit(1)
}
