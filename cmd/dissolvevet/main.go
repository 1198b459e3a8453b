// dissolvevet 检查 dissolve 注解，可单独运行，也可通过 go vet -vettool 使用
package main

import (
	"github.com/donutnomad/dissolvegen/pkg/dissolveanalysis"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(dissolveanalysis.Analyzer)
}
