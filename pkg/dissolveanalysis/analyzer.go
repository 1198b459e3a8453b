// Package dissolveanalysis 以 go/analysis 的形式提供 dissolve 注解检查
//
// 它复用生成器的展开逻辑，在编辑器或 go vet 中直接报告注解错误，不写任何文件。
package dissolveanalysis

import (
	"errors"
	"go/ast"
	"go/token"

	"github.com/donutnomad/dissolvegen/dissolvegen"
	"github.com/donutnomad/dissolvegen/plugin"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const doc = `check @Dissolve, @dissolve and @dissolved annotations

Reports every declaration that dissolvegen would reject, at the annotation,
field or type name responsible, and flags @dissolve/@dissolved annotations
on declarations that are not marked with @Dissolve.`

var Analyzer = &analysis.Analyzer{
	Name:     "dissolve",
	Doc:      doc,
	URL:      "https://pkg.go.dev/github.com/donutnomad/dissolvegen/pkg/dissolveanalysis",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	ins := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	skipped := make(map[*token.File]bool)
	for _, f := range pass.Files {
		tf := pass.Fset.File(f.Pos())
		if tf == nil {
			continue
		}
		// 与扫描器一致：测试文件与生成文件不参与
		skipped[tf] = !plugin.IsSourceFile(tf.Name()) || ast.IsGenerated(f)
	}

	ins.Preorder([]ast.Node{(*ast.GenDecl)(nil)}, func(n ast.Node) {
		decl := n.(*ast.GenDecl)
		if decl.Tok != token.TYPE || skipped[pass.Fset.File(decl.Pos())] {
			return
		}
		for _, s := range decl.Specs {
			spec := s.(*ast.TypeSpec)
			doc := spec.Doc
			if doc == nil {
				doc = decl.Doc
			}
			checkSpec(pass, doc, spec)
		}
	})
	return nil, nil
}

func checkSpec(pass *analysis.Pass, doc *ast.CommentGroup, spec *ast.TypeSpec) {
	if !plugin.HasAnnotation(plugin.ParseAnnotationsFromDoc(doc), dissolvegen.TagMarker) {
		for _, d := range dissolvegen.CheckUnmarked(pass.Fset, doc, spec) {
			report(pass, d)
		}
		return
	}

	// 导入表为空时类型按源码文本输出，这里只关心校验结果
	_, err := dissolvegen.Expand(&dissolvegen.Declaration{
		Fset: pass.Fset,
		Doc:  doc,
		Spec: spec,
	})
	if err == nil {
		return
	}
	var d *dissolvegen.Diagnostic
	if errors.As(err, &d) {
		report(pass, d)
		return
	}
	pass.Reportf(spec.Name.Pos(), "%v", err)
}

func report(pass *analysis.Pass, d *dissolvegen.Diagnostic) {
	pass.Report(analysis.Diagnostic{
		Pos:      d.Pos,
		End:      d.End,
		Category: "dissolve",
		Message:  d.Message,
	})
}
