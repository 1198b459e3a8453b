package dissolvegen

import (
	"go/ast"
	"go/token"
)

// CheckUnmarked 报告未标记 @Dissolve 的声明上残留的 @dissolve 与 @dissolved 注解
// 这些注解不会触发生成，通常是漏写了标记
func CheckUnmarked(fset *token.FileSet, doc *ast.CommentGroup, spec *ast.TypeSpec) []*Diagnostic {
	rep := reporter{fset: fset}
	var out []*Diagnostic

	report := func(group *ast.CommentGroup, name string) {
		if group == nil {
			return
		}
		for _, c := range group.List {
			for _, hit := range findTags(c.Text) {
				if hit.name != name {
					continue
				}
				at := span{pos: c.Slash + token.Pos(hit.at), end: c.Slash + token.Pos(hit.at+1+len(hit.name))}
				out = append(out, rep.errorf(at, "@%s annotation has no effect without @%s", name, TagMarker))
			}
		}
	}

	report(doc, TagContainer)
	if st, ok := spec.Type.(*ast.StructType); ok && st.Fields != nil {
		for _, f := range st.Fields.List {
			report(f.Doc, TagField)
			report(f.Comment, TagField)
		}
	}
	return out
}
