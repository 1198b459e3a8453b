package dissolvegen

import (
	"bytes"
	"fmt"
	"go/ast"

	"github.com/dave/jennifer/jen"
	"github.com/donutnomad/dissolvegen/internal/utils"
	"github.com/samber/lo"
)

// literalOptions 多行复合字面量，保持字段顺序并带尾随逗号
var literalOptions = jen.Options{
	Open:      "{",
	Close:     "}",
	Separator: ",",
	Multi:     true,
}

// synthesize 生成伴生类型与转换方法
func synthesize(exp *Expansion, decl *Declaration) {
	spec := decl.Spec
	conv := newTypeConverter(decl.Imports)

	taken := make(map[string]bool)
	var targs []jen.Code
	if spec.TypeParams != nil {
		for _, f := range spec.TypeParams.List {
			for _, n := range f.Names {
				targs = append(targs, jen.Id(n.Name))
			}
			referencedIdents(f, taken)
		}
	}
	for _, f := range spec.Type.(*ast.StructType).Fields.List {
		referencedIdents(f.Type, taken)
	}
	exp.Receiver = utils.ReceiverName(exp.TypeName, taken)

	recv := jen.Id(exp.Receiver).Add(withTypes(jen.Id(exp.TypeName), targs))
	switch exp.Shape {
	case ShapeNamed:
		exp.code = append(exp.code, companionDecl(exp, conv, conv.fieldList(spec.TypeParams))...)
		exp.code = append(exp.code, jen.Line())
		exp.code = append(exp.code, methodDoc(exp, fmt.Sprintf("将未被跳过的字段移入 %s 并返回。", exp.CompanionName))...)
		items := lo.Map(exp.Fields, func(rf ResolvedField, _ int) jen.Code {
			return jen.Id(rf.OutputName).Op(":").Id(exp.Receiver).Dot(rf.SourceName)
		})
		companion := withTypes(jen.Id(exp.CompanionName), targs)
		exp.code = append(exp.code,
			jen.Func().Params(recv).Id(exp.MethodName).Params().Add(companion).Block(
				jen.Return(withTypes(jen.Id(exp.CompanionName), targs).Custom(literalOptions, items...)),
			),
		)
	case ShapePositional:
		exp.code = append(exp.code, methodDoc(exp, "按声明顺序返回未被跳过的字段。")...)
		results := lo.Map(exp.Fields, func(rf ResolvedField, _ int) jen.Code {
			return conv.code(rf.Type)
		})
		values := lo.Map(exp.Fields, func(rf ResolvedField, _ int) jen.Code {
			return jen.Id(exp.Receiver).Dot(rf.SourceName)
		})
		sig := jen.Func().Params(recv).Id(exp.MethodName).Params()
		if len(results) == 1 {
			sig = sig.Add(results[0])
		} else {
			sig = sig.Params(results...)
		}
		exp.code = append(exp.code, sig.Block(jen.Return(values...)))
	}
	exp.imports = conv.used
}

// companionDecl 伴生结构体声明，字段注释原样复制（去掉 @dissolved 指令）
func companionDecl(exp *Expansion, conv *typeConverter, tparams []jen.Code) []jen.Code {
	code := commentLines(
		fmt.Sprintf("%s 是 %s 拆解后的结构体，由 dissolvegen 生成。", exp.CompanionName, exp.TypeName),
		"",
		fmt.Sprintf("只包含 %s 中未被跳过的字段，按声明顺序排列；", exp.TypeName),
		"重命名的字段使用新名称，所有字段均为导出字段。",
	)

	fields := make([]jen.Code, 0, len(exp.Fields))
	for _, rf := range exp.Fields {
		for _, c := range keptComments(rf.Doc) {
			fields = append(fields, jen.Comment(c.Text))
		}
		line := jen.Id(rf.OutputName).Add(conv.code(rf.Type))
		for _, c := range keptComments(rf.Comment) {
			line = line.Comment(c.Text)
		}
		fields = append(fields, line)
	}

	decl := jen.Type().Add(withTypes(jen.Id(exp.CompanionName), tparams)).Struct(fields...)
	return append(code, decl)
}

// methodDoc 转换方法的文档注释，受限可见性会在注释中注明
func methodDoc(exp *Expansion, action string) []jen.Code {
	lines := []string{fmt.Sprintf("%s 消费 %s，%s", exp.MethodName, exp.TypeName, action)}
	if !exp.Visibility.Exported() {
		requested := exp.Visibility.String()
		if exp.Visibility == VisibilityPrivate {
			requested = "私有"
		}
		lines = append(lines, "", fmt.Sprintf("请求的可见性为 %s，生成为包内方法。", requested))
	}
	return commentLines(lines...)
}

func commentLines(lines ...string) []jen.Code {
	return lo.Map(lines, func(line string, _ int) jen.Code {
		if line == "" {
			return jen.Comment("//")
		}
		return jen.Comment(line)
	})
}

// withTypes 仅在存在类型参数时追加 [...]
func withTypes(s *jen.Statement, params []jen.Code) *jen.Statement {
	if len(params) == 0 {
		return s
	}
	return s.Types(params...)
}

// referencedIdents 收集节点中出现的全部标识符，接收者名称需要避开它们
func referencedIdents(node ast.Node, into map[string]bool) {
	ast.Inspect(node, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			into[id.Name] = true
		}
		return true
	})
}

// RenderFile 将同一包的多个展开结果渲染为一个 Go 源文件
func RenderFile(pkgName string, exps []*Expansion) ([]byte, error) {
	f := jen.NewFile(pkgName)
	for _, exp := range exps {
		for _, info := range exp.Imports() {
			if info.Alias != "" {
				f.ImportAlias(info.ImportPath, info.Alias)
			} else {
				f.ImportName(info.ImportPath, info.PackageName)
			}
		}
	}
	for i, exp := range exps {
		if i > 0 {
			f.Line()
		}
		for _, c := range exp.Code() {
			f.Add(c)
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("渲染 %s 失败: %w", pkgName, err)
	}
	return buf.Bytes(), nil
}
