package dissolvegen

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/donutnomad/dissolvegen/internal/structparse"
	"github.com/donutnomad/dissolvegen/internal/utils"
)

// Declaration 一次展开的输入
type Declaration struct {
	Fset    *token.FileSet
	Doc     *ast.CommentGroup // 类型文档注释
	Spec    *ast.TypeSpec
	Imports structparse.ImportMap // 为 nil 时包限定类型按源码文本输出
}

// NewDeclaration 由加载的类型声明构造展开输入
func NewDeclaration(info *structparse.DeclInfo) *Declaration {
	return &Declaration{
		Fset:    info.Fset,
		Doc:     info.Doc,
		Spec:    info.Spec,
		Imports: info.Imports,
	}
}

// ResolvedField 保留下来的字段
type ResolvedField struct {
	Index      int    // 在全部字段中的位置（多名字段按名字展开）
	SourceName string // 源结构体中的字段名，嵌入字段为隐式名称
	OutputName string // 伴生结构体中的字段名，仅命名形态
	Type       ast.Expr
	Doc        *ast.CommentGroup
	Comment    *ast.CommentGroup
	Embedded   bool

	site span // 字段名或 rename 注解的位置
}

// Expansion 一个声明的展开结果
type Expansion struct {
	TypeName      string
	CompanionName string // 仅命名形态
	MethodName    string
	Receiver      string
	Shape         Shape
	Visibility    Visibility
	Fields        []ResolvedField

	imports map[string]*structparse.ImportInfo
	code    []jen.Code
}

// Code 生成的顶层声明（含文档注释），按输出顺序排列
func (e *Expansion) Code() []jen.Code {
	return e.code
}

// Imports 生成代码用到的导入，按导入路径排序
func (e *Expansion) Imports() []*structparse.ImportInfo {
	out := make([]*structparse.ImportInfo, 0, len(e.imports))
	for _, path := range utils.SortedKeys(e.imports) {
		out = append(out, e.imports[path])
	}
	return out
}

// Expand 校验声明上的注解并合成伴生类型与转换方法
// 任何错误都会使整个声明被拒绝，不产生部分输出
func Expand(decl *Declaration) (*Expansion, error) {
	rep := reporter{fset: decl.Fset}
	spec := decl.Spec

	if err := checkMarker(rep, decl.Doc); err != nil {
		return nil, err
	}
	shape, err := ClassifyShape(decl.Fset, spec)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseContainer(decl.Fset, decl.Doc)
	if err != nil {
		return nil, err
	}

	exp := &Expansion{
		TypeName:   spec.Name.Name,
		MethodName: cfg.Visibility.MethodName(),
		Shape:      shape,
		Visibility: cfg.Visibility,
	}
	if shape == ShapeNamed {
		exp.CompanionName = exp.TypeName + CompanionSuffix
	}

	exp.Fields, err = resolveFields(rep, exp, spec.Type.(*ast.StructType))
	if err != nil {
		return nil, err
	}
	if len(exp.Fields) == 0 {
		if shape == ShapePositional {
			return nil, rep.errorf(spec.Name, "cannot create dissolved result with no fields (all positional fields are skipped)")
		}
		return nil, rep.errorf(spec.Name, "cannot create dissolved struct with no fields (all fields are skipped)")
	}
	if err := assignOutputNames(rep, exp); err != nil {
		return nil, err
	}

	synthesize(exp, decl)
	return exp, nil
}

// resolveFields 解析每个字段的注解，返回按声明顺序保留的字段
func resolveFields(rep reporter, exp *Expansion, st *ast.StructType) ([]ResolvedField, error) {
	var (
		out   []ResolvedField
		index int
	)
	for _, f := range st.Fields.List {
		opts, err := ParseFieldOptions(rep.fset, f)
		if err != nil {
			return nil, err
		}
		dec, err := ResolveField(rep.fset, opts)
		if err != nil {
			return nil, err
		}

		if dec.Rename != "" {
			if exp.Shape == ShapePositional {
				return nil, rep.errorf(f, "rename is unsupported for positional struct fields, only skip is allowed")
			}
			if len(f.Names) > 1 {
				return nil, rep.errorf(dec.renameSpan(), "cannot rename field list %s declaring multiple fields; declare them separately", joinNames(f.Names))
			}
		}

		for k, name := range fieldNames(f) {
			i := index
			index++
			site := span{pos: f.Type.Pos(), end: f.Type.End()}
			if len(f.Names) > 0 {
				site = span{pos: f.Names[k].Pos(), end: f.Names[k].End()}
			}
			// 跳过的字段仍在源类型上，同样会与方法同名
			if name == exp.MethodName {
				return nil, rep.errorf(site, "field %s conflicts with the generated method %s.%s; rename the field or change the visibility", name, exp.TypeName, exp.MethodName)
			}
			if dec.Skip {
				continue
			}
			rf := ResolvedField{
				Index:      i,
				SourceName: name,
				OutputName: dec.Rename,
				Type:       f.Type,
				Doc:        f.Doc,
				Comment:    f.Comment,
				Embedded:   len(f.Names) == 0,
				site:       site,
			}
			if dec.Rename != "" {
				rf.site = dec.renameSpan()
			} else {
				rf.OutputName = name
			}
			out = append(out, rf)
		}
	}
	return out, nil
}

// assignOutputNames 命名形态下伴生结构体的字段全部导出，导出后不能重名
func assignOutputNames(rep reporter, exp *Expansion) error {
	if exp.Shape != ShapeNamed {
		for i := range exp.Fields {
			exp.Fields[i].OutputName = ""
		}
		return nil
	}
	seen := make(map[string]bool, len(exp.Fields))
	for i, rf := range exp.Fields {
		exported, ok := utils.ExportName(rf.OutputName)
		if !ok {
			return rep.errorf(rf.site, "field %s cannot be exported in %s; use @dissolved(rename = \"...\")", rf.OutputName, exp.CompanionName)
		}
		if seen[exported] {
			return rep.errorf(rf.site, "duplicate field %s in %s", exported, exp.CompanionName)
		}
		seen[exported] = true
		exp.Fields[i].OutputName = exported
	}
	return nil
}

// fieldNames 字段列表声明的全部字段名，嵌入字段取隐式名称
func fieldNames(f *ast.Field) []string {
	if len(f.Names) == 0 {
		return []string{embeddedName(f.Type)}
	}
	names := make([]string, 0, len(f.Names))
	for _, n := range f.Names {
		names = append(names, n.Name)
	}
	return names
}

// embeddedName 嵌入字段的隐式名称：*pkg.T[int] -> T
func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	case *ast.ParenExpr:
		return embeddedName(t.X)
	}
	return "_"
}

func joinNames(names []*ast.Ident) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n.Name)
	}
	return strings.Join(parts, ", ")
}
