package dissolvegen

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/dave/jennifer/jen"
	"github.com/donutnomad/dissolvegen/internal/structparse"
)

// typeConverter 将源码中的类型表达式转换为 jen 代码
// 包限定标识符通过导入表解析为 Qual，并记录用到的导入
type typeConverter struct {
	imports structparse.ImportMap
	used    map[string]*structparse.ImportInfo // key: 导入路径
}

func newTypeConverter(imports structparse.ImportMap) *typeConverter {
	return &typeConverter{
		imports: imports,
		used:    make(map[string]*structparse.ImportInfo),
	}
}

func (c *typeConverter) code(expr ast.Expr) *jen.Statement {
	switch t := expr.(type) {
	case nil:
		return jen.Null()
	case *ast.Ident:
		return jen.Id(t.Name)
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok {
			if info, ok := c.imports.Lookup(pkg.Name); ok {
				c.used[info.ImportPath] = info
				return jen.Qual(info.ImportPath, t.Sel.Name)
			}
		}
		return c.code(t.X).Dot(t.Sel.Name)
	case *ast.StarExpr:
		return jen.Op("*").Add(c.code(t.X))
	case *ast.ParenExpr:
		return jen.Parens(c.code(t.X))
	case *ast.ArrayType:
		if t.Len == nil {
			return jen.Index().Add(c.code(t.Elt))
		}
		return jen.Index(c.code(t.Len)).Add(c.code(t.Elt))
	case *ast.Ellipsis:
		if t.Elt == nil {
			return jen.Op("...")
		}
		return jen.Op("...").Add(c.code(t.Elt))
	case *ast.MapType:
		return jen.Map(c.code(t.Key)).Add(c.code(t.Value))
	case *ast.ChanType:
		switch t.Dir {
		case ast.SEND:
			return jen.Chan().Op("<-").Add(c.code(t.Value))
		case ast.RECV:
			return jen.Op("<-").Chan().Add(c.code(t.Value))
		}
		return jen.Chan().Add(c.code(t.Value))
	case *ast.FuncType:
		return c.signature(jen.Func(), t)
	case *ast.InterfaceType:
		return jen.Interface(c.interfaceElems(t.Methods)...)
	case *ast.StructType:
		return jen.Struct(c.structFields(t.Fields)...)
	case *ast.IndexExpr:
		return c.code(t.X).Types(c.code(t.Index))
	case *ast.IndexListExpr:
		return c.code(t.X).Types(c.list(t.Indices)...)
	case *ast.BinaryExpr:
		return c.code(t.X).Op(t.Op.String()).Add(c.code(t.Y))
	case *ast.UnaryExpr:
		return jen.Op(t.Op.String()).Add(c.code(t.X))
	case *ast.BasicLit:
		return jen.Op(t.Value)
	}
	// 数组长度中的常量表达式等，按源码文本输出
	return jen.Op(types.ExprString(expr))
}

func (c *typeConverter) list(exprs []ast.Expr) []jen.Code {
	out := make([]jen.Code, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, c.code(e))
	}
	return out
}

// fieldList 参数列表、结果列表与类型参数列表
func (c *typeConverter) fieldList(fl *ast.FieldList) []jen.Code {
	if fl == nil {
		return nil
	}
	var out []jen.Code
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			out = append(out, c.code(f.Type))
			continue
		}
		out = append(out, jen.List(identList(f.Names)...).Add(c.code(f.Type)))
	}
	return out
}

func (c *typeConverter) signature(s *jen.Statement, ft *ast.FuncType) *jen.Statement {
	s = s.Params(c.fieldList(ft.Params)...)
	if ft.Results == nil || len(ft.Results.List) == 0 {
		return s
	}
	if len(ft.Results.List) == 1 && len(ft.Results.List[0].Names) == 0 {
		return s.Add(c.code(ft.Results.List[0].Type))
	}
	return s.Params(c.fieldList(ft.Results)...)
}

func (c *typeConverter) interfaceElems(fl *ast.FieldList) []jen.Code {
	if fl == nil {
		return nil
	}
	var out []jen.Code
	for _, f := range fl.List {
		if ft, ok := f.Type.(*ast.FuncType); ok && len(f.Names) > 0 {
			out = append(out, c.signature(jen.Id(f.Names[0].Name), ft))
			continue
		}
		out = append(out, c.code(f.Type))
	}
	return out
}

// structFields 匿名结构体的字段，标签属于类型的一部分，原样保留
func (c *typeConverter) structFields(fl *ast.FieldList) []jen.Code {
	if fl == nil {
		return nil
	}
	var out []jen.Code
	for _, f := range fl.List {
		var s *jen.Statement
		if len(f.Names) == 0 {
			s = c.code(f.Type)
		} else {
			s = jen.List(identList(f.Names)...).Add(c.code(f.Type))
		}
		if f.Tag != nil && f.Tag.Kind == token.STRING {
			s = s.Op(f.Tag.Value)
		}
		out = append(out, s)
	}
	return out
}

func identList(names []*ast.Ident) []jen.Code {
	out := make([]jen.Code, 0, len(names))
	for _, n := range names {
		out = append(out, jen.Id(n.Name))
	}
	return out
}

