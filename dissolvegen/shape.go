package dissolvegen

import (
	"go/ast"
	"go/token"
)

// Shape 结构体的字段形态
type Shape int

const (
	// ShapeNamed 至少有一个显式命名字段
	ShapeNamed Shape = iota + 1
	// ShapePositional 全部为嵌入字段，按位置访问
	ShapePositional
)

func (s Shape) String() string {
	switch s {
	case ShapeNamed:
		return "named"
	case ShapePositional:
		return "positional"
	}
	return "unknown"
}

// ClassifyShape 判断类型声明的形态，非结构体与空结构体直接拒绝
func ClassifyShape(fset *token.FileSet, spec *ast.TypeSpec) (Shape, error) {
	rep := reporter{fset: fset}
	name := spec.Name.Name

	if spec.Assign.IsValid() {
		return 0, rep.errorf(spec.Name, "Dissolve can only be applied to struct types, %s is a type alias", name)
	}
	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return 0, rep.errorf(spec.Name, "Dissolve can only be applied to struct types, %s is %s", name, describeKind(spec.Type))
	}
	if st.Fields == nil || len(st.Fields.List) == 0 {
		return 0, rep.errorf(spec.Name, "Dissolve cannot be applied to empty struct %s: it has no fields to dissolve", name)
	}
	for _, f := range st.Fields.List {
		if len(f.Names) > 0 {
			return ShapeNamed, nil
		}
	}
	return ShapePositional, nil
}

// describeKind 非结构体类型的描述
func describeKind(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.InterfaceType:
		return "an interface"
	case *ast.FuncType:
		return "a function type"
	case *ast.MapType:
		return "a map type"
	case *ast.ChanType:
		return "a channel type"
	case *ast.ArrayType:
		if t.Len == nil {
			return "a slice type"
		}
		return "an array type"
	case *ast.StarExpr:
		return "a pointer type"
	case *ast.ParenExpr:
		return describeKind(t.X)
	}
	return "a defined non-struct type"
}
