package dissolvegen

import (
	"fmt"
	"go/token"
)

// Diagnostic 定位到源码位置的展开错误
// Pos/End 指向出错的注解、字段或类型名
type Diagnostic struct {
	Pos      token.Pos
	End      token.Pos
	Position token.Position
	Message  string
}

func (d *Diagnostic) Error() string {
	if d.Position.IsValid() {
		return fmt.Sprintf("%s: %s", d.Position, d.Message)
	}
	return d.Message
}

type positioner interface {
	Pos() token.Pos
	End() token.Pos
}

// span 注释文本内部的一段区间
type span struct {
	pos, end token.Pos
}

func (s span) Pos() token.Pos { return s.pos }
func (s span) End() token.Pos { return s.end }

// reporter 将节点位置转换为 Diagnostic
type reporter struct {
	fset *token.FileSet
}

func (r reporter) errorf(n positioner, format string, args ...any) *Diagnostic {
	d := &Diagnostic{
		Pos:     n.Pos(),
		End:     n.End(),
		Message: fmt.Sprintf(format, args...),
	}
	if r.fset != nil && d.Pos.IsValid() {
		d.Position = r.fset.Position(d.Pos)
	}
	return d
}
