package dissolvegen

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/samber/lo"
)

// Visibility 转换方法的可见性
type Visibility int

const (
	VisibilityPublic  Visibility = iota // "pub"
	VisibilityCrate                     // "pub(crate)"
	VisibilitySuper                     // "pub(super)"
	VisibilitySelf                      // "pub(self)"
	VisibilityPrivate                   // ""
)

type visibilityForm struct {
	vis  Visibility
	text string
}

var visibilityForms = []visibilityForm{
	{VisibilityPublic, "pub"},
	{VisibilityCrate, "pub(crate)"},
	{VisibilitySuper, "pub(super)"},
	{VisibilitySelf, "pub(self)"},
	{VisibilityPrivate, ""},
}

// supportedVisibilities 错误信息中列出的全部合法写法
var supportedVisibilities = func() string {
	quoted := lo.FilterMap(visibilityForms, func(f visibilityForm, _ int) (string, bool) {
		return fmt.Sprintf("%q", f.text), f.vis != VisibilityPrivate
	})
	return fmt.Sprintf(`Supported: %s or "" for private`, strings.Join(quoted, ", "))
}()

func (v Visibility) String() string {
	for _, f := range visibilityForms {
		if f.vis == v {
			return f.text
		}
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// Exported 只有 pub 生成导出方法，其余受限形式都收敛为包内可见
func (v Visibility) Exported() bool {
	return v == VisibilityPublic
}

// MethodName 转换方法名
func (v Visibility) MethodName() string {
	if v.Exported() {
		return "Dissolve"
	}
	return "dissolve"
}

// ParseVisibility 解析 visibility 字符串的内容，空白不敏感
func ParseVisibility(s string) (Visibility, error) {
	lx := newLexer(s, false)
	var toks []lexeme
	for {
		t := lx.next()
		if t.tok == token.EOF {
			break
		}
		if t.tok == token.ILLEGAL {
			return 0, errors.New(t.lit)
		}
		toks = append(toks, t)
	}

	if len(toks) == 0 {
		return VisibilityPrivate, nil
	}
	if toks[0].tok != token.IDENT || toks[0].lit != "pub" {
		return 0, fmt.Errorf("expected `pub`, found `%s`", toks[0])
	}
	if len(toks) == 1 {
		return VisibilityPublic, nil
	}
	if toks[1].tok != token.LPAREN {
		return 0, fmt.Errorf("unexpected `%s` after `pub`", toks[1])
	}
	if len(toks) < 3 {
		return 0, errors.New("expected restriction after `pub(`")
	}

	scope := toks[2]
	var vis Visibility
	switch {
	case scope.tok == token.IDENT && scope.lit == "crate":
		vis = VisibilityCrate
	case scope.tok == token.IDENT && scope.lit == "super":
		vis = VisibilitySuper
	case scope.tok == token.IDENT && scope.lit == "self":
		vis = VisibilitySelf
	case scope.tok == token.IDENT && scope.lit == "in":
		return 0, errors.New("path restrictions `pub(in ...)` are not supported")
	default:
		return 0, fmt.Errorf("unknown restriction `%s`", scope)
	}

	if len(toks) < 4 || toks[3].tok != token.RPAREN {
		return 0, fmt.Errorf("expected `)` after `%s`", scope.lit)
	}
	if len(toks) > 4 {
		return 0, fmt.Errorf("unexpected `%s` after `pub(%s)`", toks[4], scope.lit)
	}
	return vis, nil
}
