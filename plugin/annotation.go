package plugin

import (
	"go/ast"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// ParseAnnotations 从注释文本中解析注解
//
// 注解形如 @Name 或 @Name(key=value, ...)。只有以 @ 开头的注释行才是注解行，
// 行内其余的 @ 必须位于空白之后，因此说明文字与邮箱地址不会被识别。
// 值可以用反引号或双引号包裹，引号内的逗号和括号不参与分割。
func ParseAnnotations(comment string) []*Annotation {
	var annotations []*Annotation
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(strings.TrimSpace(line), "*")
		annotations = append(annotations, scanLine(strings.TrimSpace(line))...)
	}
	return annotations
}

func scanLine(line string) []*Annotation {
	if !strings.HasPrefix(line, "@") {
		return nil
	}
	var out []*Annotation
	for i := 0; i < len(line); i++ {
		if line[i] != '@' || (i > 0 && !unicode.IsSpace(rune(line[i-1]))) {
			continue
		}
		end := i + 1
		for end < len(line) && isWordByte(line[end]) {
			end++
		}
		if end == i+1 {
			continue
		}
		ann := &Annotation{Name: line[i+1 : end], Params: make(map[string]string)}
		if end < len(line) && line[end] == '(' {
			if closeAt := closingParen(line, end); closeAt > 0 {
				ann.Params = parseParams(line[end+1 : closeAt])
				end = closeAt + 1
			}
		}
		ann.Raw = line[i:end]
		out = append(out, ann)
		i = end - 1
	}
	return out
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// closingParen 返回与 open 处左括号配对的右括号下标，未闭合时返回 -1
func closingParen(s string, open int) int {
	var quote byte
	for i := open + 1; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '`' || c == '"':
			quote = c
		case c == ')':
			return i
		}
	}
	return -1
}

// parseParams 解析 key=value 列表，键统一转为小写
func parseParams(content string) map[string]string {
	params := make(map[string]string)
	for _, item := range splitOutsideQuotes(content, ',') {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if n := len(value); n >= 2 && (value[0] == '`' || value[0] == '"') && value[n-1] == value[0] {
			value = value[1 : n-1]
		} else if f := strings.Fields(value); len(f) > 0 {
			value = f[0]
		}
		params[strings.ToLower(key)] = value
	}
	return params
}

func splitOutsideQuotes(s string, sep byte) []string {
	var (
		parts []string
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '`' || c == '"':
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// ParseAnnotationsFromDoc 逐条解析注释
// CommentGroup.Text() 会丢掉 //go: 指令行，所以不用它
func ParseAnnotationsFromDoc(doc *ast.CommentGroup) []*Annotation {
	if doc == nil {
		return nil
	}
	return lo.FlatMap(doc.List, func(c *ast.Comment, _ int) []*Annotation {
		return ParseAnnotations(c.Text)
	})
}

// FilterByNames 保留名称在 names 中的注解，names 为空时原样返回
func FilterByNames(annotations []*Annotation, names ...string) []*Annotation {
	if len(names) == 0 {
		return annotations
	}
	return lo.Filter(annotations, func(a *Annotation, _ int) bool {
		return lo.Contains(names, a.Name)
	})
}

func HasAnnotation(annotations []*Annotation, name string) bool {
	return GetAnnotation(annotations, name) != nil
}

// GetAnnotation 第一个名为 name 的注解
func GetAnnotation(annotations []*Annotation, name string) *Annotation {
	ann, _ := lo.Find(annotations, func(a *Annotation) bool { return a.Name == name })
	return ann
}

// GetParam 参数名不区分大小写，nil 注解返回空字符串
func (a *Annotation) GetParam(key string) string {
	return a.GetParamOr(key, "")
}

func (a *Annotation) GetParamOr(key, defaultValue string) string {
	if a == nil {
		return defaultValue
	}
	if v, ok := a.Params[strings.ToLower(key)]; ok {
		return v
	}
	return defaultValue
}

func (a *Annotation) HasParam(key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.Params[strings.ToLower(key)]
	return ok
}
