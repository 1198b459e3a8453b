package dissolvegen

import (
	"go/ast"
	"go/token"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tagHit 注释文本中一个 @name 出现的位置
type tagHit struct {
	name string
	at   int // '@' 在注释文本中的字节偏移
}

// findTags 查找注释中的 @name
//
// 只有以 @ 开头的行（去掉注释前缀、块注释续行的 * 和空白后）才是注解行，
// 说明文字中提到的 @name 不算。注解行内位于空白之后的 @name 都会被识别。
func findTags(text string) []tagHit {
	var hits []tagHit
	for lineStart := 0; lineStart < len(text); {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}
		hits = append(hits, lineTags(text, lineStart, lineEnd)...)
		lineStart = lineEnd + 1
	}
	return hits
}

// lineTags 扫描 text[start:end] 这一行，偏移相对于整段注释
func lineTags(text string, start, end int) []tagHit {
	i := start
	if i == 0 && len(text) >= 2 && (text[:2] == "//" || text[:2] == "/*") {
		i = 2
	}
	i = skipBlank(text, i, end)
	// 块注释续行
	if start > 0 && i < end && text[i] == '*' {
		i = skipBlank(text, i+1, end)
	}
	if i >= end || text[i] != '@' {
		return nil
	}

	var hits []tagHit
	for first := i; i < end; i++ {
		if text[i] != '@' {
			continue
		}
		if i != first {
			prev, _ := utf8.DecodeLastRuneInString(text[:i])
			if !unicode.IsSpace(prev) {
				continue
			}
		}
		j := i + 1
		for j < end {
			r, size := utf8.DecodeRuneInString(text[j:end])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			j += size
		}
		if j > i+1 {
			hits = append(hits, tagHit{name: text[i+1 : j], at: i})
			i = j - 1
		}
	}
	return hits
}

func skipBlank(text string, i, end int) int {
	for i < end && (text[i] == ' ' || text[i] == '\t' || text[i] == '\r') {
		i++
	}
	return i
}

// hasTag 注释组中是否出现指定注解
func hasTag(group *ast.CommentGroup, name string) bool {
	if group == nil {
		return false
	}
	for _, c := range group.List {
		for _, hit := range findTags(c.Text) {
			if hit.name == name {
				return true
			}
		}
	}
	return false
}

type tagForm int

const (
	formBare      tagForm = iota // @tag
	formList                     // @tag(...)
	formNameValue                // @tag = ...
)

type entryKind int

const (
	entryPath      entryKind = iota // skip
	entryNameValue                  // rename = "x"
	entryList                       // key(...)
)

// annotation 一次注解出现
type annotation struct {
	name    string
	form    tagForm
	entries []entry
	pos     token.Pos
	end     token.Pos
}

func (a *annotation) Pos() token.Pos { return a.pos }
func (a *annotation) End() token.Pos { return a.end }

// entry 列表中的一项
type entry struct {
	kind  entryKind
	path  string
	value lexeme // 仅 entryNameValue 有效
	vspan span
	pos   token.Pos
	end   token.Pos
}

func (e entry) Pos() token.Pos { return e.pos }
func (e entry) End() token.Pos { return e.end }

// stringValue 返回字符串字面量的值，非字符串字面量返回 false
func (e entry) stringValue() (string, bool) {
	if e.value.tok != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(e.value.lit)
	if err != nil {
		return "", false
	}
	return s, true
}

// parseAnnotations 解析注释组中所有指定名称的注解，按文本顺序返回
func parseAnnotations(rep reporter, group *ast.CommentGroup, names ...string) ([]*annotation, error) {
	if group == nil {
		return nil, nil
	}
	var out []*annotation
	for _, c := range group.List {
		for _, hit := range findTags(c.Text) {
			if !slices.Contains(names, hit.name) {
				continue
			}
			a, err := parseAnnotation(rep, c, hit)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}
	return out, nil
}

func parseAnnotation(rep reporter, c *ast.Comment, hit tagHit) (*annotation, error) {
	text := c.Text
	lineEnd := len(text)
	if idx := strings.IndexByte(text[hit.at:], '\n'); idx >= 0 {
		lineEnd = hit.at + idx
	} else if strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/") && lineEnd-2 > hit.at {
		lineEnd -= 2
	}

	nameEnd := hit.at + 1 + len(hit.name)
	a := &annotation{
		name: hit.name,
		form: formBare,
		pos:  c.Slash + token.Pos(hit.at),
		end:  c.Slash + token.Pos(nameEnd),
	}

	// 列表形式要求括号紧跟注解名，避免把说明文字中的括号当作参数
	if nameEnd < lineEnd && text[nameEnd] == '(' {
		a.form = formList
		return a, parseList(rep, a, text[nameEnd:lineEnd], c.Slash+token.Pos(nameEnd))
	}
	k := nameEnd
	for k < lineEnd && (text[k] == ' ' || text[k] == '\t') {
		k++
	}
	if k < lineEnd && text[k] == '=' && (k+1 == lineEnd || text[k+1] != '=') {
		a.form = formNameValue
		a.end = c.Slash + token.Pos(lineEnd)
	}
	return a, nil
}

// parseList 解析 "(entry, entry, ...)"，src 以左括号开头，base 为左括号的位置
func parseList(rep reporter, a *annotation, src string, base token.Pos) error {
	lx := newLexer(src, true)
	at := func(t lexeme) span {
		return span{pos: base + token.Pos(t.off), end: base + token.Pos(t.end)}
	}
	unterminated := func() error {
		return rep.errorf(a, "malformed @%s annotation: missing closing ')'", a.name)
	}
	unexpected := func(t lexeme) error {
		if t.tok == token.EOF {
			return unterminated()
		}
		if t.tok == token.ILLEGAL {
			return rep.errorf(at(t), "malformed @%s annotation: %s", a.name, t.lit)
		}
		return rep.errorf(at(t), "malformed @%s annotation: unexpected `%s`", a.name, t)
	}
	// skipBalanced 跳过到当前层级的 ',' 或 ')' 之前，返回最后消费的词法单元
	skipBalanced := func(last lexeme, depth int) (lexeme, error) {
		for {
			t := lx.peek()
			switch t.tok {
			case token.EOF, token.ILLEGAL:
				return last, unexpected(t)
			case token.LPAREN, token.LBRACK, token.LBRACE:
				depth++
			case token.RPAREN, token.RBRACK, token.RBRACE:
				if depth == 0 {
					return last, nil
				}
				depth--
			case token.COMMA:
				if depth == 0 {
					return last, nil
				}
			}
			last = lx.next()
		}
	}

	lx.next() // '('
	for {
		t := lx.next()
		switch t.tok {
		case token.RPAREN:
			a.end = base + token.Pos(t.end)
			return nil
		case token.IDENT:
		default:
			return unexpected(t)
		}

		e := entry{kind: entryPath, path: t.lit, pos: at(t).pos, end: at(t).end}
		for lx.peek().tok == token.PERIOD {
			lx.next()
			id := lx.next()
			if id.tok != token.IDENT {
				return unexpected(id)
			}
			e.path += "." + id.lit
			e.end = at(id).end
		}

		switch lx.peek().tok {
		case token.ASSIGN:
			lx.next()
			v := lx.next()
			switch v.tok {
			case token.EOF, token.ILLEGAL, token.COMMA, token.RPAREN:
				return unexpected(v)
			}
			e.kind = entryNameValue
			e.value = v
			last := v
			if v.tok != token.STRING || !isSeparator(lx.peek().tok) {
				depth := 0
				if v.tok == token.LPAREN || v.tok == token.LBRACK || v.tok == token.LBRACE {
					depth = 1
				}
				var err error
				if last, err = skipBalanced(v, depth); err != nil {
					return err
				}
				// 多个词法单元组成的值一律视为非字符串字面量
				if last != v {
					e.value = lexeme{tok: token.ILLEGAL, lit: src[v.off:last.end], off: v.off, end: last.end}
				}
			}
			e.vspan = span{pos: at(v).pos, end: at(last).end}
			e.end = e.vspan.end
		case token.LPAREN:
			open := lx.next()
			if _, err := skipBalanced(open, 1); err != nil {
				return err
			}
			closing := lx.next()
			if closing.tok != token.RPAREN {
				return unexpected(closing)
			}
			e.kind = entryList
			e.end = at(closing).end
		}
		a.entries = append(a.entries, e)

		switch sep := lx.peek(); sep.tok {
		case token.COMMA:
			lx.next()
		case token.RPAREN:
		default:
			return unexpected(sep)
		}
	}
}

func isSeparator(tok token.Token) bool {
	return tok == token.COMMA || tok == token.RPAREN
}

// ContainerConfig 类型级配置
type ContainerConfig struct {
	Visibility Visibility
}

// DefaultContainerConfig 未声明 @dissolve 时的配置
func DefaultContainerConfig() ContainerConfig {
	return ContainerConfig{Visibility: VisibilityPublic}
}

// ParseContainer 从类型文档注释中读取 @dissolve(...)
func ParseContainer(fset *token.FileSet, doc *ast.CommentGroup) (ContainerConfig, error) {
	rep := reporter{fset: fset}
	cfg := DefaultContainerConfig()

	anns, err := parseAnnotations(rep, doc, TagContainer)
	if err != nil {
		return ContainerConfig{}, err
	}
	if len(anns) == 0 {
		return cfg, nil
	}
	if len(anns) > 1 {
		return ContainerConfig{}, rep.errorf(anns[1], "multiple @dissolve annotations; only one is allowed")
	}

	a := anns[0]
	if a.form != formList {
		return ContainerConfig{}, rep.errorf(a, `dissolve attribute must use list syntax: @dissolve(visibility = "...")`)
	}
	for _, e := range a.entries {
		if e.kind != entryNameValue {
			return ContainerConfig{}, rep.errorf(e, `dissolve container attribute must use name-value syntax: @dissolve(visibility = "...")`)
		}
		if _, ok := lookupOption(TagContainer, e.path, true); !ok {
			return ContainerConfig{}, rep.errorf(e, "unknown dissolve attribute option '%s'; %s", e.path, supportedOptions(TagContainer))
		}
		raw, ok := e.stringValue()
		if !ok {
			return ContainerConfig{}, rep.errorf(e.vspan, "visibility value must be a string literal")
		}
		vis, err := ParseVisibility(raw)
		if err != nil {
			return ContainerConfig{}, rep.errorf(e.vspan, "invalid visibility %q: %v. %s", raw, err, supportedVisibilities)
		}
		// 同一列表中重复的键以最后一个为准
		cfg.Visibility = vis
	}
	return cfg, nil
}

// FieldOption 字段注解中的一个选项
type FieldOption struct {
	Key    OptionKey
	Rename string // 仅 OptionRename
	pos    token.Pos
	end    token.Pos
}

func (o FieldOption) Pos() token.Pos { return o.pos }
func (o FieldOption) End() token.Pos { return o.end }

// ParseFieldOptions 读取字段的 @dissolved(...)，先文档注释后行尾注释
func ParseFieldOptions(fset *token.FileSet, field *ast.Field) ([]FieldOption, error) {
	rep := reporter{fset: fset}
	var opts []FieldOption
	for _, group := range []*ast.CommentGroup{field.Doc, field.Comment} {
		anns, err := parseAnnotations(rep, group, TagField)
		if err != nil {
			return nil, err
		}
		for _, a := range anns {
			switch a.form {
			case formBare:
				return nil, rep.errorf(a, `dissolved attribute requires options, use @dissolved(skip) or @dissolved(rename = "new_name") instead`)
			case formNameValue:
				return nil, rep.errorf(a, `dissolved attribute should use list syntax: @dissolved(rename = "new_name") instead of @dissolved = ...`)
			}
			for _, e := range a.entries {
				opt, err := fieldOption(rep, e)
				if err != nil {
					return nil, err
				}
				opts = append(opts, opt)
			}
		}
	}
	return opts, nil
}

func fieldOption(rep reporter, e entry) (FieldOption, error) {
	if e.kind == entryList {
		return FieldOption{}, rep.errorf(e, "nested lists are not supported in dissolved attributes")
	}
	key, ok := lookupOption(TagField, e.path, e.kind == entryNameValue)
	if !ok {
		return FieldOption{}, rep.errorf(e, "unknown dissolved attribute option '%s'; %s", e.path, supportedOptions(TagField))
	}
	opt := FieldOption{Key: key, pos: e.pos, end: e.end}
	if key != OptionRename {
		return opt, nil
	}

	raw, ok := e.stringValue()
	if !ok {
		return FieldOption{}, rep.errorf(e.vspan, "rename value must be a string literal")
	}
	if !token.IsIdentifier(raw) {
		return FieldOption{}, rep.errorf(e.vspan, "rename value %q is not a valid identifier", raw)
	}
	opt.Rename = raw
	return opt, nil
}

// checkMarker 校验 @Dissolve 标记的参数名
// 参数值由插件框架解析（允许不带引号），这里只拒绝未知参数
func checkMarker(rep reporter, doc *ast.CommentGroup) error {
	if doc == nil {
		return nil
	}
	for _, c := range doc.List {
		for _, hit := range findTags(c.Text) {
			if hit.name != TagMarker {
				continue
			}
			nameEnd := hit.at + 1 + len(hit.name)
			rest := c.Text[nameEnd:]
			if !strings.HasPrefix(rest, "(") {
				continue
			}
			marker := span{pos: c.Slash + token.Pos(hit.at), end: c.Slash + token.Pos(nameEnd)}
			closing := strings.IndexByte(rest, ')')
			if closing < 0 {
				return rep.errorf(marker, "malformed @%s annotation: missing closing ')'", TagMarker)
			}
			for _, part := range strings.Split(rest[1:closing], ",") {
				key, _, _ := strings.Cut(part, "=")
				key = strings.ToLower(strings.TrimSpace(key))
				if key == "" {
					continue
				}
				if _, ok := lookupOption(TagMarker, key, true); !ok {
					return rep.errorf(marker, "unknown Dissolve option '%s'; %s", key, supportedOptions(TagMarker))
				}
			}
		}
	}
	return nil
}

// keptComments 去掉带 @dissolved 的注释，其余原样保留
func keptComments(group *ast.CommentGroup) []*ast.Comment {
	if group == nil {
		return nil
	}
	var out []*ast.Comment
	for _, c := range group.List {
		if hasTag(&ast.CommentGroup{List: []*ast.Comment{c}}, TagField) {
			continue
		}
		out = append(out, c)
	}
	return out
}
