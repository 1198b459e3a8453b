package dissolvegen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTags(t *testing.T) {
	hits := findTags("// @Dissolve @dissolve(visibility = \"\") mail@dissolved.io @_x1 @ @")
	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	assert.Equal(t, []string{"Dissolve", "dissolve", "_x1"}, names)

	// 紧跟注释前缀视为行首
	for _, text := range []string{"//@dissolved(skip)", "/*@dissolved(skip)*/"} {
		hits = findTags(text)
		require.Len(t, hits, 1, text)
		assert.Equal(t, 2, hits[0].at)
	}

	// 说明文字中提到的注解不算
	for _, text := range []string{
		"// see @dissolved for details",
		"// 字段含义见 @dissolved(skip) 的说明",
		"/* 与 @Dissolve 配合使用 */",
	} {
		assert.Empty(t, findTags(text), text)
	}

	// 块注释的每一行都可以是注解行
	hits = findTags("/*\n * @Dissolve\n   @dissolved(skip)\n */")
	require.Len(t, hits, 2)
	assert.Equal(t, "Dissolve", hits[0].name)
	assert.Equal(t, "dissolved", hits[1].name)
}

func TestFieldDocProseIsNotAnnotation(t *testing.T) {
	decl := loadDecl(t, `package model

// @Dissolve
type User struct {
	// Name 展示名，see @dissolved for details
	Name string
	// 内部字段
	// @dissolved(skip)
	secret string
}
`, "User")
	exp, err := Expand(decl)
	require.NoError(t, err)
	require.Len(t, exp.Fields, 1)
	assert.Equal(t, "Name", exp.Fields[0].OutputName)
}

func containerDoc(t *testing.T, lines string) *Declaration {
	t.Helper()
	return loadDecl(t, "package model\n\n"+lines+"\ntype User struct{ ID int }\n", "User")
}

func TestParseContainer(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Visibility
	}{
		{"缺省为 pub", "// @Dissolve", VisibilityPublic},
		{"pub(crate)", "// @Dissolve\n// @dissolve(visibility = \"pub(crate)\")", VisibilityCrate},
		{"空字符串为私有", "// @dissolve(visibility = \"\")", VisibilityPrivate},
		{"原始字符串", "// @dissolve(visibility = `pub(super)`)", VisibilitySuper},
		{"尾随逗号", "// @dissolve(visibility = \"pub(self)\",)", VisibilitySelf},
		{"重复键以最后一个为准", "// @dissolve(visibility = \"pub\", visibility = \"\")", VisibilityPrivate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := containerDoc(t, tt.doc)
			cfg, err := ParseContainer(decl.Fset, decl.Doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Visibility)
		})
	}
}

func TestParseContainerErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
		wantCol int
	}{
		{
			name:    "重复注解",
			doc:     "// @dissolve(visibility = \"pub\") @dissolve(visibility = \"\")",
			wantMsg: "multiple @dissolve annotations; only one is allowed",
			wantCol: 34,
		},
		{
			name:    "裸注解",
			doc:     "// @dissolve",
			wantMsg: `dissolve attribute must use list syntax: @dissolve(visibility = "...")`,
			wantCol: 4,
		},
		{
			name:    "注解名与括号之间有空格",
			doc:     "// @dissolve (visibility)",
			wantMsg: `dissolve attribute must use list syntax: @dissolve(visibility = "...")`,
			wantCol: 4,
		},
		{
			name:    "名值形式",
			doc:     "// @dissolve = \"pub\"",
			wantMsg: `dissolve attribute must use list syntax: @dissolve(visibility = "...")`,
			wantCol: 4,
		},
		{
			name:    "路径形式",
			doc:     "// @dissolve(visibility)",
			wantMsg: `dissolve container attribute must use name-value syntax: @dissolve(visibility = "...")`,
			wantCol: 14,
		},
		{
			name:    "未知选项",
			doc:     "// @dissolve(vis = \"pub\")",
			wantMsg: "unknown dissolve attribute option 'vis'; supported option: visibility",
			wantCol: 14,
		},
		{
			name:    "非字符串",
			doc:     "// @dissolve(visibility = pub)",
			wantMsg: "visibility value must be a string literal",
			wantCol: 27,
		},
		{
			name:    "多个词法单元",
			doc:     "// @dissolve(visibility = \"pub\" + \"x\")",
			wantMsg: "visibility value must be a string literal",
			wantCol: 27,
		},
		{
			name:    "非法可见性",
			doc:     "// @dissolve(visibility = \"pub(crate\")",
			wantMsg: "invalid visibility \"pub(crate\": expected `)` after `crate`. " + `Supported: "pub", "pub(crate)", "pub(super)", "pub(self)" or "" for private`,
			wantCol: 27,
		},
		{
			name:    "缺少右括号",
			doc:     "// @dissolve(visibility = \"pub\"",
			wantMsg: "malformed @dissolve annotation: missing closing ')'",
			wantCol: 4,
		},
		{
			name:    "意外的词法单元",
			doc:     "// @dissolve(visibility \"pub\")",
			wantMsg: "malformed @dissolve annotation: unexpected `\"pub\"`",
			wantCol: 25,
		},
		{
			name:    "未闭合的字符串",
			doc:     "// @dissolve(visibility = \"pub)",
			wantMsg: "malformed @dissolve annotation: string literal not terminated",
			wantCol: 27,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := containerDoc(t, tt.doc)
			_, err := ParseContainer(decl.Fset, decl.Doc)

			var d *Diagnostic
			require.True(t, errors.As(err, &d), "expected *Diagnostic, got %v", err)
			assert.Equal(t, tt.wantMsg, d.Message)
			assert.Equal(t, 3, d.Position.Line)
			assert.Equal(t, tt.wantCol, d.Position.Column)
			assert.True(t, d.End > d.Pos)
		})
	}
}

func TestParseFieldOptions(t *testing.T) {
	decl := loadDecl(t, `package model

type User struct {
	// 主键
	// @dissolved(skip)
	ID int

	Name string // @dissolved(rename = "full_name")

	// @dissolved(skip)
	Mixed string // @dissolved(rename = "other")

	// @dissolved(skip, skip,)
	Twice string

	Plain string // 普通注释 user@dissolved.io
}
`, "User")

	opts, err := ParseFieldOptions(decl.Fset, structField(t, decl, 0))
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, OptionSkip, opts[0].Key)
	assert.Equal(t, 5, decl.Fset.Position(opts[0].Pos()).Line)

	opts, err = ParseFieldOptions(decl.Fset, structField(t, decl, 1))
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, OptionRename, opts[0].Key)
	assert.Equal(t, "full_name", opts[0].Rename)

	// 文档注释在前，行尾注释在后
	opts, err = ParseFieldOptions(decl.Fset, structField(t, decl, 2))
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, OptionSkip, opts[0].Key)
	assert.Equal(t, OptionRename, opts[1].Key)

	opts, err = ParseFieldOptions(decl.Fset, structField(t, decl, 3))
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	opts, err = ParseFieldOptions(decl.Fset, structField(t, decl, 4))
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestParseFieldOptionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		wantMsg string
		wantCol int
	}{
		{
			name:    "裸注解",
			comment: "// @dissolved",
			wantMsg: `dissolved attribute requires options, use @dissolved(skip) or @dissolved(rename = "new_name") instead`,
			wantCol: 4,
		},
		{
			name:    "名值形式",
			comment: "// @dissolved = skip",
			wantMsg: `dissolved attribute should use list syntax: @dissolved(rename = "new_name") instead of @dissolved = ...`,
			wantCol: 4,
		},
		{
			name:    "未知选项",
			comment: "// @dissolved(flatten)",
			wantMsg: `unknown dissolved attribute option 'flatten'; supported options: skip, rename = "new_name"`,
			wantCol: 15,
		},
		{
			name:    "skip 带值",
			comment: "// @dissolved(skip = true)",
			wantMsg: `unknown dissolved attribute option 'skip'; supported options: skip, rename = "new_name"`,
			wantCol: 15,
		},
		{
			name:    "rename 缺少值",
			comment: "// @dissolved(rename)",
			wantMsg: `unknown dissolved attribute option 'rename'; supported options: skip, rename = "new_name"`,
			wantCol: 15,
		},
		{
			name:    "路径选项",
			comment: "// @dissolved(serde.skip)",
			wantMsg: `unknown dissolved attribute option 'serde.skip'; supported options: skip, rename = "new_name"`,
			wantCol: 15,
		},
		{
			name:    "嵌套列表",
			comment: "// @dissolved(skip(always))",
			wantMsg: "nested lists are not supported in dissolved attributes",
			wantCol: 15,
		},
		{
			name:    "rename 非字符串",
			comment: "// @dissolved(rename = 42)",
			wantMsg: "rename value must be a string literal",
			wantCol: 24,
		},
		{
			name:    "rename 非标识符",
			comment: "// @dissolved(rename = \"1st\")",
			wantMsg: `rename value "1st" is not a valid identifier`,
			wantCol: 24,
		},
		{
			name:    "rename 关键字",
			comment: "// @dissolved(rename = \"type\")",
			wantMsg: `rename value "type" is not a valid identifier`,
			wantCol: 24,
		},
		{
			name:    "缺少分隔符",
			comment: "// @dissolved(skip rename = \"x\")",
			wantMsg: "malformed @dissolved annotation: unexpected `rename`",
			wantCol: 20,
		},
		{
			name:    "开头的逗号",
			comment: "// @dissolved(, skip)",
			wantMsg: "malformed @dissolved annotation: unexpected `,`",
			wantCol: 15,
		},
		{
			name:    "缺少值",
			comment: "// @dissolved(rename = )",
			wantMsg: "malformed @dissolved annotation: unexpected `)`",
			wantCol: 24,
		},
		{
			name:    "缺少右括号",
			comment: "// @dissolved(skip",
			wantMsg: "malformed @dissolved annotation: missing closing ')'",
			wantCol: 4,
		},
		{
			name:    "非法转义",
			comment: `// @dissolved(rename = "a\q")`,
			wantMsg: "malformed @dissolved annotation: unknown escape sequence",
			wantCol: 27,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := loadDecl(t, "package model\n\ntype User struct {\n"+tt.comment+"\nName string\n}\n", "User")
			_, err := ParseFieldOptions(decl.Fset, structField(t, decl, 0))

			var d *Diagnostic
			require.True(t, errors.As(err, &d), "expected *Diagnostic, got %v", err)
			assert.Equal(t, tt.wantMsg, d.Message)
			assert.Equal(t, 4, d.Position.Line)
			assert.Equal(t, tt.wantCol, d.Position.Column)
		})
	}
}

func TestCheckMarker(t *testing.T) {
	tests := []struct {
		doc     string
		wantMsg string
	}{
		{doc: "// @Dissolve"},
		{doc: "// @Dissolve()"},
		{doc: "// @Dissolve(output=$FILE_parts.go)"},
		{doc: "// @Dissolve(Output = `{{ .Type | lower }}.go`)"},
		{doc: "// @Dissolve (说明)"},
		{doc: "// @Dissolve(mode=fast)", wantMsg: "unknown Dissolve option 'mode'; supported option: output"},
		{doc: "// @Dissolve(output=x.go, skip)", wantMsg: "unknown Dissolve option 'skip'; supported option: output"},
		{doc: "// @Dissolve(output=x.go", wantMsg: "malformed @Dissolve annotation: missing closing ')'"},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			decl := containerDoc(t, tt.doc)
			err := checkMarker(reporter{fset: decl.Fset}, decl.Doc)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var d *Diagnostic
			require.True(t, errors.As(err, &d), "expected *Diagnostic, got %v", err)
			assert.Equal(t, tt.wantMsg, d.Message)
			assert.Equal(t, 3, d.Position.Line)
			assert.Equal(t, 4, d.Position.Column)
		})
	}
}

func TestKeptComments(t *testing.T) {
	decl := loadDecl(t, `package model

type User struct {
	// 主键
	// @dissolved(rename = "key")
	// 自增
	ID int
}
`, "User")

	kept := keptComments(structField(t, decl, 0).Doc)
	require.Len(t, kept, 2)
	assert.Equal(t, "// 主键", kept[0].Text)
	assert.Equal(t, "// 自增", kept[1].Text)
	assert.Nil(t, keptComments(nil))
}
