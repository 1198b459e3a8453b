package dissolvegen

import (
	"go/ast"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/donutnomad/dissolvegen/internal/structparse"
	"github.com/stretchr/testify/require"
)

// baseNameResolver 以导入路径最后一段作为包名
type baseNameResolver struct{}

func (baseNameResolver) GetPackageName(importPath string) (string, error) {
	return filepath.Base(importPath), nil
}

// loadDecl 将源码写入临时文件并加载指定类型声明
func loadDecl(t *testing.T, src, name string) *Declaration {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	info, err := structparse.NewParseContextWithResolver(baseNameResolver{}).ParseDecl(path, name)
	require.NoError(t, err)
	return NewDeclaration(info)
}

// structField 返回声明中的第 i 个字段
func structField(t *testing.T, decl *Declaration, i int) *ast.Field {
	t.Helper()
	st, ok := decl.Spec.Type.(*ast.StructType)
	require.True(t, ok, "%s is not a struct", decl.Spec.Name.Name)
	require.Greater(t, len(st.Fields.List), i)
	return st.Fields.List[i]
}

var alignment = regexp.MustCompile(`(\S)[ \t]+`)

// squash 合并行内的连续空白，断言时忽略 gofmt 的对齐，保留行首缩进
func squash(s string) string {
	return alignment.ReplaceAllString(s, "$1 ")
}
