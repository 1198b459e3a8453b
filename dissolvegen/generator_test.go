package dissolvegen

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/dissolvegen/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	registry := plugin.NewRegistry()
	require.NoError(t, registry.Register(NewDissolveGenerator()))
	return registry
}

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerate(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"model.go": `package model

import "time"

// Order 订单
// @Dissolve
type Order struct {
	ID        int64
	CreatedAt time.Time
	// @dissolved(skip)
	cache map[string]string
}

// @Dissolve
type Pair struct {
	string
	int
}

type Plain struct{ A int }
`,
	})

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: newRegistry(t),
		Patterns: []string{dir},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TargetCount)
	assert.Equal(t, 1, stats.FileCount)

	out := readFile(t, filepath.Join(dir, "model_dissolve.go"))
	assert.Contains(t, out, plugin.GeneratedHeader)
	assert.Contains(t, out, "// ================ dissolvegen ================")
	assert.Contains(t, out, "type OrderDissolved struct")
	assert.Contains(t, out, "func (o Order) Dissolve() OrderDissolved {")
	assert.Contains(t, out, "func (p Pair) Dissolve() (string, int) {")
	assert.Contains(t, out, `"time"`)
	assert.NotContains(t, out, "cache")
	assert.NotContains(t, out, "Plain")

	// 按声明顺序输出
	assert.Less(t, strings.Index(out, "OrderDissolved struct"), strings.Index(out, "func (p Pair)"))

	_, err = parser.ParseFile(token.NewFileSet(), "model_dissolve.go", out, 0)
	assert.NoError(t, err)
}

func TestGenerateOutputOverrides(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"user.go": "package model\n\n// @Dissolve(output=$TYPE_parts.go)\ntype UserAccount struct{ Name string }\n",
		"item.go": "package model\n\n//go:dissolve: plugin:dissolvegen -output `all_dissolved`\n\n// @Dissolve\ntype Item struct{ SKU string }\n",
	})

	_, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: newRegistry(t),
		Patterns: []string{dir},
		Output:   "ignored_by_config",
	})
	require.NoError(t, err)

	assert.Contains(t, readFile(t, filepath.Join(dir, "user_account_parts.go")), "type UserAccountDissolved struct")
	assert.Contains(t, readFile(t, filepath.Join(dir, "all_dissolved.go")), "type ItemDissolved struct")
	_, statErr := os.Stat(filepath.Join(dir, "ignored_by_config.go"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateRejectsInvalidDeclarations(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"model.go": `package model

// @Dissolve
type Service interface{ Run() }

// @Dissolve
type ID = int64

// @Dissolve
type Empty struct{}

// @Dissolve
type Good struct {
	Name string
}
`,
	})

	stats, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
		Registry: newRegistry(t),
		Patterns: []string{dir},
	})
	require.Error(t, err)
	require.Len(t, stats.Errors, 3)

	joined := strings.Join(stats.Errors, "\n")
	assert.Contains(t, joined, "Service is an interface")
	assert.Contains(t, joined, "ID is a type alias")
	assert.Contains(t, joined, "empty struct Empty")
	// 诊断带有文件位置
	assert.Contains(t, joined, filepath.Join(dir, "model.go")+":4:6")

	// 有效的声明仍然生成
	out := readFile(t, filepath.Join(dir, "model_dissolve.go"))
	assert.Contains(t, out, "type GoodDissolved struct")
	assert.NotContains(t, out, "Service")
}

func TestGenerateCheckMode(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"model.go": "package model\n\n// @Dissolve\ntype User struct{ Name string }\n",
	})
	registry := newRegistry(t)

	check := func() []plugin.StaleFile {
		w := plugin.NewCheckWriter()
		_, err := plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
			Registry: registry,
			Patterns: []string{dir},
			Writer:   w,
		})
		require.NoError(t, err)
		return w.Stale()
	}

	stale := check()
	require.Len(t, stale, 1)
	assert.Equal(t, filepath.Join(dir, "model_dissolve.go"), stale[0].Path)

	require.NoError(t, plugin.Run(context.Background(), registry, dir))
	assert.Empty(t, check())
}

func TestGenerateRemovesStaleOutput(t *testing.T) {
	const generic = `package model

// @Dissolve
type User[T any, K comparable] struct {
	ID   K
	Data T
}
`
	run := func(t *testing.T, dir string) (*plugin.RunStats, error) {
		return plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
			Registry: newRegistry(t),
			Patterns: []string{dir},
		})
	}
	rewrite := func(t *testing.T, path, content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	t.Run("声明被拒绝", func(t *testing.T) {
		dir := writeSources(t, map[string]string{"model.go": generic})
		out := filepath.Join(dir, "model_dissolve.go")
		_, err := run(t, dir)
		require.NoError(t, err)
		assert.Contains(t, readFile(t, out), "func (u User[T, K]) Dissolve() UserDissolved[T, K] {")

		rewrite(t, filepath.Join(dir, "model.go"), `package model

// @Dissolve
type User[T any, K comparable] struct {
	ID   K // @dissolved(skip)
	Data T // @dissolved(skip)
}
`)
		stats, err := run(t, dir)
		require.Error(t, err)
		assert.Contains(t, strings.Join(stats.Errors, "\n"), "cannot create dissolved struct with no fields")
		assert.Equal(t, []string{out}, stats.Removed)
		assert.NoFileExists(t, out)
	})

	t.Run("去掉标记", func(t *testing.T) {
		dir := writeSources(t, map[string]string{"model.go": generic})
		out := filepath.Join(dir, "model_dissolve.go")
		_, err := run(t, dir)
		require.NoError(t, err)
		require.FileExists(t, out)

		rewrite(t, filepath.Join(dir, "model.go"), strings.Replace(generic, "// @Dissolve\n", "", 1))
		stats, err := run(t, dir)
		require.NoError(t, err)
		assert.Zero(t, stats.TargetCount)
		assert.Equal(t, []string{out}, stats.Removed)
		assert.NoFileExists(t, out)
	})

	t.Run("包级输出", func(t *testing.T) {
		dir := writeSources(t, map[string]string{
			"doc.go":   "//go:dissolve: plugin:dissolvegen -output `all_dissolved`\npackage model\n",
			"model.go": generic,
		})
		out := filepath.Join(dir, "all_dissolved.go")
		_, err := run(t, dir)
		require.NoError(t, err)
		require.FileExists(t, out)

		rewrite(t, filepath.Join(dir, "model.go"), strings.Replace(generic, "// @Dissolve\n", "", 1))
		_, err = run(t, dir)
		require.NoError(t, err)
		assert.NoFileExists(t, out)
	})

	t.Run("手写文件保留", func(t *testing.T) {
		dir := writeSources(t, map[string]string{
			"model.go":          strings.Replace(generic, "// @Dissolve\n", "", 1),
			"model_dissolve.go": "package model\n\n// 手写\n",
		})
		stats, err := run(t, dir)
		require.NoError(t, err)
		assert.Empty(t, stats.Removed)
		assert.FileExists(t, filepath.Join(dir, "model_dissolve.go"))
	})

	t.Run("检查模式只报告", func(t *testing.T) {
		dir := writeSources(t, map[string]string{"model.go": generic})
		out := filepath.Join(dir, "model_dissolve.go")
		_, err := run(t, dir)
		require.NoError(t, err)

		rewrite(t, filepath.Join(dir, "model.go"), strings.Replace(generic, "// @Dissolve\n", "", 1))
		w := plugin.NewCheckWriter()
		_, err = plugin.RunWithOptionsAndStats(context.Background(), &plugin.RunOptions{
			Registry: newRegistry(t),
			Patterns: []string{dir},
			Writer:   w,
		})
		require.NoError(t, err)
		stale := w.Stale()
		require.Len(t, stale, 1)
		assert.Equal(t, out, stale[0].Path)
		assert.FileExists(t, out)
	})
}

func TestOwnedOutputs(t *testing.T) {
	g := NewDissolveGenerator()
	src := filepath.Join("/src", "model", "order.go")

	assert.Equal(t, []string{"/src/model/order_dissolve.go"}, g.OwnedOutputs(src, nil, ""))
	assert.Equal(t,
		[]string{"/src/model/order_dissolve.go", "/src/model/all_dissolved.go"},
		g.OwnedOutputs(src, &plugin.PackageConfig{DefaultOutput: "all_dissolved"}, "ignored"))
	assert.Equal(t,
		[]string{"/src/model/order_dissolve.go", "/src/model/order_parts.go"},
		g.OwnedOutputs(src, nil, "$FILE_parts"))
	// 依赖类型名的模板推不出路径
	assert.Equal(t, []string{"/src/model/order_dissolve.go"}, g.OwnedOutputs(src, nil, "$TYPE_parts"))
	assert.Equal(t, []string{"/src/model/order_dissolve.go"}, g.OwnedOutputs(src, nil, "{{ .Type | lower }}_x"))
}

func TestExpansionPlan(t *testing.T) {
	exp, err := Expand(loadDecl(t, "package model\n\n// @Dissolve\ntype User struct {\n\tid int // @dissolved(rename = \"key\")\n\tName string\n}\n", "User"))
	require.NoError(t, err)

	s := spew.Sdump(exp.plan())
	assert.Contains(t, s, `Companion: (string) (len=13) "UserDissolved"`)
	assert.Contains(t, s, `Source: (string) (len=2) "id"`)
	assert.Contains(t, s, `Output: (string) (len=3) "Key"`)
}
