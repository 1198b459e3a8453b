package structparse

import (
	"path/filepath"
	"sync"

	"github.com/donutnomad/dissolvegen/internal/pkgresolver"
)

// PackageResolver 导入路径 → 真实包名
type PackageResolver interface {
	GetPackageName(importPath string) (string, error)
}

// ParseContext 解析上下文，缓存已解析的文件与各模块的包名解析器
//
// 源文件可能分属不同模块（如 go.work 或多个扫描路径），
// 解析器按文件所在模块的根目录分别创建。
type ParseContext struct {
	fixed PackageResolver // 非 nil 时所有文件共用
	root  string          // 非空时所有文件视为属于该模块

	mu        sync.Mutex
	files     map[string]*parsedFile
	roots     map[string]string // 目录 → 模块根目录，空字符串表示不在模块内
	resolvers map[string]*pkgresolver.PackageNameResolver
}

func newParseContext() *ParseContext {
	return &ParseContext{
		files:     make(map[string]*parsedFile),
		roots:     make(map[string]string),
		resolvers: make(map[string]*pkgresolver.PackageNameResolver),
	}
}

// NewParseContext 按源文件位置查找所属模块
func NewParseContext() *ParseContext {
	return newParseContext()
}

// NewParseContextWithRoot 所有源文件按 projectRoot 下的 go.mod 解析
func NewParseContextWithRoot(projectRoot string) *ParseContext {
	c := newParseContext()
	c.root = projectRoot
	return c
}

// NewParseContextWithResolver 使用给定的解析器，测试中用来固定包名
func NewParseContextWithResolver(resolver PackageResolver) *ParseContext {
	c := newParseContext()
	c.fixed = resolver
	return c
}

// resolverFor 返回 filename 所在模块的解析器，调用方持有 c.mu
func (c *ParseContext) resolverFor(filename string) PackageResolver {
	if c.fixed != nil {
		return c.fixed
	}

	root := c.root
	if root == "" {
		root = c.moduleRoot(filepath.Dir(filename))
	}
	r, ok := c.resolvers[root]
	if !ok {
		// 不在模块内时只能识别标准库与模块缓存
		r = pkgresolver.NewPackageNameResolver(root)
		c.resolvers[root] = r
	}
	return r
}
