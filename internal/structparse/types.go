package structparse

import (
	"go/ast"
	"go/token"
)

// ImportInfo 导入信息
type ImportInfo struct {
	Alias       string // 显式别名（如果有）
	PackageName string // 真实包名（从 package 声明读取）
	ImportPath  string // 完整导入路径
}

// ImportMap 源文件导入表，key 为源码中使用的包标识符
type ImportMap map[string]*ImportInfo

// Lookup 根据包标识符查找导入信息
func (m ImportMap) Lookup(ident string) (*ImportInfo, bool) {
	if m == nil {
		return nil, false
	}
	info, ok := m[ident]
	return info, ok
}

// DeclInfo 表示一个类型声明及其所在文件的上下文
type DeclInfo struct {
	Name        string            // 类型名称
	PackageName string            // 包名
	FilePath    string            // 声明所在文件路径
	Fset        *token.FileSet    // 解析该文件使用的 FileSet
	File        *ast.File         // 文件 AST
	Doc         *ast.CommentGroup // 类型文档注释，TypeSpec.Doc 优先，其次 GenDecl.Doc
	Spec        *ast.TypeSpec     // 类型声明
	Imports     ImportMap         // 文件导入表
}
