package plugin

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/donutnomad/gg"
)

// ParseSourceToGG 将 Go 源代码解析并转换为 gg.Generator
// 使 jennifer 等不使用 gg 的生成器输出也能与其他定义合并
func ParseSourceToGG(source []byte) (*gg.Generator, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析源代码失败: %w", err)
	}

	gen := gg.New()
	gen.SetPackage(file.Name.Name)

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"`")
		if imp.Name == nil || imp.Name.Name == "" {
			gen.P(importPath)
			continue
		}
		switch imp.Name.Name {
		case "_", ".":
			// 空白导入与 dot import 暂不支持，跳过
			continue
		}
		gen.PAlias(importPath, imp.Name.Name)
	}

	if body := extractBody(fset, file, source); body != "" {
		gen.Body().Append(gg.String("%s", body))
	}

	return gen, nil
}

// extractBody 提取 package 与 import 之后的全部源码
// 直接截取原文，声明之间以及文件末尾的注释都会保留
func extractBody(fset *token.FileSet, file *ast.File, source []byte) string {
	start := file.Name.End()
	for _, decl := range file.Decls {
		if genDecl, ok := decl.(*ast.GenDecl); ok && genDecl.Tok == token.IMPORT {
			start = genDecl.End()
		}
	}
	offset := fset.Position(start).Offset
	if offset < 0 || offset > len(source) {
		return ""
	}
	return strings.TrimSpace(string(source[offset:]))
}
