package structparse

import (
	"go/ast"
	"path"
	"strconv"

	"github.com/donutnomad/dissolvegen/internal/pkgresolver"
)

// extractImports 建立源文件的导入表，调用方持有 c.mu
//
// 显式别名只登记别名；否则同时登记真实包名与路径最后一段，
// 后者用于真实包名无法解析、源码却按目录名引用的情况。
func (c *ParseContext) extractImports(filename string, file *ast.File) ImportMap {
	if len(file.Imports) == 0 {
		return ImportMap{}
	}
	resolver := c.resolverFor(filename)

	imports := make(ImportMap, len(file.Imports))
	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}

		pkgName := ""
		if resolver != nil {
			pkgName, _ = resolver.GetPackageName(importPath)
		}
		if pkgName == "" {
			pkgName = pkgresolver.GuessPackageName(importPath)
		}

		if imp.Name != nil {
			// 空白导入与 dot import 不会出现在类型表达式的限定符中
			if alias := imp.Name.Name; alias != "_" && alias != "." {
				imports[alias] = &ImportInfo{Alias: alias, PackageName: pkgName, ImportPath: importPath}
			}
			continue
		}

		info := &ImportInfo{PackageName: pkgName, ImportPath: importPath}
		imports[pkgName] = info
		if last := path.Base(importPath); last != pkgName {
			if _, taken := imports[last]; !taken {
				imports[last] = info
			}
		}
	}
	return imports
}
