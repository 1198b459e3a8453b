package structparse

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// parsedFile 已解析文件的缓存项
type parsedFile struct {
	fset    *token.FileSet
	file    *ast.File
	imports ImportMap
}

// ParseDecl 解析指定文件中的类型声明（包级便捷函数）
func ParseDecl(filename, typeName string) (*DeclInfo, error) {
	ctx := NewParseContext()
	return ctx.ParseDecl(filename, typeName)
}

// ParseDecl 解析指定文件中的类型声明（ParseContext 方法）
// 不限定类型种类，非结构体声明同样返回，由调用方决定如何处理
func (c *ParseContext) ParseDecl(filename, typeName string) (*DeclInfo, error) {
	pf, err := c.parseFile(filename)
	if err != nil {
		return nil, err
	}

	for _, decl := range pf.file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok || typeSpec.Name.Name != typeName {
				continue
			}
			doc := typeSpec.Doc
			if doc == nil {
				doc = genDecl.Doc
			}
			return &DeclInfo{
				Name:        typeName,
				PackageName: pf.file.Name.Name,
				FilePath:    filename,
				Fset:        pf.fset,
				File:        pf.file,
				Doc:         doc,
				Spec:        typeSpec,
				Imports:     pf.imports,
			}, nil
		}
	}

	return nil, fmt.Errorf("未找到类型 %s", typeName)
}

// parseFile 解析文件，同一 ParseContext 内结果会被缓存
func (c *ParseContext) parseFile(filename string) (*parsedFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pf, ok := c.files[filename]; ok {
		return pf, nil
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析文件失败: %w", err)
	}

	pf := &parsedFile{
		fset:    fset,
		file:    node,
		imports: c.extractImports(filename, node),
	}
	c.files[filename] = pf
	return pf, nil
}
