// Package structparse 负责从源文件中加载带注解的类型声明。
//
// 加载结果 DeclInfo 包含类型声明的 AST、文档注释、所在文件的 FileSet
// 以及该文件的导入表，供代码生成器直接在 AST 上工作。
//
// # 基本用法
//
//	decl, err := structparse.ParseDecl("path/to/file.go", "User")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(decl.PackageName, decl.Spec.Name.Name)
//
// # 导入表
//
// DeclInfo.Imports 以源文件中使用的包标识符为键。
// 未显式指定别名的导入同时以路径最后一段和真实包名为键，
// 真实包名通过 pkgresolver 读取磁盘上的 package 声明获得：
//
//	import (
//	    "github.com/Xuanwo/gg"          // 键: "gg"（路径）、"g2"（真实包名）
//	    orm "example.com/internal/orm"  // 键: "orm"
//	)
//
// # 依赖注入与测试
//
// 需要自定义包名解析时使用 ParseContext：
//
//	ctx := structparse.NewParseContextWithResolver(mockResolver)
//	decl, err := ctx.ParseDecl(filename, typeName)
//
// 同一个 ParseContext 会缓存已解析的文件，同一文件内的多个声明共享一个 FileSet。
package structparse
