package plugin

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/donutnomad/dissolvegen/internal/utils"
)

// GeneratedHeader 生成文件的头部注释
const GeneratedHeader = "Code generated by dissolvegen. DO NOT EDIT."

// GetOutputPath 根据注解参数和默认规则计算输出路径
// 优先级：注解参数 > 包级插件配置 > 包级默认配置 > 命令行参数 > 默认文件名
// 模板变量：
//   - $FILE: 源文件名（不含 .go 后缀）
//   - $PACKAGE: 包名
//   - $TYPE: 类型名（蛇形命名）
//
// 也支持 text/template 语法与 sprig 函数，如 {{ .Type | lower }}
func GetOutputPath(target *Target, ann *Annotation, defaultFileName string, pkgConfig *PackageConfig, pluginName string, cmdOutput string) string {
	// 1. 优先使用注解参数
	output := ann.GetParam("output")

	// 2. 其次使用包级配置
	if output == "" && pkgConfig != nil {
		output = pkgConfig.GetPluginOutput(strings.ToLower(pluginName))
	}

	// 3. 再次使用命令行参数
	if output == "" && cmdOutput != "" {
		output = cmdOutput
	}

	// 4. 如果都没有，使用默认输出
	if output == "" {
		return GetDefaultOutputPath(target, defaultFileName)
	}

	output = replaceTemplateVars(output, target)

	// 确保有 .go 后缀
	if !strings.HasSuffix(output, ".go") {
		output += ".go"
	}

	if filepath.IsAbs(output) {
		return output
	}
	// 相对于源文件目录
	return filepath.Join(filepath.Dir(target.FilePath), output)
}

// GetDefaultOutputPath 获取默认输出路径
func GetDefaultOutputPath(target *Target, defaultFileName string) string {
	if defaultFileName == "" {
		defaultFileName = "generate.go"
	}
	defaultFileName = replaceTemplateVars(defaultFileName, target)
	return filepath.Join(filepath.Dir(target.FilePath), defaultFileName)
}

// outputTemplateData 输出路径模板的数据
type outputTemplateData struct {
	File    string // 源文件名（不含 .go 后缀）
	Package string // 包名
	Type    string // 类型名（原样）
}

// replaceTemplateVars 替换模板变量
// 先执行 text/template（如果包含 {{），再替换 $FILE、$PACKAGE、$TYPE
func replaceTemplateVars(tmpl string, target *Target) string {
	data := outputTemplateData{
		File:    strings.TrimSuffix(filepath.Base(target.FilePath), ".go"),
		Package: target.PackageName,
		Type:    target.Name,
	}

	if strings.Contains(tmpl, "{{") {
		rendered, err := executeOutputTemplate(tmpl, data)
		if err != nil {
			fmt.Printf("警告: 输出路径模板 %q 无效，按原文处理: %v\n", tmpl, err)
		} else {
			tmpl = rendered
		}
	}

	tmpl = strings.ReplaceAll(tmpl, "$FILE", data.File)
	tmpl = strings.ReplaceAll(tmpl, "$PACKAGE", data.Package)
	tmpl = strings.ReplaceAll(tmpl, "$TYPE", utils.ToSnakeCase(data.Type))
	return tmpl
}

func executeOutputTemplate(tmpl string, data outputTemplateData) (string, error) {
	t, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("解析模板失败: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("执行模板失败: %w", err)
	}
	return buf.String(), nil
}
