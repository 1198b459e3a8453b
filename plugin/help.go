package plugin

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// commonOutputParam 所有生成器都支持的 output 参数
var commonOutputParam = ParamDef{Name: "output", Description: "输出文件路径（支持 $FILE、$PACKAGE、$TYPE 与模板语法）"}

// FormatHelpText 列出每个生成器的注解、参数与示例，参数说明按显示宽度对齐
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder
	for _, gen := range generators {
		anns := gen.Annotations()
		if len(anns) == 0 {
			continue
		}
		primary := anns[0]
		targets := lo.Map(gen.SupportedTargets(), func(k TargetKind, _ int) string { return k.String() })

		fmt.Fprintf(&sb, "  @%s - %s", primary, gen.Name())
		if len(anns) > 1 {
			fmt.Fprintf(&sb, "（别名: %s）", strings.Join(lo.Map(anns[1:], func(a string, _ int) string { return "@" + a }), ", "))
		}
		if len(targets) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(targets, ", "))
		}
		sb.WriteString("\n    参数:\n")
		writeParams(&sb, withOutputParam(gen.ParamDefs()))

		sb.WriteString("    示例:\n")
		examples := []string{"", "(output=$FILE_dissolve.go)", "(output=$TYPE_dissolve.go)"}
		// 最多再展示 2 个带默认值的参数
		for _, p := range lo.Filter(gen.ParamDefs(), func(p ParamDef, _ int) bool {
			return p.Default != "" && p.Name != commonOutputParam.Name
		}) {
			if len(examples) == 5 {
				break
			}
			examples = append(examples, fmt.Sprintf("(%s=%s)", p.Name, p.Default))
		}
		for _, ex := range examples {
			fmt.Fprintf(&sb, "      @%s%s\n", primary, ex)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// withOutputParam 生成器没有声明 output 时补上通用说明
func withOutputParam(params []ParamDef) []ParamDef {
	if slices.ContainsFunc(params, func(p ParamDef) bool { return p.Name == commonOutputParam.Name }) {
		return params
	}
	return append([]ParamDef{commonOutputParam}, params...)
}

func writeParams(sb *strings.Builder, params []ParamDef) {
	labels := lo.Map(params, func(p ParamDef, _ int) string { return paramLabel(p) })
	width := lo.Max(lo.Map(labels, func(l string, _ int) int { return runewidth.StringWidth(l) }))
	for i, p := range params {
		fmt.Fprintf(sb, "      %s - %s\n", runewidth.FillRight(labels[i], width), p.Description)
	}
}

// paramLabel 参数名及其必填、默认值标记
func paramLabel(param ParamDef) string {
	label := param.Name
	if param.Required {
		label += " (必填)"
	}
	if param.Default != "" {
		label += fmt.Sprintf(" [默认: %s]", param.Default)
	}
	return label
}

// FormatParamDef 单行描述一个参数，如 "mode, optional, default=none, 生成模式"
func FormatParamDef(param ParamDef) string {
	parts := []string{param.Name, lo.Ternary(param.Required, "required", "optional")}
	if param.Default != "" {
		parts = append(parts, "default="+param.Default)
	}
	if param.Description != "" {
		parts = append(parts, param.Description)
	}
	return strings.Join(parts, ", ")
}
