package dissolvegen

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/donutnomad/dissolvegen/internal/structparse"
	"github.com/donutnomad/dissolvegen/internal/utils"
	"github.com/donutnomad/dissolvegen/plugin"
	"github.com/samber/lo"
)

const (
	generatorName = "dissolvegen"
	defaultOutput = "$FILE_dissolve.go"
)

// DissolveParams @Dissolve 注解参数
type DissolveParams struct {
	Output string `param:"name=output,required=false,default=,description=输出文件路径，支持 $FILE、$PACKAGE、$TYPE 与 text/template 语法"`
}

// DissolveGenerator 为带 @Dissolve 的结构体生成伴生类型与转换方法
type DissolveGenerator struct {
	plugin.BaseGenerator
}

func NewDissolveGenerator() *DissolveGenerator {
	return &DissolveGenerator{
		// 接口与其他类型声明也会分发过来，由 Expand 给出明确的错误
		BaseGenerator: *plugin.NewBaseGeneratorWithParamsStruct(
			generatorName,
			[]string{TagMarker},
			[]plugin.TargetKind{plugin.TargetStruct, plugin.TargetInterface, plugin.TargetType},
			DissolveParams{},
		),
	}
}

// expandedTarget 一个已展开的目标及其排序依据
type expandedTarget struct {
	file   string
	offset int
	exp    *Expansion
}

type outputFile struct {
	pkgName string
	targets []expandedTarget
}

// Generate 实现 plugin.Generator
func (g *DissolveGenerator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	result := plugin.NewGenerateResult()
	if len(ctx.Targets) == 0 {
		return result, nil
	}

	parseCtx := structparse.NewParseContext()
	files := make(map[string]*outputFile)

	for _, at := range ctx.Targets {
		target := at.Target
		ann := plugin.GetAnnotation(at.Annotations, TagMarker)
		pkgConfig := ctx.GetPackageConfig(filepath.Dir(target.FilePath))
		outPath := plugin.GetOutputPath(target, ann, defaultOutput, pkgConfig, generatorName, ctx.DefaultOutput)
		// 被拒绝的声明也登记输出路径，上一次的输出才会被清理
		result.Claim(outPath)

		info, err := parseCtx.ParseDecl(target.FilePath, target.Name)
		if err != nil {
			result.AddError(fmt.Errorf("解析 %s 失败: %w", target.Name, err))
			continue
		}

		exp, err := Expand(NewDeclaration(info))
		if err != nil {
			result.AddError(err)
			result.Skipped++
			continue
		}
		if ctx.Verbose {
			fmt.Printf("[dissolvegen] %s.%s 展开计划:\n%s", target.PackageName, target.Name, spew.Sdump(exp.plan()))
		}

		of, ok := files[outPath]
		if !ok {
			of = &outputFile{pkgName: info.PackageName}
			files[outPath] = of
		}
		of.targets = append(of.targets, expandedTarget{
			file:   target.FilePath,
			offset: info.Fset.Position(info.Spec.Pos()).Offset,
			exp:    exp,
		})
	}

	for _, path := range utils.SortedKeys(files) {
		of := files[path]
		// 扫描是并行的，按源文件与声明位置排序保证输出稳定
		slices.SortFunc(of.targets, func(a, b expandedTarget) int {
			return cmp.Or(cmp.Compare(a.file, b.file), cmp.Compare(a.offset, b.offset))
		})
		exps := make([]*Expansion, 0, len(of.targets))
		for _, t := range of.targets {
			exps = append(exps, t.exp)
		}

		src, err := RenderFile(of.pkgName, exps)
		if err != nil {
			result.AddError(fmt.Errorf("生成 %s 失败: %w", path, err))
			continue
		}
		result.AddRawOutput(path, src)
	}

	return result, nil
}

// OwnedOutputs 实现 plugin.OutputOwner：源文件的默认输出与包级、命令行配置的输出
// 依赖类型名或包名的模板推不出具体路径，不在其中
func (g *DissolveGenerator) OwnedOutputs(sourceFile string, pkgConfig *plugin.PackageConfig, cmdOutput string) []string {
	target := &plugin.Target{FilePath: sourceFile}
	paths := []string{plugin.GetDefaultOutputPath(target, defaultOutput)}

	configured := cmp.Or(pkgConfig.GetPluginOutput(generatorName), cmdOutput)
	if configured != "" && !lo.SomeBy(perTargetVars, func(v string) bool { return strings.Contains(configured, v) }) {
		paths = append(paths, plugin.GetOutputPath(target, nil, defaultOutput, pkgConfig, generatorName, cmdOutput))
	}
	return lo.Uniq(paths)
}

// perTargetVars 输出模板中依赖具体目标的变量
var perTargetVars = []string{"$TYPE", "$PACKAGE", ".Type", ".Package"}

// planField 展开计划中的字段摘要
type planField struct {
	Index  int
	Source string
	Output string
}

// plan 用于详细输出的展开摘要
func (e *Expansion) plan() any {
	fields := make([]planField, 0, len(e.Fields))
	for _, rf := range e.Fields {
		fields = append(fields, planField{Index: rf.Index, Source: rf.SourceName, Output: rf.OutputName})
	}
	return struct {
		Type       string
		Companion  string
		Method     string
		Shape      string
		Visibility string
		Fields     []planField
	}{
		Type:       e.TypeName,
		Companion:  e.CompanionName,
		Method:     e.MethodName,
		Shape:      e.Shape.String(),
		Visibility: e.Visibility.String(),
		Fields:     fields,
	}
}
