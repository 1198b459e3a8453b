package plugin

import (
	"go/ast"
	"go/token"
	"slices"

	"github.com/donutnomad/gg"
	"github.com/samber/lo"
)

// TargetKind 注解所在类型声明的种类
type TargetKind int

const (
	TargetStruct TargetKind = iota + 1
	TargetInterface
	TargetType // 别名、具名非结构体类型
)

var targetKindNames = map[TargetKind]string{
	TargetStruct:    "struct",
	TargetInterface: "interface",
	TargetType:      "type",
}

func (k TargetKind) String() string {
	if name, ok := targetKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParamDef 注解参数说明，用于帮助信息与默认值
type ParamDef struct {
	Name        string
	Required    bool
	Default     string
	Description string
}

// Annotation 一个已解析的注解
//
//	// @Dissolve(output=`$TYPE_dissolve.go`)
//
// 对应 Name="Dissolve"，Params={"output": "$TYPE_dissolve.go"}。
type Annotation struct {
	Name   string
	Params map[string]string // 键为小写
	Raw    string
}

// Target 带注解的类型声明
type Target struct {
	Kind        TargetKind
	Name        string
	PackageName string
	FilePath    string    // 绝对路径
	Position    token.Pos // 仅在扫描时的 FileSet 内有效
	Node        ast.Node  // *ast.TypeSpec
}

type AnnotatedTarget struct {
	Target       *Target
	Annotations  []*Annotation
	ParsedParams any // 生成器参数结构体的值，运行前由 resolveParams 填充
}

// ScanResult 按种类分组的扫描结果
type ScanResult struct {
	Structs    []*AnnotatedTarget
	Interfaces []*AnnotatedTarget
	Types      []*AnnotatedTarget

	PackageConfigs map[string]*PackageConfig // 包目录 → go:dissolve 配置
	Files          []string                  // 扫描到的源文件，含没有注解的，不含解析失败的
}

func (r *ScanResult) All() []*AnnotatedTarget {
	return slices.Concat(r.Structs, r.Interfaces, r.Types)
}

// ByAnnotation 带有指定注解的目标
func (r *ScanResult) ByAnnotation(name string) []*AnnotatedTarget {
	return lo.Filter(r.All(), func(t *AnnotatedTarget, _ int) bool {
		return HasAnnotation(t.Annotations, name)
	})
}

// GenerateContext 一次 Generate 调用的输入
type GenerateContext struct {
	Targets        []*AnnotatedTarget
	PackageConfigs map[string]*PackageConfig
	DefaultOutput  string // 命令行 -output，优先级最低
	Verbose        bool
}

func (c *GenerateContext) GetPackageConfig(pkgDir string) *PackageConfig {
	return c.PackageConfigs[pkgDir]
}

// GenerateResult 生成器的输出，键为输出文件路径
//
// Definitions 与 RawOutputs 可以混用：RawOutputs 中的源码（例如 jennifer
// 渲染的结果）会先经 ParseSourceToGG 转换，再与同一文件的其他定义合并。
//
// Claimed 登记目标对应的输出路径，目标被拒绝时也要登记，
// 本次没有产生输出的登记路径会作为过期文件删除。
type GenerateResult struct {
	Definitions map[string]*gg.Generator
	RawOutputs  map[string][]byte
	Errors      []error
	Skipped     int // 因校验失败未生成的目标数
	Claimed     []string
}

func NewGenerateResult() *GenerateResult {
	return &GenerateResult{
		Definitions: make(map[string]*gg.Generator),
		RawOutputs:  make(map[string][]byte),
	}
}

func (r *GenerateResult) AddDefinition(path string, gen *gg.Generator) {
	if r.Definitions == nil {
		r.Definitions = make(map[string]*gg.Generator)
	}
	r.Definitions[path] = gen
}

func (r *GenerateResult) AddRawOutput(path string, src []byte) {
	if r.RawOutputs == nil {
		r.RawOutputs = make(map[string][]byte)
	}
	r.RawOutputs[path] = src
}

func (r *GenerateResult) Claim(path string) {
	r.Claimed = append(r.Claimed, path)
}

func (r *GenerateResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
}

func (r *GenerateResult) HasErrors() bool {
	return len(r.Errors) > 0
}
