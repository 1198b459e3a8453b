package plugin

import (
	"fmt"
	"reflect"
	"slices"
)

// DefaultPriority 未显式设置时的生成器优先级
const DefaultPriority = 100

// Generator 代码生成器
//
// 扫描器按 Annotations 收集目标，按 SupportedTargets 过滤后交给 Generate。
// 同一输出文件中各生成器的代码按 Priority 从小到大排列。
type Generator interface {
	Name() string
	// Annotations 绑定的注解名（不含 @），一个注解只能属于一个生成器
	Annotations() []string
	SupportedTargets() []TargetKind
	// ParamDefs 注解参数定义，用于帮助信息与参数解析
	ParamDefs() []ParamDef
	// NewParams 返回参数结构体的新指针，不需要参数时返回 nil
	NewParams() any
	Priority() int
	// Generate 单个目标的错误记录到 GenerateResult.Errors，返回 error 表示整个生成器失败
	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 实现 Generate 以外的方法，供具体生成器嵌入
type BaseGenerator struct {
	name        string
	annotations []string
	targets     []TargetKind
	paramDefs   []ParamDef
	paramsType  reflect.Type // 参数结构体类型，nil 表示无参数
	priority    int
}

func NewBaseGenerator(name string, annotations []string, targets []TargetKind) *BaseGenerator {
	return &BaseGenerator{
		name:        name,
		annotations: slices.Clone(annotations),
		targets:     slices.Clone(targets),
		priority:    DefaultPriority,
	}
}

// NewBaseGeneratorWithParams 参数只用于帮助信息，不解析到结构体
func NewBaseGeneratorWithParams(name string, annotations []string, targets []TargetKind, params []ParamDef) *BaseGenerator {
	g := NewBaseGenerator(name, annotations, targets)
	g.paramDefs = params
	return g
}

// NewBaseGeneratorWithParamsStruct 由参数结构体的 param 标签生成参数定义
// paramsProto 为结构体值或指针，例如 DissolveParams{}
func NewBaseGeneratorWithParamsStruct(name string, annotations []string, targets []TargetKind, paramsProto any) *BaseGenerator {
	typ := reflect.TypeOf(paramsProto)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("生成器 %s 的参数原型必须是结构体, 得到: %T", name, paramsProto))
	}

	g := NewBaseGenerator(name, annotations, targets)
	g.paramDefs = ParseParamsFromStruct(paramsProto)
	g.paramsType = typ
	return g
}

func (g *BaseGenerator) Name() string                   { return g.name }
func (g *BaseGenerator) Annotations() []string          { return g.annotations }
func (g *BaseGenerator) SupportedTargets() []TargetKind { return g.targets }
func (g *BaseGenerator) ParamDefs() []ParamDef          { return g.paramDefs }
func (g *BaseGenerator) Priority() int                  { return g.priority }

func (g *BaseGenerator) NewParams() any {
	if g.paramsType == nil {
		return nil
	}
	return reflect.New(g.paramsType).Interface()
}

func (g *BaseGenerator) SetParamDefs(params []ParamDef) *BaseGenerator {
	g.paramDefs = params
	return g
}

// SetPriority 数字越小越靠前
func (g *BaseGenerator) SetPriority(priority int) *BaseGenerator {
	g.priority = priority
	return g
}
