package dissolvegen

import (
	"strings"

	"github.com/samber/lo"
)

const (
	// TagMarker 激活生成的标记注解
	TagMarker = "Dissolve"
	// TagContainer 类型级配置注解
	TagContainer = "dissolve"
	// TagField 字段级配置注解
	TagField = "dissolved"

	// CompanionSuffix 伴生结构体名称后缀
	CompanionSuffix = "Dissolved"
)

// OptionKey 注解中可识别的选项
type OptionKey int

const (
	OptionVisibility OptionKey = iota + 1
	OptionSkip
	OptionRename
	OptionOutput
)

type optionSpec struct {
	name   string
	usage  string // 错误信息中的写法
	valued bool   // true 表示 name = "value" 形式，false 表示关键字形式
}

var optionSpecs = map[OptionKey]optionSpec{
	OptionVisibility: {name: "visibility", usage: "visibility", valued: true},
	OptionSkip:       {name: "skip", usage: "skip"},
	OptionRename:     {name: "rename", usage: `rename = "new_name"`, valued: true},
	OptionOutput:     {name: "output", usage: "output", valued: true},
}

// tagOptions 每个注解支持的选项，顺序即错误信息中的顺序
var tagOptions = map[string][]OptionKey{
	TagMarker:    {OptionOutput},
	TagContainer: {OptionVisibility},
	TagField:     {OptionSkip, OptionRename},
}

func (k OptionKey) String() string {
	if spec, ok := optionSpecs[k]; ok {
		return spec.name
	}
	return "unknown"
}

// lookupOption 在注解支持的选项中查找，valued 需与选项的书写形式一致
func lookupOption(tag, name string, valued bool) (OptionKey, bool) {
	for _, k := range tagOptions[tag] {
		spec := optionSpecs[k]
		if spec.name == name && spec.valued == valued {
			return k, true
		}
	}
	return 0, false
}

// supportedOptions 生成错误信息中的 "supported option(s): ..." 部分
func supportedOptions(tag string) string {
	usages := lo.Map(tagOptions[tag], func(k OptionKey, _ int) string {
		return optionSpecs[k].usage
	})
	if len(usages) == 1 {
		return "supported option: " + usages[0]
	}
	return "supported options: " + strings.Join(usages, ", ")
}
