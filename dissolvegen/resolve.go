package dissolvegen

import (
	"go/token"
)

// FieldDecision 单个字段的最终配置
type FieldDecision struct {
	Skip   bool
	Rename string // 为空表示不重命名

	SkipPos   token.Pos
	RenamePos token.Pos
	renameEnd token.Pos
}

// renameSpan 设置 rename 的注解位置
func (d FieldDecision) renameSpan() span {
	return span{pos: d.RenamePos, end: d.renameEnd}
}

// ResolveField 按出现顺序合并字段的全部选项
// skip 与 rename 互斥且与先后顺序无关，rename 至多一次，重复 skip 无害
func ResolveField(fset *token.FileSet, opts []FieldOption) (FieldDecision, error) {
	rep := reporter{fset: fset}
	var d FieldDecision
	for _, opt := range opts {
		switch opt.Key {
		case OptionSkip:
			if d.Rename != "" {
				return FieldDecision{}, rep.errorf(opt, "cannot use rename on skipped field")
			}
			if !d.Skip {
				d.Skip = true
				d.SkipPos = opt.pos
			}
		case OptionRename:
			if d.Skip {
				return FieldDecision{}, rep.errorf(opt, "cannot use rename on skipped field")
			}
			if d.Rename != "" {
				return FieldDecision{}, rep.errorf(opt, "cannot specify multiple rename options on the same field")
			}
			d.Rename = opt.Rename
			d.RenamePos, d.renameEnd = opt.pos, opt.end
		}
	}
	return d, nil
}
