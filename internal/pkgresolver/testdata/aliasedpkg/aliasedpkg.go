package aliasedpkg

// SomeType 用于别名导入场景
type SomeType struct {
	Value string
}
