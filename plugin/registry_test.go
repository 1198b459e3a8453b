package plugin

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopGenerator struct {
	BaseGenerator
}

func (*nopGenerator) Generate(*GenerateContext) (*GenerateResult, error) {
	return NewGenerateResult(), nil
}

func newNop(name string, anns ...string) *nopGenerator {
	return &nopGenerator{BaseGenerator: *NewBaseGenerator(name, anns, []TargetKind{TargetStruct})}
}

func TestRegisterValidation(t *testing.T) {
	registry := NewRegistry()

	assert.EqualError(t, registry.Register(newNop("", "Dissolve")), "生成器名称不能为空")
	assert.EqualError(t, registry.Register(newNop("bare")), `生成器 "bare" 没有声明任何注解`)
	assert.ErrorContains(t, registry.Register(newNop("at", "@Dissolve")), `注解名 "@Dissolve" 无效`)

	require.NoError(t, registry.Register(newNop("first", "Dissolve")))
	// 部分注解冲突时整个注册失败
	assert.ErrorContains(t, registry.Register(newNop("second", "Other", "Dissolve")), `已被生成器 "first" 绑定`)
	assert.False(t, registry.IsRegistered("Other"))
	_, ok := registry.GetByName("second")
	assert.False(t, ok)

	assert.Equal(t, []string{"Dissolve"}, registry.Annotations())
	assert.Panics(t, func() { registry.MustRegister(newNop("first", "Third")) })
}

func TestBaseGeneratorDefaults(t *testing.T) {
	anns := []string{"Dissolve"}
	gen := NewBaseGenerator("g", anns, []TargetKind{TargetStruct})
	anns[0] = "Changed"

	assert.Equal(t, []string{"Dissolve"}, gen.Annotations())
	assert.Equal(t, DefaultPriority, gen.Priority())
	assert.Nil(t, gen.NewParams())
	assert.Equal(t, 5, gen.SetPriority(5).Priority())

	type params struct {
		Output string `param:"name=output"`
	}
	withPtr := NewBaseGeneratorWithParamsStruct("p", anns, nil, &params{})
	assert.IsType(t, &params{}, withPtr.NewParams())
	assert.Len(t, withPtr.ParamDefs(), 1)

	assert.Panics(t, func() {
		NewBaseGeneratorWithParamsStruct("bad", anns, nil, "output")
	})
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(newNop("gen2", "Other")))
	require.NoError(t, registry.Register(newNop("gen1", "Dissolve", "DissolveAlias")))

	assert.True(t, registry.IsRegistered("DissolveAlias"))
	gen, ok := registry.GetByAnnotation("Dissolve")
	require.True(t, ok)
	assert.Equal(t, "gen1", gen.Name())

	names := lo.Map(registry.Generators(), func(g Generator, _ int) string { return g.Name() })
	assert.Equal(t, []string{"gen1", "gen2"}, names)
	assert.Equal(t, []string{"Dissolve", "DissolveAlias", "Other"}, registry.Annotations())

	require.NoError(t, registry.Unregister("gen1"))
	assert.False(t, registry.IsRegistered("Dissolve"))
	assert.False(t, registry.IsRegistered("DissolveAlias"))
	assert.Error(t, registry.Unregister("gen1"))
}

func TestDispatchTargets(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(newNop("dissolve", "Dissolve", "DissolveAlias"))

	user := &AnnotatedTarget{
		Target:      &Target{Kind: TargetStruct, Name: "User"},
		Annotations: []*Annotation{{Name: "Dissolve"}, {Name: "DissolveAlias"}, {Name: "Dissolve"}},
	}
	id := &AnnotatedTarget{
		Target:      &Target{Kind: TargetType, Name: "ID"},
		Annotations: []*Annotation{{Name: "Dissolve"}},
	}
	stray := &AnnotatedTarget{
		Target:      &Target{Kind: TargetStruct, Name: "Stray"},
		Annotations: []*Annotation{{Name: "Unknown"}},
	}

	dispatch := registry.DispatchTargets(&ScanResult{
		Structs: []*AnnotatedTarget{user, stray},
		Types:   []*AnnotatedTarget{id},
	})

	// 同一生成器的多个注解只分发一次，不支持的目标种类不分发
	assert.Equal(t, map[string][]*AnnotatedTarget{"dissolve": {user}}, dispatch)
}
