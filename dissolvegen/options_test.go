package dissolvegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupOption(t *testing.T) {
	key, ok := lookupOption(TagField, "skip", false)
	assert.True(t, ok)
	assert.Equal(t, OptionSkip, key)

	key, ok = lookupOption(TagField, "rename", true)
	assert.True(t, ok)
	assert.Equal(t, OptionRename, key)

	// 书写形式不匹配
	_, ok = lookupOption(TagField, "skip", true)
	assert.False(t, ok)
	_, ok = lookupOption(TagField, "rename", false)
	assert.False(t, ok)

	// 选项只属于声明它的注解
	_, ok = lookupOption(TagContainer, "skip", false)
	assert.False(t, ok)
	_, ok = lookupOption(TagMarker, "visibility", true)
	assert.False(t, ok)
}

func TestSupportedOptions(t *testing.T) {
	assert.Equal(t, "supported option: output", supportedOptions(TagMarker))
	assert.Equal(t, "supported option: visibility", supportedOptions(TagContainer))
	assert.Equal(t, `supported options: skip, rename = "new_name"`, supportedOptions(TagField))
	assert.Equal(t, "rename", OptionRename.String())
	assert.Equal(t, "unknown", OptionKey(0).String())
}
