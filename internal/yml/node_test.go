package yml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNode(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
name: demo
Priority: 0x10
block: [sbrk, mmap]
allow: exit
on: true
`), &doc))
	root := (*Node)(&doc).Root()

	assert.Equal(t, "demo", root.Lookup("name").Value)
	priority, err := root.Lookup("priority").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(16), priority)
	assert.Equal(t, []string{"sbrk", "mmap"}, root.Lookup("block").Strings())
	assert.Equal(t, []string{"exit"}, root.Lookup("allow").Strings())
	assert.Nil(t, root.Lookup("missing"))

	_, err = root.Lookup("block").Int64()
	assert.Error(t, err)

	var keys []string
	require.NoError(t, root.Pairs(func(key string, _ *Node) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"name", "Priority", "block", "allow", "on"}, keys)

	asMap := (*Node)(&doc).Interface().(map[string]interface{})
	assert.Equal(t, 16, asMap["Priority"])
	assert.Equal(t, true, asMap["on"])
	assert.Equal(t, []interface{}{"sbrk", "mmap"}, asMap["block"])
}
