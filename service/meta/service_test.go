package meta

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

func TestService_Load(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	baseURL := "mem://localhost/meta_test"
	require.NoError(t, fs.Upload(ctx, baseURL+"/program.yaml", 0644, stringReader("name: ${env.STRIDER_PROGRAM}\npriority: 4\n")))
	t.Setenv("STRIDER_PROGRAM", "spinner")

	service := New(fs, baseURL)
	assert.Equal(t, baseURL+"/program.yaml", service.URL("program.yaml"))
	assert.Equal(t, "file:///tmp/x.yaml", service.URL("file:///tmp/x.yaml"))

	ok, err := service.Exists(ctx, "program.yaml")
	require.NoError(t, err)
	assert.True(t, ok)

	var target struct {
		Name     string `yaml:"name"`
		Priority int    `yaml:"priority"`
	}
	require.NoError(t, service.Load(ctx, "program.yaml", &target))
	assert.Equal(t, "spinner", target.Name)
	assert.Equal(t, 4, target.Priority)

	var node yaml.Node
	require.NoError(t, service.Load(ctx, "program.yaml", &node))
	assert.Equal(t, yaml.DocumentNode, node.Kind)

	assert.Error(t, service.Load(ctx, "missing.yaml", &target))
}

func stringReader(text string) *strings.Reader {
	return strings.NewReader(text)
}
