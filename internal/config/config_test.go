package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Engine.StrictDecisions)
	assert.Len(t, cfg.Templates, 5)

	tpl, ok := cfg.Template("A")
	require.True(t, ok)
	assert.Equal(t, "MUX Sparse Backup", tpl.Name)
	assert.ElementsMatch(t, []string{"TEK", "KEU"}, toStrings(tpl.RequiredDivisions))
	assert.ElementsMatch(t, []string{"UMU", "SDM"}, toStrings(tpl.OptionalDivisions))

	_, ok = cfg.Template("custom")
	assert.False(t, ok)
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"no roles", "templates: []\n", "rbac.roles is required"},
		{"unknown role", "rbac:\n  roles:\n    admin: {}\n    guest: {}\n", "unknown role guest"},
		{"missing admin", "rbac:\n  roles:\n    requester: {}\n", "must include admin"},
		{"template without divisions", "templates:\n  - id: X\nrbac:\n  roles:\n    admin: {}\n", "lists no divisions"},
		{"reserved template id", "templates:\n  - id: custom\n    required: [TEK]\nrbac:\n  roles:\n    admin: {}\n", "reserved"},
		{"bad logging format", "rbac:\n  roles:\n    admin: {}\nlogging:\n  format: xml\n", "logging.format"},
		{"not yaml", "rbac: [", "invalid config yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestStrictDecisionsCanBeDisabled(t *testing.T) {
	cfg, err := FromYAML([]byte("rbac:\n  roles:\n    admin: {}\nengine:\n  strict_decisions: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Engine.StrictDecisions)
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Len(t, cfg.Templates, 5)

	_, err = Load(dir)
	require.Error(t, err)

	custom := "templates:\n  - id: Z\n    name: Zeta\n    required: [TEK]\nrbac:\n  roles:\n    admin:\n      permissions: [user.manage]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "emds.yml"), []byte(custom), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	require.Len(t, cfg.Templates, 1)
	assert.Equal(t, "Zeta", cfg.Templates[0].Name)
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
