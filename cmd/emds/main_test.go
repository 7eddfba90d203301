package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emds/internal/domain"
)

func TestPickActorID(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		idSet   bool
		roleSet bool
		want    string
	}{
		{"remembered id used without flags", "u-req-1", false, false, "u-req-1"},
		{"explicit role shadows remembered id", "u-req-1", false, true, ""},
		{"explicit id wins over role", "u-exec-1", true, true, "u-exec-1"},
		{"explicit id alone", "u-exec-1", true, false, "u-exec-1"},
		{"nothing remembered", "", false, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pickActorID(tc.id, tc.idSet, tc.roleSet))
		})
	}
}

func TestDivisionCodes(t *testing.T) {
	got := divisionCodes([]string{"tek, sdm", "", " keu "})
	assert.Equal(t, []domain.DivisionCode{"TEK", "SDM", "KEU"}, got)
	assert.Nil(t, divisionCodes(nil))
}

func TestSetEnvValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, setEnvValue(path, "EMDS_ACTOR_ID", "u-req-1"))
	require.NoError(t, os.WriteFile(path, []byte("OTHER=1\nEMDS_ACTOR_ID=u-req-1\n"), 0o644))
	require.NoError(t, setEnvValue(path, "EMDS_ACTOR_ID", "u-exec-1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OTHER=1\nEMDS_ACTOR_ID=u-exec-1\n", string(data))

	fresh := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, setEnvValue(fresh, "EMDS_ACTOR_ID", "u-adm-1"))
	data, err = os.ReadFile(fresh)
	require.NoError(t, err)
	assert.Equal(t, "EMDS_ACTOR_ID=u-adm-1\n", string(data))
}
