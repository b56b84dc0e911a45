package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pzawadzki/grafik/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grafik.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
doctors:
  - name: "Gerard"
    role: fixed
  - name: "Filip"
    role: rotation
    no_optout: true
  - name: "Kacper"
    role: rotation
    no_optout: true
    saturday_rule: true
store:
  path: data.csv
server:
  listen: ":9090"
  allowed_origins: ["https://grafik.local"]
engine:
  trials: 200
  budget_seconds: 10
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, []string{"https://grafik.local"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 200, cfg.Engine.Trials)
	assert.Equal(t, 10*time.Second, cfg.Budget())
	assert.Equal(t, "debug", cfg.LogLevel)

	team := cfg.Team()
	require.Len(t, team.Doctors, 3)
	assert.Equal(t, model.RoleFixed, team.Doctors[0].Role)
	assert.True(t, team.Doctors[2].SaturdayRule)

	senior, ok := team.SeniorFixed()
	require.True(t, ok)
	assert.Equal(t, "Gerard", senior.Name)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
doctors:
  - name: "Filip"
    role: rotation
store:
  path: data.csv
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, 500, cfg.Engine.Trials)
	assert.Equal(t, time.Duration(0), cfg.Budget())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"no doctors", "store:\n  path: data.csv\n", ErrNoDoctors},
		{
			"duplicate name",
			"doctors:\n  - name: Filip\n    role: rotation\n  - name: Filip\n    role: rotation\nstore:\n  path: data.csv\n",
			ErrDuplicateName,
		},
		{
			"bad role",
			"doctors:\n  - name: Filip\n    role: substitute\nstore:\n  path: data.csv\n",
			ErrBadRole,
		},
		{
			"no store",
			"doctors:\n  - name: Filip\n    role: rotation\n",
			ErrNoStore,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
