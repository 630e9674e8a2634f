package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/canboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name         string
		instanceName string
		force        bool
		setupFunc    func(string)
		wantInstance string
		wantErr      string
	}{
		{
			name:         "fresh initialization",
			setupFunc:    func(dir string) {},
			wantInstance: "default",
		},
		{
			name:         "instance name is written",
			instanceName: "bench-2",
			setupFunc:    func(dir string) {},
			wantInstance: "bench-2",
		},
		{
			name: "existing file is kept",
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, config.DefaultPath), []byte("old content"), 0644)
			},
			wantErr: "already initialized",
		},
		{
			name:  "force overwrites existing file",
			force: true,
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, config.DefaultPath), []byte("old content"), 0644)
			},
			wantInstance: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setupFunc(dir)

			paths, err := Initialize(dir, tt.instanceName, tt.force)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				content, _ := os.ReadFile(filepath.Join(dir, config.DefaultPath))
				assert.Equal(t, "old content", string(content))
				return
			}
			require.NoError(t, err)
			require.Equal(t, []string{filepath.Join(dir, config.DefaultPath)}, paths)

			cfg, err := config.Load(paths[0])
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstance, cfg.Instance)
			assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
			assert.Equal(t, "5s", cfg.RPC.Timeout)

			info, err := os.Stat(paths[0])
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
		})
	}
}

func TestTemplateIsValidYAML(t *testing.T) {
	content, err := templatesFS.ReadFile("templates/canboard.yml.tmpl")
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, yaml.Unmarshal(content, &data))
	assert.Equal(t, "1.0", data["version"])
	assert.Contains(t, data, "sidebar")
}

func TestValidateInstance(t *testing.T) {
	assert.NoError(t, ValidateInstance(""))
	assert.NoError(t, ValidateInstance("bench-2"))
	assert.Error(t, ValidateInstance("Bad Name!"))
}
