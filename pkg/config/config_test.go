package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	data := []byte(`
lazer_dir: /home/user/.local/share/osu
output_dir: /mnt/osu/Songs
mode: copy
workers: 4
exclude:
  - "*.avi"
`)
	cfg, err := Parse(data, ".osulift.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/home/user/.local/share/osu", cfg.LazerDir)
	assert.Equal(t, "/mnt/osu/Songs", cfg.OutputDir)
	assert.Equal(t, "copy", cfg.Mode)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"*.avi"}, cfg.Exclude)
}

func TestParse_YAMLUnknownField(t *testing.T) {
	data := []byte(`
lazer_dir: /osu
output_dir: /songs
not_a_field: true
`)
	_, err := Parse(data, ".osulift.yaml")
	assert.Error(t, err)
}

func TestParse_HCL(t *testing.T) {
	data := []byte(`
lazer_dir  = "/osu"
output_dir = "/songs"
mode       = "symlink"
exclude    = ["*.mp4", "sb/**"]
`)
	cfg, err := Parse(data, ".osulift.hcl")
	require.NoError(t, err)

	assert.Equal(t, "/osu", cfg.LazerDir)
	assert.Equal(t, "/songs", cfg.OutputDir)
	assert.Equal(t, "symlink", cfg.Mode)
	assert.Equal(t, []string{"*.mp4", "sb/**"}, cfg.Exclude)
}

func TestParse_JSON(t *testing.T) {
	data := []byte(`{"lazer_dir": "/osu", "output_dir": "/songs"}`)
	cfg, err := Parse(data, ".osulift.json")
	require.NoError(t, err)

	assert.Equal(t, "/osu", cfg.LazerDir)
	assert.Equal(t, "/songs", cfg.OutputDir)
	assert.Empty(t, cfg.Mode)
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := Parse([]byte("whatever"), "config.toml")
	assert.Error(t, err)
}

func TestLoad_MissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ".osulift.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".osulift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lazer_dir: /osu\noutput_dir: /songs\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/osu", cfg.LazerDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  Config{LazerDir: "/osu", OutputDir: "/songs"},
		},
		{
			name:    "missing_lazer_dir",
			cfg:     Config{OutputDir: "/songs"},
			wantErr: true,
		},
		{
			name:    "missing_output_dir",
			cfg:     Config{LazerDir: "/osu"},
			wantErr: true,
		},
		{
			name:    "negative_workers",
			cfg:     Config{LazerDir: "/osu", OutputDir: "/songs", Workers: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Config{LazerDir: filepath.Join("/data", "osu")}
	assert.Equal(t, filepath.Join("/data", "osu", "client.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/data", "osu", "files"), cfg.ContentRoot())
}
