package aterm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func Test_DefaultConfig_Validates(t *testing.T) {
	require.NoError(t, DefaultConfig().validate())
}

func Test_LoadConfig_Applies_File_Then_Env(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aterm.jsonc")

	require.NoError(t, os.WriteFile(path, []byte(`{
		// trailing comma and comments are fine, it's HUJSON
		"auto_gc": false,
		"initial_capacity": 256,
	}`), 0o600))

	cfg, err := LoadConfig(path, map[string]string{
		"ATERM_GC_LOAD_FACTOR": "0.5",
	})
	require.NoError(t, err)

	require.False(t, cfg.AutomaticGC)
	require.Equal(t, 256, cfg.InitialCapacity)
	require.InDelta(t, 0.5, cfg.GCLoadFactor, 1e-9)
}

func Test_LoadConfig_Rejects_Non_Power_Of_Two_Capacity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aterm.jsonc")

	require.NoError(t, os.WriteFile(path, []byte(`{"initial_capacity": 100}`), 0o600))

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
}

func Test_ApplyEnv_Overrides_Auto_GC(t *testing.T) {
	cfg := DefaultConfig()
	applyEnv(&cfg, map[string]string{"AUTO_GC": "false"})

	require.False(t, cfg.AutomaticGC)
}

func Test_LoadConfig_With_No_Overrides_Matches_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("LoadConfig with no overrides diverged from DefaultConfig (-want +got):\n%s", diff)
	}
}
