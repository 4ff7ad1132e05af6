package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetConfig(t *testing.T) {
	t.Helper()
	saved := *Config
	savedDataDir := *DataDirFlag
	t.Cleanup(func() {
		*Config = saved
		*DataDirFlag = savedDataDir
	})
}

func TestDefaults(t *testing.T) {
	resetConfig(t)

	assert.Equal(t, "./stratum-data", Config.DataDir)
	assert.Equal(t, 4096, Config.MutationLog.CompressThresholdBytes)
	assert.Equal(t, "console", Config.Logging.Format)
	assert.False(t, Config.Prometheus.Enabled)
	require.NoError(t, Validate())
}

func TestLoad_FromFile(t *testing.T) {
	resetConfig(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
data_dir = "` + dir + `/data"

[mutation_log]
compress_threshold_bytes = 128

[logging]
verbose = true
format = "json"

[types.aliases]
MONEY = "Decimal"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, Load(path))

	assert.Equal(t, dir+"/data", Config.DataDir)
	assert.Equal(t, dir+"/data/mutations", Config.MutationLog.Path)
	assert.Equal(t, 128, Config.MutationLog.CompressThresholdBytes)
	assert.True(t, Config.Logging.Verbose)
	assert.Equal(t, "json", Config.Logging.Format)
	assert.Equal(t, "Decimal", Config.Types.Aliases["MONEY"])
	assert.DirExists(t, Config.DataDir)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	resetConfig(t)

	Config.DataDir = filepath.Join(t.TempDir(), "data")
	require.NoError(t, Load(filepath.Join(t.TempDir(), "absent.toml")))
	assert.Equal(t, Config.DataDir+"/mutations", Config.MutationLog.Path)
}

func TestLoad_DataDirFlagOverride(t *testing.T) {
	resetConfig(t)

	override := filepath.Join(t.TempDir(), "flagged")
	*DataDirFlag = override
	require.NoError(t, Load(""))
	assert.Equal(t, override, Config.DataDir)
	assert.Equal(t, override+"/mutations", Config.MutationLog.Path)
}

func TestValidate_Errors(t *testing.T) {
	resetConfig(t)

	Config.Logging.Format = "xml"
	assert.ErrorContains(t, Validate(), "invalid logging format")
	Config.Logging.Format = "console"

	Config.Prometheus.Enabled = true
	Config.Prometheus.Port = 0
	assert.ErrorContains(t, Validate(), "invalid Prometheus port")
	Config.Prometheus.Port = 9090

	Config.MutationLog.CompressThresholdBytes = -1
	assert.ErrorContains(t, Validate(), "compress threshold")
}
