package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/internal/compress"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "*", c.Collection.Pattern)
	assert.Equal(t, compress.Zstd, c.Compression())
	assert.Equal(t, grib1.InterpolationLinear, c.Interpolation())
	assert.True(t, c.Scan.ECMWFLengthFixup)
	assert.Equal(t, 1024, c.Scan.RecoveryWindow)
	assert.True(t, c.Build.MergeSubsetCoords)
	assert.Len(t, c.ScanOptions(), 1)
}

func TestFlagsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "grib1index.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
tables = ["local.toml"]

[collection]
dir = "/data/gfs"
pattern = "*.grb"

[index]
compression = "s2"

[scan]
ecmwfLengthFixup = false
`), 0o644))
	t.Setenv("GRIB1INDEX_READ_INTERPOLATION", "nearest")

	v := New()
	set := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(v, set)
	require.NoError(t, set.Parse([]string{"--config", file, "--index.compression", "lz4"}))

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/data/gfs", c.Collection.Dir)
	assert.Equal(t, "*.grb", c.Collection.Pattern)
	assert.Equal(t, compress.LZ4, c.Compression())
	assert.Equal(t, grib1.InterpolationNearest, c.Interpolation())
	assert.False(t, c.Scan.ECMWFLengthFixup)
	assert.Equal(t, []string{"local.toml"}, c.Tables)
	assert.Equal(t, "gfs", c.CollectionName())
	assert.Equal(t, filepath.Join("/data/gfs", "gfs.ncx"), c.IndexPath())
	assert.Len(t, c.ScanOptions(), 2)
}

func TestValidate(t *testing.T) {
	for key, value := range map[string]interface{}{
		"index.compression":   "gzip",
		"read.interpolation":  "cubic",
		"scan.recoveryWindow": -1,
		"collection.pattern":  "[",
	} {
		t.Run(key, func(t *testing.T) {
			v := New()
			v.Set(key, value)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}

	v := New()
	v.Set("config", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load(v)
	assert.Error(t, err)
}
