// Package config holds the settings of collection builds and reads. Values
// come from flags, a configuration file named by the config flag, and
// GRIB1INDEX_ environment variables, in that order of precedence.
package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sdifrance/gribcollection/collection"
	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/gribio"
	"github.com/sdifrance/gribcollection/internal/compress"
)

// Config is the decoded configuration.
type Config struct {
	Collection struct {
		Name      string
		Dir       string
		Pattern   string
		Recursive bool
	}
	Index struct {
		Path        string
		Compression string
	}
	Scan struct {
		ECMWFLengthFixup bool `mapstructure:"ecmwflengthfixup"`
		RecoveryWindow   int  `mapstructure:"recoverywindow"`
	}
	Build struct {
		MergeSubsetCoords bool `mapstructure:"mergesubsetcoords"`
	}
	Read struct {
		Interpolation string
	}
	// Tables are parameter table files overriding the built-in tables.
	Tables []string
}

type option struct {
	name, usage string
	defaultVal  interface{}
}

var options = []option{
	{"config", "configuration file (toml, yaml or json)", ""},
	{"collection.name", "collection name, defaults to the directory name", ""},
	{"collection.dir", "directory holding the GRIB1 files", ""},
	{"collection.pattern", "file name pattern of the GRIB1 files", "*"},
	{"collection.recursive", "include files in subdirectories", false},
	{"index.path", "index file, defaults to <dir>/<name>" + collection.IndexSuffix, ""},
	{"index.compression", "compression of the record tables: none, zstd, s2 or lz4", "zstd"},
	{"scan.ecmwfLengthFixup", "recover the length of ECMWF messages above 8 MB", true},
	{"scan.recoveryWindow", "bytes searched past a bad message end for its trailer, 0 disables", gribio.DefaultRecoveryWindow},
	{"build.mergeSubsetCoords", "share a coordinate with the shortest coordinate containing it", true},
	{"read.interpolation", "resampling of quasi-regular grids: none, nearest or linear", "linear"},
	{"tables", "parameter table files", []string{}},
}

// New returns a viper instance with defaults and environment variables
// set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("GRIB1INDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, o := range options {
		v.SetDefault(o.name, o.defaultVal)
	}
	return v
}

// AddFlags defines a flag for every option on set and binds it to v.
func AddFlags(v *viper.Viper, set *pflag.FlagSet) {
	for _, o := range options {
		switch d := o.defaultVal.(type) {
		case string:
			set.String(o.name, d, o.usage)
		case bool:
			set.Bool(o.name, d, o.usage)
		case int:
			set.Int(o.name, d, o.usage)
		case []string:
			set.StringSlice(o.name, d, o.usage)
		default:
			panic("invalid option type")
		}
		v.BindPFlag(o.name, set.Lookup(o.name))
	}
}

// Load reads the configuration file, if one is set, and decodes v.
func Load(v *viper.Viper) (*Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading configuration file %s", path)
		}
	}
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the configuration with every option at its default.
func Default() *Config {
	c, err := Load(New())
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks the enumerated options.
func (c *Config) Validate() error {
	if _, err := compress.ParseType(c.Index.Compression); err != nil {
		return errors.Wrap(err, "index.compression")
	}
	if _, err := grib1.ParseInterpolation(c.Read.Interpolation); err != nil {
		return errors.Wrap(err, "read.interpolation")
	}
	if c.Scan.RecoveryWindow < 0 {
		return errors.Errorf("scan.recoveryWindow must not be negative, got %d", c.Scan.RecoveryWindow)
	}
	if c.Collection.Pattern != "" {
		if _, err := filepath.Match(c.Collection.Pattern, ""); err != nil {
			return errors.Wrap(err, "collection.pattern")
		}
	}
	return nil
}

// CollectionName returns the configured name or the directory name.
func (c *Config) CollectionName() string {
	if c.Collection.Name != "" {
		return c.Collection.Name
	}
	if c.Collection.Dir != "" {
		return filepath.Base(filepath.Clean(c.Collection.Dir))
	}
	return ""
}

// IndexPath returns the configured index path or <dir>/<name>.ncx.
func (c *Config) IndexPath() string {
	if c.Index.Path != "" {
		return c.Index.Path
	}
	return filepath.Join(c.Collection.Dir, c.CollectionName()+collection.IndexSuffix)
}

// Compression returns the index compression.
func (c *Config) Compression() compress.Type {
	t, _ := compress.ParseType(c.Index.Compression)
	return t
}

// Interpolation returns the quasi-regular grid resampling.
func (c *Config) Interpolation() grib1.Interpolation {
	i, _ := grib1.ParseInterpolation(c.Read.Interpolation)
	return i
}

// ScanOptions returns the scanner options.
func (c *Config) ScanOptions() []gribio.Option {
	opts := []gribio.Option{gribio.WithRecoveryWindow(c.Scan.RecoveryWindow)}
	if !c.Scan.ECMWFLengthFixup {
		opts = append(opts, gribio.WithFixups())
	}
	return opts
}
