package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sdifrance/gribcollection"
	"github.com/sdifrance/gribcollection/collection"
	"github.com/sdifrance/gribcollection/config"
	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/gribio"
	"github.com/sdifrance/gribcollection/internal/tables"
	"github.com/sdifrance/gribcollection/rectilinear"
)

func newRootCmd() *cobra.Command {
	v := config.New()
	root := &cobra.Command{
		Use:   "grib1index",
		Short: "Build and inspect GRIB1 collection indexes.",
		Long: `grib1index scans directories of GRIB1 files, groups their messages into
variables with time, ensemble and vertical coordinates, and writes an index
that lets those variables be read without rescanning the files.

Options can be given as flags, in a configuration file named by --config, or
as environment variables such as GRIB1INDEX_INDEX_COMPRESSION.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// glog reads its flags from the standard flag set.
			return flag.CommandLine.Parse(nil)
		},
	}
	config.AddFlags(v, root.PersistentFlags())
	root.AddCommand(buildCmd(v), dumpCmd(), readCmd(v), scanCmd(v))
	return root
}

func buildCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "build [dir]",
		Short: "Index the GRIB1 files of a directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("collection.dir", args[0])
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if cfg.Collection.Dir == "" {
				return errors.New("no collection directory, pass one or set collection.dir")
			}
			opts, err := buildOptions(cfg)
			if err != nil {
				return err
			}
			coll := &collection.Dir{
				CollectionName: cfg.CollectionName(),
				Root:           cfg.Collection.Dir,
				Pattern:        cfg.Collection.Pattern,
				Recursive:      cfg.Collection.Recursive,
			}
			_, report, err := gribcollection.Build(cmd.Context(), coll, cfg.IndexPath(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d messages (%d skipped, %d corrupt), %s in %s\n",
				cfg.IndexPath(), len(report.Files), report.Scan.Messages, report.Scan.Skipped, report.Scan.Corrupt,
				report.Stats, report.Duration)
			return nil
		},
	}
}

func buildOptions(cfg *config.Config) (gribcollection.BuildOptions, error) {
	opts := gribcollection.DefaultBuildOptions()
	opts.Scan = cfg.ScanOptions()
	opts.Compression = cfg.Compression()
	opts.Rectilinear.MergeSubsetCoords = cfg.Build.MergeSubsetCoords
	if len(cfg.Tables) > 0 {
		lookup, err := tables.Load(cfg.Tables...)
		if err != nil {
			return opts, err
		}
		opts.Rectilinear.Tables = lookup
	}
	return opts, nil
}

func dumpCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "dump index",
		Short: "Print the groups, coordinates and variables of an index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := gribcollection.Open(args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			w := cmd.OutOrStdout()
			if verbose {
				if err := d.LoadAll(); err != nil {
					return err
				}
				cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true}
				cfg.Fdump(w, d.Collection)
				return nil
			}
			dump(w, d.Collection)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "dump every field, including record locations")
	return cmd
}

func dump(w io.Writer, c *rectilinear.Collection) {
	fmt.Fprintf(w, "collection %s: centre %d/%d table %d process %d\n", c.Name, c.Center, c.SubCenter, c.TableVersion, c.GenProcess)
	for i, f := range c.Files {
		fmt.Fprintf(w, "  file %d: %s\n", i, f)
	}
	for _, g := range c.Groups {
		fmt.Fprintf(w, "group %s: %s\n", g.Name, g.Grid)
		if hcs, err := g.Grid.HorizCoordSys(); err == nil {
			fmt.Fprintf(w, "  %s\n", hcs)
		}
		for i, tc := range g.TimeCoords {
			fmt.Fprintf(w, "  time%d: %s\n", i, tc)
		}
		for i, vc := range g.VertCoords {
			fmt.Fprintf(w, "  vert%d: %s\n", i, vc)
		}
		for i, ec := range g.EnsCoords {
			fmt.Fprintf(w, "  ens%d: %v\n", i, ec.Members)
		}
		for _, v := range g.Variables {
			ntimes, nens, nverts := v.Shape(g)
			fmt.Fprintf(w, "  %s [%d x %d x %d] time%d", v.Name, ntimes, nens, nverts, v.TimeIdx)
			if v.EnsIdx >= 0 {
				fmt.Fprintf(w, " ens%d", v.EnsIdx)
			}
			if v.VertIdx >= 0 {
				fmt.Fprintf(w, " vert%d", v.VertIdx)
			}
			fmt.Fprintf(w, " %q %s, %d records, %d duplicates\n", v.Description, v.Units, v.Records, v.Duplicates)
		}
	}
}

func readCmd(v *viper.Viper) *cobra.Command {
	var dims [5]string
	cmd := &cobra.Command{
		Use:   "read index group variable",
		Short: "Print the values of a hyperslab of a variable.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			var ranges [5]gribcollection.Range
			for i, s := range dims {
				if ranges[i], err = parseRange(s); err != nil {
					return err
				}
			}
			d, err := gribcollection.Open(args[0], gribcollection.WithInterpolation(cfg.Interpolation()))
			if err != nil {
				return err
			}
			defer d.Close()
			g, variable, err := d.Variable(args[1], args[2])
			if err != nil {
				return err
			}
			a, err := d.ReadSlice(g, variable, ranges[0], ranges[1], ranges[2], ranges[3], ranges[4])
			if err != nil {
				return err
			}
			printArray(cmd.OutOrStdout(), a)
			return nil
		},
	}
	for i, name := range []string{"time", "ens", "vert", "y", "x"} {
		cmd.Flags().StringVar(&dims[i], name, ":", "half open index range start:end of the "+name+" dimension")
	}
	return cmd
}

// parseRange parses "start:end", where either bound may be omitted, or a
// single index.
func parseRange(s string) (gribcollection.Range, error) {
	r := gribcollection.All
	lo, hi, found := strings.Cut(s, ":")
	var err error
	if lo != "" {
		if r.Start, err = strconv.Atoi(lo); err != nil {
			return r, errors.Wrapf(err, "range %q", s)
		}
	}
	switch {
	case !found:
		r.End = r.Start + 1
	case hi != "":
		if r.End, err = strconv.Atoi(hi); err != nil {
			return r, errors.Wrapf(err, "range %q", s)
		}
	}
	return r, nil
}

func printArray(w io.Writer, a *gribcollection.Array) {
	s := a.Shape
	for t := 0; t < s[0]; t++ {
		for e := 0; e < s[1]; e++ {
			for z := 0; z < s[2]; z++ {
				fmt.Fprintf(w, "[%d,%d,%d]\n", t, e, z)
				for y := 0; y < s[3]; y++ {
					row := make([]string, s[4])
					for x := range row {
						f := a.At(t, e, z, y, x)
						if math.IsNaN(float64(f)) {
							row[x] = "NaN"
						} else {
							row[x] = strconv.FormatFloat(float64(f), 'g', -1, 32)
						}
					}
					fmt.Fprintln(w, strings.Join(row, " "))
				}
			}
		}
	}
}

func scanCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "scan file",
		Short: "Decode and list the GRIB1 messages of a file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return scan(cmd.OutOrStdout(), args[0], cfg)
		},
	}
}

func scan(w io.Writer, path string, cfg *config.Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	file, err := gribio.ReadFile(f, cfg.ScanOptions()...)
	if err != nil {
		return fmt.Errorf("error parsing grib file contents: %w", err)
	}
	for i, msg := range file.GRIB1Messages() {
		fmt.Fprintf(w, "%d @ %d: %s", i, file.Offset(i), msg)
		if g, err := msg.GridDefinition().EnsureDecoded(); err == nil {
			fmt.Fprintf(w, " grid=%s", grib1.GridName(g))
		}
		fmt.Fprintln(w)
	}
	return nil
}
