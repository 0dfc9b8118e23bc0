// Package gribcollection builds collection indexes over directories of
// GRIB1 files and reads variables through them.
//
// Build scans every file of a collection, groups the messages into
// variables on shared time, ensemble and vertical coordinates, and writes
// an index recording where each record lives. Open reads that index back
// and ReadSlice decodes the records of any hyperslab of a variable.
package gribcollection

import (
	"context"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/collection"
	"github.com/sdifrance/gribcollection/grib1"
	"github.com/sdifrance/gribcollection/gribindex"
	"github.com/sdifrance/gribcollection/gribio"
	"github.com/sdifrance/gribcollection/internal/compress"
	"github.com/sdifrance/gribcollection/rectilinear"
)

// ErrNoFiles is returned when building a collection without files.
var ErrNoFiles = errors.New("gribcollection: collection has no files")

// BuildOptions configures Build.
type BuildOptions struct {
	Scan        []gribio.Option
	Rectilinear rectilinear.Options
	Compression compress.Type
}

// DefaultBuildOptions returns the options used by the command line tool
// without configuration.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Rectilinear: rectilinear.DefaultOptions(),
		Compression: compress.Zstd,
	}
}

// BuildReport describes a build.
type BuildReport struct {
	Files    []collection.MFile
	Scan     gribio.RecordStats
	Stats    rectilinear.Stats
	Duration time.Duration
}

// Build scans the files of coll one at a time and writes the index to
// indexPath. Corrupt messages are skipped; I/O errors, unsupported grids or
// time ranges, and context cancellation fail the build without touching an
// existing index.
func Build(ctx context.Context, coll collection.Collection, indexPath string, opts BuildOptions) (*rectilinear.Collection, *BuildReport, error) {
	start := time.Now()
	files, err := coll.Files(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, errors.Wrapf(ErrNoFiles, "collection %s", coll.Name())
	}
	report := &BuildReport{Files: files}

	gdsCache := map[uint64]*grib1.GridDefinition{}
	var records []*gribio.Record
	for i, mf := range files {
		recs, stats, err := scanFile(ctx, mf, i, gdsCache, opts.Scan)
		if err != nil {
			return nil, report, err
		}
		glog.Infof("file %d %s: %d messages, %d records, %d skipped, %d corrupt",
			i, mf.Path, stats.Messages, len(recs), stats.Skipped, stats.Corrupt)
		report.Scan.Messages += stats.Messages
		report.Scan.Skipped += stats.Skipped
		report.Scan.Corrupt += stats.Corrupt
		records = append(records, recs...)
	}

	c, stats, err := rectilinear.Build(coll.Name(), collection.Paths(files), records, opts.Rectilinear)
	report.Stats = stats
	if err != nil {
		return nil, report, errors.Wrapf(err, "collection %s", coll.Name())
	}
	glog.Infof("collection %s: %s", coll.Name(), stats)

	if err := gribindex.Write(indexPath, c, gribindex.WithCompression(opts.Compression)); err != nil {
		return nil, report, err
	}
	report.Duration = time.Since(start)
	return c, report, nil
}

func scanFile(ctx context.Context, mf collection.MFile, fileNo int, gdsCache map[uint64]*grib1.GridDefinition, opts []gribio.Option) ([]*gribio.Record, gribio.RecordStats, error) {
	f, err := os.Open(mf.Path)
	if err != nil {
		return nil, gribio.RecordStats{}, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, gribio.RecordStats{}, err
	}
	recs, stats, err := gribio.ReadRecords(ctx, f, st.Size(), fileNo, gdsCache, opts...)
	if err != nil {
		return nil, stats, errors.Wrapf(err, "scanning %s", mf.Path)
	}
	return recs, stats, nil
}

// NeedsRebuild reports whether the index at indexPath is missing, cannot be
// read by this version, or is older than the files of coll or lists other
// files.
func NeedsRebuild(ctx context.Context, indexPath string, coll collection.Collection) (bool, error) {
	idx, err := gribindex.Open(indexPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		glog.V(1).Infof("index %s does not exist", indexPath)
		return true, nil
	case gribindex.NeedsRebuild(err):
		glog.Infof("index %s must be rebuilt: %v", indexPath, err)
		return true, nil
	case err != nil:
		return false, err
	}
	defer idx.Close()
	return collection.ChangedSince(ctx, coll, idx.Files, idx.ModTime)
}

// Update rebuilds the index when NeedsRebuild reports it stale, and opens
// it.
func Update(ctx context.Context, coll collection.Collection, indexPath string, opts BuildOptions, openOpts ...OpenOption) (*Dataset, error) {
	stale, err := NeedsRebuild(ctx, indexPath, coll)
	if err != nil {
		return nil, err
	}
	if stale {
		if _, _, err := Build(ctx, coll, indexPath, opts); err != nil {
			return nil, err
		}
	}
	return Open(indexPath, openOpts...)
}
