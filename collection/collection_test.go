package collection

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("GRIB"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestDirFiles(t *testing.T) {
	root := t.TempDir()
	mod := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(root, "b.grb"), mod)
	touch(t, filepath.Join(root, "a.grb"), mod)
	touch(t, filepath.Join(root, "notes.txt"), mod)
	touch(t, filepath.Join(root, "sub", "c.grb"), mod)

	d := &Dir{Root: root, Pattern: "*.grb"}
	files, err := d.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.grb"), filepath.Join(root, "b.grb")}, Paths(files))
	assert.Equal(t, int64(4), files[0].Size)
	assert.True(t, files[0].ModTime.Equal(mod))
	assert.Equal(t, filepath.Base(root), d.Name())

	d.Recursive = true
	files, err = d.Files(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 3)

	touch(t, filepath.Join(root, "x"+IndexSuffix), mod)
	touch(t, filepath.Join(root, "x"+IndexSuffix+".tmp123"), mod)
	files, err = (&Dir{Root: root}).Files(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = (&Dir{Root: root, Pattern: "["}).Files(context.Background())
	assert.Error(t, err)
	_, err = (&Dir{Root: filepath.Join(root, "missing")}).Files(context.Background())
	assert.Error(t, err)
}

func TestChangedSince(t *testing.T) {
	root := t.TempDir()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b := filepath.Join(root, "a.grb"), filepath.Join(root, "b.grb")
	touch(t, a, old)
	touch(t, b, old)
	ctx := context.Background()
	l := &List{CollectionName: "x", Paths: []string{b, a}}
	indexed := old.Add(time.Hour)

	changed, err := ChangedSince(ctx, l, []string{a, b}, indexed)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = ChangedSince(ctx, l, []string{a}, indexed)
	require.NoError(t, err)
	assert.True(t, changed)

	touch(t, b, indexed.Add(time.Minute))
	changed, err = ChangedSince(ctx, l, []string{a, b}, indexed)
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = ChangedSince(ctx, &List{Paths: []string{filepath.Join(root, "gone")}}, nil, indexed)
	assert.Error(t, err)
}
