package pkg_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/photo-sorter/pkg"
)

func TestPlannerDestinationDir(t *testing.T) {
	root := t.TempDir()
	p := pkg.NewPlanner(root, "")

	dated := p.DestinationDir(pkg.ResolvedDate{Time: date(2023, time.June, 1), Source: pkg.SourceEmbedded})
	assert.Equal(t, filepath.Join(root, "2023", "06"), dated.Dir)
	assert.Equal(t, 2023, dated.Year)
	assert.Equal(t, 6, dated.Month)
	assert.False(t, dated.Unsorted)

	undated := p.DestinationDir(pkg.ResolvedDate{})
	assert.Equal(t, filepath.Join(root, pkg.DefaultUnsortedDir), undated.Dir)
	assert.True(t, undated.Unsorted)

	custom := pkg.NewPlanner(root, "Undated").DestinationDir(pkg.ResolvedDate{})
	assert.Equal(t, filepath.Join(root, "Undated"), custom.Dir)
}

func TestPlannerCollisions(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, filepath.Join("2023", "06", "IMG_1.jpg"), []byte("existing"))

	p := pkg.NewPlanner(root, "")
	when := pkg.ResolvedDate{Time: date(2023, time.June, 1), Source: pkg.SourcePath}
	file := mediaFiles("a", "IMG_1.jpg")[0]

	first, err := p.Plan(file, when)
	require.NoError(t, err)
	assert.Equal(t, "IMG_1_1.jpg", first.Name, "existing file on disk is skipped")

	second, err := p.Plan(file, when)
	require.NoError(t, err)
	assert.Equal(t, "IMG_1_2.jpg", second.Name, "names reserved in this run are skipped")
	assert.Equal(t, filepath.Join(root, "2023", "06", "IMG_1_2.jpg"), second.Path)
	assert.Equal(t, filepath.Join("2023", "06", "IMG_1_2.jpg"), second.RelPath(root))

	p.Release(second)
	again, err := p.Plan(file, when)
	require.NoError(t, err)
	assert.Equal(t, "IMG_1_2.jpg", again.Name, "released names are handed out again")

	unsorted, err := p.Plan(mediaFiles("b", "IMG_1.jpg")[0], pkg.ResolvedDate{})
	require.NoError(t, err)
	assert.Equal(t, "IMG_1.jpg", unsorted.Name, "collisions are per directory")
}

func TestPlannerNoExtension(t *testing.T) {
	root := t.TempDir()
	createFile(t, root, filepath.Join(pkg.DefaultUnsortedDir, "README"), []byte("x"))
	p := pkg.NewPlanner(root, "")

	pl, err := p.Plan(pkg.MediaFile{Name: "README"}, pkg.ResolvedDate{})
	require.NoError(t, err)
	assert.Equal(t, "README_1", pl.Name)
}

func TestPlannerConcurrentPlansAreUnique(t *testing.T) {
	p := pkg.NewPlanner(t.TempDir(), "")
	file := mediaFiles("a", "IMG_1.jpg")[0]

	const n = 32
	got := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pl, err := p.Plan(file, pkg.ResolvedDate{})
			if err == nil {
				got[i] = pl.Path
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, path := range got {
		require.NotEmpty(t, path)
		assert.False(t, seen[path], "duplicate %s", path)
		seen[path] = true
	}
}
