package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultUnsortedDir is the holding directory for undatable files.
const DefaultUnsortedDir = "Unsorted"

// Placement is where one file goes.
type Placement struct {
	Unsorted bool
	Year     int
	Month    int
	Dir      string // destination directory
	Name     string // conflict-free file name
	Path     string // Dir joined with Name
}

// RelPath returns the destination relative to root, for display.
func (p Placement) RelPath(root string) string {
	rel, err := filepath.Rel(root, p.Path)
	if err != nil {
		return p.Path
	}
	return rel
}

// Planner computes destinations under an output root. Names handed out are
// reserved for the life of the planner, so a dry run plans exactly the names
// a real run would create. Safe for concurrent use.
type Planner struct {
	root        string
	unsortedDir string

	mu       sync.Mutex
	reserved map[string]bool
}

// NewPlanner returns a planner rooted at outputRoot. An empty unsortedDir
// selects DefaultUnsortedDir.
func NewPlanner(outputRoot, unsortedDir string) *Planner {
	if strings.TrimSpace(unsortedDir) == "" {
		unsortedDir = DefaultUnsortedDir
	}
	return &Planner{
		root:        outputRoot,
		unsortedDir: unsortedDir,
		reserved:    make(map[string]bool),
	}
}

// Root returns the output root.
func (p *Planner) Root() string { return p.root }

// DestinationDir returns {root}/{YYYY}/{MM} for a resolved date and
// {root}/Unsorted otherwise.
func (p *Planner) DestinationDir(date ResolvedDate) Placement {
	if !date.Resolved() {
		return Placement{Unsorted: true, Dir: filepath.Join(p.root, p.unsortedDir)}
	}
	year, month := date.Time.Year(), int(date.Time.Month())
	return Placement{
		Year:  year,
		Month: month,
		Dir:   filepath.Join(p.root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month)),
	}
}

// Plan picks the destination for file. When the plain name is taken, by an
// existing entry or an earlier reservation, "_1", "_2", … is inserted before
// the extension, first free wins.
func (p *Planner) Plan(file MediaFile, date ResolvedDate) (Placement, error) {
	pl := p.DestinationDir(date)

	ext := filepath.Ext(file.Name)
	stem := strings.TrimSuffix(file.Name, ext)

	p.mu.Lock()
	defer p.mu.Unlock()

	for n := 0; ; n++ {
		name := file.Name
		if n > 0 {
			name = stem + "_" + strconv.Itoa(n) + ext
		}
		candidate := filepath.Join(pl.Dir, name)
		if p.reserved[candidate] {
			continue
		}
		taken, err := pathExists(candidate)
		if err != nil {
			return Placement{}, fmt.Errorf("check destination %s: %w", candidate, err)
		}
		if taken {
			continue
		}
		p.reserved[candidate] = true
		pl.Name = name
		pl.Path = candidate
		return pl, nil
	}
}

// Release drops the reservation for a placement whose transfer failed, so
// the name can be handed out again.
func (p *Planner) Release(pl Placement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.reserved, pl.Path)
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
