package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Catalog errors
var (
	ErrNotFound    = errors.New("workbook file not found")
	ErrInvalidName = errors.New("invalid workbook file name")
)

// workbookExts are the extensions excelize can open.
var workbookExts = []string{".xlsx", ".xlsm"}

// FileInfo represents information about a discovered workbook
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Catalog lists the workbooks stored directly in one directory.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog of dir
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// List returns the workbooks in the directory, newest first. A missing
// directory is an empty catalog. Office lock files (~$name.xlsx) are skipped.
func (c *Catalog) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", c.dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsWorkbookName(name) || strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(c.dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Latest returns the most recently modified workbook
func (c *Catalog) Latest() (FileInfo, bool, error) {
	files, err := c.List()
	if err != nil || len(files) == 0 {
		return FileInfo{}, false, err
	}
	return files[0], true, nil
}

// Resolve maps a bare file name to its path in the catalog. Names with a
// directory component are rejected.
func (c *Catalog) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !IsWorkbookName(name) {
		return "", fmt.Errorf("%w: %q is not a workbook", ErrInvalidName, name)
	}

	path := filepath.Join(c.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return path, nil
}

// IsWorkbookName reports whether name has a workbook extension
func IsWorkbookName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range workbookExts {
		if ext == e {
			return true
		}
	}
	return false
}
