// Package icons lists species illustrations and matches them to scientific names.
package icons

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var imageExts = map[string]bool{
	".svg":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// Dir is a directory of icon images
type Dir struct {
	Path string
}

// List returns the image file names in the directory, sorted. A missing directory
// lists as empty.
func (d Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

var slugSep = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s and joins its alphanumeric runs with dashes
func Slug(s string) string {
	return strings.Trim(slugSep.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// score ranks how well an icon base name fits a species slug
func score(n, base string) int {
	switch {
	case base == "":
		return 0
	case base == n:
		return 10000 + len(base)
	case strings.HasPrefix(base, n+"-"):
		return 9000 + len(n)
	case strings.HasPrefix(n, base+"-"):
		return 8000 + len(base)
	case strings.Contains(n, base):
		return 5000 + len(base)
	case strings.Contains(base, n):
		return 4000 + len(n)
	}

	bt := make(map[string]bool)
	for _, t := range strings.Split(base, "-") {
		bt[t] = true
	}
	var overlap []string
	for _, t := range strings.Split(n, "-") {
		if bt[t] {
			overlap = append(overlap, t)
		}
	}
	return len(strings.Join(overlap, "-"))
}

// BestMatch picks the icon file that best fits a species name: exact slug, then genus
// and variant prefixes, then substrings, then shared tokens. Equal scores prefer the
// shorter name. When nothing scores, the closest name by edit distance is used if it
// is close enough. Returns "" when no icon fits.
func BestMatch(name string, files []string) string {
	n := Slug(name)
	if n == "" {
		return ""
	}

	best, bestScore, bestLen := "", 0, 0
	for _, f := range files {
		base := Slug(strings.TrimSuffix(f, filepath.Ext(f)))
		s := score(n, base)
		if best == "" || s > bestScore || (s == bestScore && len(base) < bestLen) {
			best, bestScore, bestLen = f, s, len(base)
		}
	}
	if bestScore > 0 {
		return best
	}
	return closest(n, files)
}

func closest(n string, files []string) string {
	maxDist := len(n) / 4
	if maxDist < 2 {
		maxDist = 2
	}

	best, bestDist, bestLen := "", maxDist+1, 0
	for _, f := range files {
		base := Slug(strings.TrimSuffix(f, filepath.Ext(f)))
		if base == "" {
			continue
		}
		d := levenshtein.ComputeDistance(n, base)
		if d < bestDist || (d == bestDist && best != "" && len(base) < bestLen) {
			best, bestDist, bestLen = f, d, len(base)
		}
	}
	return best
}
