// Package pathresolve picks the first existing input file from an ordered list of candidates.
package pathresolve

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is one location to try. Exact candidates name a single file; glob
// candidates expand a pattern and pick the most recently modified match.
type Candidate struct {
	Path    string
	Glob    bool
	Exclude []string // base names never selected by a glob
}

// Exact returns a candidate for a single path
func Exact(path string) Candidate {
	return Candidate{Path: path}
}

// Newest returns a candidate selecting the most recently modified file matching pattern
func Newest(pattern string, exclude ...string) Candidate {
	return Candidate{Path: pattern, Glob: true, Exclude: exclude}
}

func (c Candidate) String() string {
	return c.Path
}

// Resolver tries candidates in order; the first one that yields a file wins
type Resolver struct {
	candidates []Candidate
}

// New creates a resolver over candidates
func New(candidates ...Candidate) *Resolver {
	return &Resolver{candidates: candidates}
}

// Then appends a fallback candidate
func (r *Resolver) Then(c Candidate) *Resolver {
	r.candidates = append(r.candidates, c)
	return r
}

// Resolve returns the chosen path and true, or "" and false when nothing exists
func (r *Resolver) Resolve() (string, bool) {
	for _, c := range r.candidates {
		if c.Path == "" {
			continue
		}
		if c.Glob {
			if p, ok := newestMatch(c.Path, c.Exclude); ok {
				return p, true
			}
			continue
		}
		if isFile(c.Path) {
			return c.Path, true
		}
	}
	return "", false
}

// Tried lists every candidate location, for error messages
func (r *Resolver) Tried() []string {
	out := make([]string, 0, len(r.candidates))
	for _, c := range r.candidates {
		if c.Path != "" {
			out = append(out, c.Path)
		}
	}
	return out
}

type match struct {
	path  string
	mtime int64
}

func newestMatch(pattern string, exclude []string) (string, bool) {
	paths, err := filepath.Glob(pattern)
	if err != nil || len(paths) == 0 {
		return "", false
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[strings.ToLower(name)] = struct{}{}
	}

	matches := make([]match, 0, len(paths))
	for _, p := range paths {
		if _, excluded := skip[strings.ToLower(filepath.Base(p))]; excluded {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		matches = append(matches, match{path: p, mtime: info.ModTime().UnixNano()})
	}
	if len(matches) == 0 {
		return "", false
	}

	// Ties on mtime fall back to name order so the choice is deterministic.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].mtime == matches[j].mtime {
			return matches[i].path < matches[j].path
		}
		return matches[i].mtime < matches[j].mtime
	})
	return matches[len(matches)-1].path, true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
