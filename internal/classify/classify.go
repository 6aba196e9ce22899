// Package classify assigns update categories to memory bank files.
//
// Every file in a bank falls into one of three categories that drive the
// update policy: user-data files are never overwritten, system files are
// always overwritten, and stack guidance files are overwritten only after
// checking for local modifications. Paths matching no rule are treated as
// user-added and left untouched.
package classify

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"membank/internal/errors"
)

// Category is the update policy tag for a bank file.
type Category int

const (
	// NeverUpdate files hold user-authored content and are never overwritten.
	NeverUpdate Category = iota

	// AlwaysUpdate files are system files, overwritten on every update
	// regardless of local edits.
	AlwaysUpdate

	// SmartUpdate files are overwritten only when unmodified since the last
	// update; modified copies trigger a diff-and-confirm interaction.
	SmartUpdate
)

// String returns the category name used in CLI output.
func (c Category) String() string {
	switch c {
	case AlwaysUpdate:
		return "system"
	case SmartUpdate:
		return "smart"
	default:
		return "user"
	}
}

// Rules is a static classification table evaluated in order:
// never-update exact names first, then always-update names and globs,
// then smart-update globs. Unmatched paths are NeverUpdate.
type Rules struct {
	NeverNames  []string
	AlwaysNames []string
	AlwaysGlobs []string
	SmartGlobs  []string
}

// DefaultRules is the rule table for the standard memory bank layout.
var DefaultRules = Rules{
	NeverNames: []string{
		"projectbrief.md",
		"productContext.md",
		"activeContext.md",
		"systemPatterns.md",
		"techContext.md",
		"progress.md",
		"membank.toml", // version marker, managed by the update engine
	},
	AlwaysNames: []string{
		"CLAUDE.md",
	},
	AlwaysGlobs: []string{
		"rules/**",
		"templates/**",
	},
	SmartGlobs: []string{
		"stacks/**",
	},
}

// Classify returns the category for a path relative to the bank root.
// Paths are normalized to forward slashes before matching.
func (r Rules) Classify(path string) Category {
	p := filepath.ToSlash(strings.TrimPrefix(path, "./"))

	for _, name := range r.NeverNames {
		if p == name {
			return NeverUpdate
		}
	}

	for _, name := range r.AlwaysNames {
		if p == name {
			return AlwaysUpdate
		}
	}
	for _, glob := range r.AlwaysGlobs {
		if ok, _ := doublestar.Match(glob, p); ok {
			return AlwaysUpdate
		}
	}

	for _, glob := range r.SmartGlobs {
		if ok, _ := doublestar.Match(glob, p); ok {
			return SmartUpdate
		}
	}

	return NeverUpdate
}

// Classify applies DefaultRules to a path.
func Classify(path string) Category {
	return DefaultRules.Classify(path)
}

// File is a classified bank file.
type File struct {
	// RelPath is the slash-separated path relative to the bank root.
	RelPath string

	// Category is the file's update policy.
	Category Category
}

// Walk classifies every regular file under bankDir.
// Hidden directories (".git" and friends) are skipped. The returned slice
// is ordered by the walk, which is lexical within each directory.
func Walk(bankDir string, rules Rules) ([]File, error) {
	var files []File

	err := filepath.WalkDir(bankDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != bankDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(bankDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		files = append(files, File{
			RelPath:  rel,
			Category: rules.Classify(rel),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", bankDir)
	}

	return files, nil
}

// Select returns the subset of files matching any of the given categories.
func Select(files []File, categories ...Category) []File {
	var out []File
	for _, f := range files {
		for _, c := range categories {
			if f.Category == c {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
