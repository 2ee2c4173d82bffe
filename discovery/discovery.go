// Package discovery expands CLI inputs into the list of documents to
// validate. Files are taken as given; directories are walked recursively and
// filtered by extension.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Filter narrows which files a directory walk yields. Extensions are
// compared case-insensitively, without the dot. Include and Exclude are
// filepath.Match patterns applied to the file's base name; Exclude wins, and
// an empty Include list admits everything.
type Filter struct {
	Extensions []string
	Include    []string
	Exclude    []string
}

// Expand resolves inputs to document paths filtering walks by extension.
func Expand(inputs, extensions []string) ([]string, error) {
	return ExpandWith(inputs, Filter{Extensions: extensions})
}

// ExpandWith resolves each input to concrete document paths. An explicitly
// named file is always included, whatever the filter says; directory walks
// keep only files the filter admits. Duplicates are dropped, first
// occurrence wins.
func ExpandWith(inputs []string, filter Filter) ([]string, error) {
	exts := make(map[string]bool, len(filter.Extensions))
	for _, e := range filter.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	seen := make(map[string]bool)
	var docs []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			docs = append(docs, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}

		if !info.IsDir() {
			add(input)
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ok, err := admits(path, exts, filter)
			if err != nil {
				return err
			}
			if ok {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", input, err)
		}
	}
	return docs, nil
}

func admits(path string, exts map[string]bool, filter Filter) (bool, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !exts[ext] {
		return false, nil
	}

	base := filepath.Base(path)
	for _, pattern := range filter.Exclude {
		ok, err := filepath.Match(pattern, base)
		if err != nil {
			return false, fmt.Errorf("bad exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return false, nil
		}
	}
	if len(filter.Include) == 0 {
		return true, nil
	}
	for _, pattern := range filter.Include {
		ok, err := filepath.Match(pattern, base)
		if err != nil {
			return false, fmt.Errorf("bad include pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
