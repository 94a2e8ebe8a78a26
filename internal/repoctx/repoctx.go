// Package repoctx builds a prompt context block from the tracked source
// files of a git repository, so generation requests can reference the
// surrounding project.
package repoctx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultMaxBytes caps how much file content is included in a context block.
// Prompts share the model's context window with the generated completion, so
// the cap stays well below typical context sizes.
const DefaultMaxBytes = 32 * 1024

// sourceExtensions are the file extensions included in a context block.
var sourceExtensions = map[string]bool{
	".go":    true,
	".py":    true,
	".js":    true,
	".ts":    true,
	".rb":    true,
	".rs":    true,
	".java":  true,
	".c":     true,
	".h":     true,
	".cpp":   true,
	".hpp":   true,
	".sh":    true,
	".sql":   true,
	".proto": true,
	".md":    true,
	".yaml":  true,
	".yml":   true,
	".json":  true,
	".toml":  true,
}

// Options configure how a context block is built.
type Options struct {
	// MaxBytes caps the total file content included. Zero means
	// DefaultMaxBytes.
	MaxBytes int

	// Extensions overrides the default source file extension filter.
	// Extensions include the leading dot.
	Extensions []string
}

// Build opens the git repository containing dir and returns a context block
// from the files tracked at HEAD: a file listing followed by file contents,
// truncated once the byte cap is reached.
func Build(dir string, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	included := sourceExtensions
	if len(opts.Extensions) > 0 {
		included = make(map[string]bool, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			included[ext] = true
		}
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open git repository at %q: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD tree: %w", err)
	}

	var (
		listing   strings.Builder
		contents  strings.Builder
		used      int
		truncated bool
	)

	err = tree.Files().ForEach(func(f *object.File) error {
		if !included[filepath.Ext(f.Name)] {
			return nil
		}

		listing.WriteString("- " + f.Name + "\n")

		if truncated {
			return nil
		}

		body, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to read file %q: %w", f.Name, err)
		}

		if used+len(body) > maxBytes {
			truncated = true
			return nil
		}
		used += len(body)

		contents.WriteString(fmt.Sprintf("\n--- %s ---\n%s", f.Name, body))

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk repository tree: %w", err)
	}

	if listing.Len() == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Project context from the current repository.\n\nFiles:\n")
	b.WriteString(listing.String())
	b.WriteString(contents.String())

	if truncated {
		b.WriteString("\n(remaining file contents omitted to stay within the context size limit)\n")
	}

	return b.String(), nil
}
