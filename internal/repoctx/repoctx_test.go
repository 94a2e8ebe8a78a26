package repoctx_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/picatz/codegen/internal/repoctx"
	"github.com/shoenig/test/must"
)

// initTestRepo creates a git repository with the given files committed.
func initTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	must.NoError(t, err)

	wt, err := repo.Worktree()
	must.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		must.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		must.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err = wt.Add(name)
		must.NoError(t, err)
	}

	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	must.NoError(t, err)

	return dir
}

func TestBuild(t *testing.T) {
	dir := initTestRepo(t, map[string]string{
		"main.go":       "package main\n\nfunc main() {}\n",
		"pkg/helper.go": "package pkg\n",
		"image.png":     "not source",
	})

	out, err := repoctx.Build(dir, nil)
	must.NoError(t, err)

	must.StrContains(t, out, "- main.go")
	must.StrContains(t, out, "- pkg/helper.go")
	must.StrContains(t, out, "package main")
	must.StrNotContains(t, out, "image.png")
	must.StrNotContains(t, out, "not source")
}

func TestBuild_byteCap(t *testing.T) {
	big := strings.Repeat("// padding\n", 100)

	dir := initTestRepo(t, map[string]string{
		"a.go": big,
		"b.go": big,
	})

	out, err := repoctx.Build(dir, &repoctx.Options{MaxBytes: len(big) + 1})
	must.NoError(t, err)

	// Both files listed, but only one fits under the cap.
	must.StrContains(t, out, "- a.go")
	must.StrContains(t, out, "- b.go")
	must.StrContains(t, out, "--- a.go ---")
	must.StrNotContains(t, out, "--- b.go ---")
	must.StrContains(t, out, "omitted")
}

func TestBuild_extensionFilter(t *testing.T) {
	dir := initTestRepo(t, map[string]string{
		"main.go":   "package main\n",
		"script.py": "print('hi')\n",
	})

	out, err := repoctx.Build(dir, &repoctx.Options{Extensions: []string{".py"}})
	must.NoError(t, err)

	must.StrContains(t, out, "script.py")
	must.StrNotContains(t, out, "main.go")
}

func TestBuild_notARepository(t *testing.T) {
	_, err := repoctx.Build(t.TempDir(), nil)
	must.Error(t, err)
}

func TestBuild_subdirectoryDetection(t *testing.T) {
	dir := initTestRepo(t, map[string]string{
		"pkg/helper.go": "package pkg\n",
	})

	out, err := repoctx.Build(filepath.Join(dir, "pkg"), nil)
	must.NoError(t, err)
	must.StrContains(t, out, "pkg/helper.go")
}
