package task

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvylabs/navvy/internal/memory"
	"github.com/navvylabs/navvy/internal/workspace"
)

func envRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

func envWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// buildEnv loads ignore rules after the files exist, the same order the
// binary sets things up in.
func buildEnv(t *testing.T, root string, store *memory.Store, opts EnvironmentOptions) *Environment {
	t.Helper()
	ignore, err := workspace.LoadIgnore(root)
	require.NoError(t, err)
	if opts.Now == nil {
		opts.Now = func() time.Time {
			return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
		}
	}
	return NewEnvironment(workspace.NewResolver(root), ignore, store, opts)
}

func TestRenderListsWorkspace(t *testing.T) {
	root := envRoot(t)
	envWrite(t, root, "a.go", "package a\n")
	envWrite(t, root, "docs/guide.md", "# guide\n")
	envWrite(t, root, ".gitignore", "vendor/\n")
	envWrite(t, root, "vendor/lib.go", "package lib\n")

	env := buildEnv(t, root, nil, EnvironmentOptions{})
	out := env.Render("anything")

	assert.True(t, strings.HasPrefix(out, "<environment_details>\n"))
	assert.True(t, strings.HasSuffix(out, "</environment_details>"))
	assert.Contains(t, out, "# Current Time\nSat, 14 Mar 2026 09:30:00 +0000\n")
	assert.Contains(t, out, "# Current Working Directory ("+root+") Files\n")
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "docs/")
	assert.Contains(t, out, "docs/guide.md")
	assert.NotContains(t, out, "vendor")
}

func TestRenderEmptyWorkspace(t *testing.T) {
	env := buildEnv(t, envRoot(t), nil, EnvironmentOptions{})
	assert.Contains(t, env.Render(""), "No files found.")
}

func TestRenderTruncatesCensus(t *testing.T) {
	root := envRoot(t)
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		envWrite(t, root, name, "x")
	}

	env := buildEnv(t, root, nil, EnvironmentOptions{CensusLimit: 2})
	out := env.Render("")

	assert.Contains(t, out, "[listing truncated at 2 entries]")
}

func TestRenderMemoryEntries(t *testing.T) {
	root := envRoot(t)
	envWrite(t, root, "main.go", "package main\n")

	store := memory.InMemory()
	_, err := store.CreateEntities([]memory.Entity{{
		Name:         "navvy",
		Type:         "project",
		Observations: []string{"written in Go"},
	}})
	require.NoError(t, err)

	t.Run("recalled entries are rendered as yaml", func(t *testing.T) {
		env := buildEnv(t, root, store, EnvironmentOptions{})
		out := env.Render("what do you know about navvy")
		assert.Contains(t, out, "# Memory Entries")
		assert.Contains(t, out, "name: navvy")
		assert.Contains(t, out, "written in Go")
	})

	t.Run("empty query skips recall", func(t *testing.T) {
		env := buildEnv(t, root, store, EnvironmentOptions{})
		assert.NotContains(t, env.Render(""), "# Memory Entries")
	})

	t.Run("no store skips recall", func(t *testing.T) {
		env := buildEnv(t, root, nil, EnvironmentOptions{})
		assert.NotContains(t, env.Render("navvy"), "# Memory Entries")
	})
}
