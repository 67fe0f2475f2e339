package task

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/navvylabs/navvy/internal/memory"
	"github.com/navvylabs/navvy/internal/workspace"
)

const (
	defaultCensusLimit = 200
	defaultRecallLimit = 10
)

// Environment renders the details block attached to operator messages
// and tool results, so every model turn sees the current time, a census
// of the workspace tree, and memory entries related to the work at hand.
type Environment struct {
	resolver    *workspace.Resolver
	ignore      *workspace.Ignore
	store       *memory.Store
	censusLimit int
	recallLimit int
	now         func() time.Time
}

// EnvironmentOptions tune the block. Zero values select the defaults.
type EnvironmentOptions struct {
	CensusLimit int              // workspace entries listed per block
	RecallLimit int              // memory entities recalled per block
	Now         func() time.Time // test seam
}

// NewEnvironment builds the renderer. The memory store may be nil, in
// which case the block carries no memory section.
func NewEnvironment(resolver *workspace.Resolver, ignore *workspace.Ignore, store *memory.Store, opts EnvironmentOptions) *Environment {
	if resolver == nil {
		panic("resolver is required")
	}
	if ignore == nil {
		panic("ignore is required")
	}
	censusLimit := opts.CensusLimit
	if censusLimit <= 0 {
		censusLimit = defaultCensusLimit
	}
	recallLimit := opts.RecallLimit
	if recallLimit <= 0 {
		recallLimit = defaultRecallLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Environment{
		resolver:    resolver,
		ignore:      ignore,
		store:       store,
		censusLimit: censusLimit,
		recallLimit: recallLimit,
		now:         now,
	}
}

// Render returns the details block for one turn. The query drives memory
// recall and is usually the operator's instruction.
func (e *Environment) Render(query string) string {
	var b strings.Builder
	b.WriteString("<environment_details>\n")
	fmt.Fprintf(&b, "# Current Time\n%s\n\n", e.now().Format(time.RFC1123Z))

	fmt.Fprintf(&b, "# Current Working Directory (%s) Files\n", e.resolver.Root())
	entries, truncated := e.census()
	if len(entries) == 0 {
		b.WriteString("No files found.\n")
	} else {
		b.WriteString(strings.Join(entries, "\n"))
		b.WriteString("\n")
		if truncated {
			fmt.Fprintf(&b, "[listing truncated at %d entries]\n", e.censusLimit)
		}
	}

	if e.store != nil && query != "" {
		if entities := e.store.Recall(query, e.recallLimit); len(entities) > 0 {
			if data, err := yaml.Marshal(entities); err == nil {
				b.WriteString("\n# Memory Entries\n")
				b.Write(data)
			}
		}
	}

	b.WriteString("</environment_details>")
	return b.String()
}

// census walks the workspace under the ignore rules, the same way the
// list_files tool does. Entries are workspace-relative; directories get
// a trailing slash.
func (e *Environment) census() ([]string, bool) {
	root := e.resolver.Root()
	var entries []string
	truncated := false

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if path == root {
			return nil
		}

		rel, relErr := e.resolver.Rel(path)
		if relErr != nil {
			return nil
		}
		if e.ignore.Skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if len(entries) >= e.censusLimit {
			truncated = true
			return filepath.SkipAll
		}
		if d.IsDir() {
			entries = append(entries, rel+"/")
			return nil
		}
		entries = append(entries, rel)
		return nil
	})

	sort.Strings(entries)
	return entries, truncated
}
