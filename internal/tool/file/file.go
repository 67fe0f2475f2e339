// Package file implements the workspace file tools: reading, writing,
// search/replace editing, listing, content search and definition scans.
package file

import (
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
	"github.com/navvylabs/navvy/internal/workspace"
)

const (
	defaultListLimit   = 1000
	defaultMatchLimit  = 300
	defaultContextRows = 2
)

// Tools bundles the file handlers around a shared workspace boundary.
type Tools struct {
	resolver   *workspace.Resolver
	ignore     *workspace.Ignore
	listLimit  int
	matchLimit int
}

// Option tunes the handlers.
type Option func(*Tools)

// WithListLimit caps list_files output entries.
func WithListLimit(n int) Option {
	return func(t *Tools) { t.listLimit = n }
}

// WithMatchLimit caps search_files matches.
func WithMatchLimit(n int) Option {
	return func(t *Tools) { t.matchLimit = n }
}

// New creates the file tool set.
func New(resolver *workspace.Resolver, ignore *workspace.Ignore, opts ...Option) *Tools {
	if resolver == nil {
		panic("resolver is required")
	}
	if ignore == nil {
		panic("ignore is required")
	}
	t := &Tools{
		resolver:   resolver,
		ignore:     ignore,
		listLimit:  defaultListLimit,
		matchLimit: defaultMatchLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Descriptors returns the registrable tool set.
func (t *Tools) Descriptors() []*tool.Descriptor {
	return []*tool.Descriptor{
		{
			Name:        "read_file",
			Description: "Read the contents of a file at the given workspace-relative path.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path": {Type: tool.TypeString, Description: "Path of the file to read"},
				},
				Required: []string{"path"},
			},
			Risk:     permission.RiskSafe,
			PathArgs: []string{"path"},
			Handler:  tool.HandlerFunc(t.readFile),
		},
		{
			Name:        "write_to_file",
			Description: "Write content to a file, creating it and any missing directories. Overwrites existing content.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":    {Type: tool.TypeString, Description: "Path of the file to write"},
					"content": {Type: tool.TypeString, Description: "Full content to write"},
				},
				Required: []string{"path", "content"},
			},
			Risk:     permission.RiskMutating,
			PathArgs: []string{"path"},
			Writes:   true,
			Handler:  tool.HandlerFunc(t.writeFile),
		},
		{
			Name:        "replace_in_file",
			Description: "Apply SEARCH/REPLACE blocks to a file. Each block replaces the first occurrence of its SEARCH text.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path": {Type: tool.TypeString, Description: "Path of the file to edit"},
					"diff": {Type: tool.TypeString, Description: "One or more SEARCH/REPLACE blocks"},
				},
				Required: []string{"path", "diff"},
			},
			Risk:     permission.RiskMutating,
			PathArgs: []string{"path"},
			Writes:   true,
			Handler:  tool.HandlerFunc(t.replaceInFile),
		},
		{
			Name:        "list_files",
			Description: "List files and directories under a path. Directories end with '/'. Respects .gitignore.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":      {Type: tool.TypeString, Description: "Directory to list"},
					"recursive": {Type: tool.TypeBoolean, Description: "Recurse into subdirectories"},
				},
				Required: []string{"path"},
			},
			Risk:     permission.RiskSafe,
			PathArgs: []string{"path"},
			Handler:  tool.HandlerFunc(t.listFiles),
		},
		{
			Name:        "search_files",
			Description: "Search file contents under a path with a Go regular expression, showing matches with surrounding context.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":         {Type: tool.TypeString, Description: "Directory to search"},
					"regex":        {Type: tool.TypeString, Description: "Pattern to search for"},
					"file_pattern": {Type: tool.TypeString, Description: "Glob filter on file names, e.g. *.go"},
				},
				Required: []string{"path", "regex"},
			},
			Risk:     permission.RiskSafe,
			PathArgs: []string{"path"},
			Handler:  tool.HandlerFunc(t.searchFiles),
		},
		{
			Name:        "list_code_definition_names",
			Description: "List top-level definition names (functions, types, classes) in source files under a path.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path": {Type: tool.TypeString, Description: "Directory to scan"},
				},
				Required: []string{"path"},
			},
			Risk:     permission.RiskSafe,
			PathArgs: []string{"path"},
			Handler:  tool.HandlerFunc(t.listDefinitions),
		},
	}
}
