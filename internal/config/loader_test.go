package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Config file doesn't exist - should return all defaults
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files:   map[string][]byte{}, // Empty - no config file
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.Provider.Model)
	assert.Equal(t, "manual_approval", cfg.PermissionMode)
	assert.Equal(t, 30, cfg.Tools.CommandWaitWindowSeconds)
	assert.Equal(t, 50, cfg.Task.MaxSteps)
}

func TestLoad_FullOverride_AllValuesReplaced(t *testing.T) {
	configJSON := `{
		"provider": {"model": "gemini-2.5-pro", "max_retries": 5, "retry_backoff_ms": 500},
		"permission_mode": "full_autonomous",
		"user_instructions": "Prefer table-driven tests.",
		"tools": {"command_wait_window_seconds": 10, "command_timeout_seconds": 120},
		"web_search": {"provider": "searx", "searx_url": "https://searx.local"},
		"task": {"max_steps": 80}
	}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Provider.Model)
	assert.Equal(t, 5, cfg.Provider.MaxRetries)
	assert.Equal(t, "full_autonomous", cfg.PermissionMode)
	assert.Equal(t, "Prefer table-driven tests.", cfg.UserInstructions)
	assert.Equal(t, 10, cfg.Tools.CommandWaitWindowSeconds)
	assert.Equal(t, "searx", cfg.WebSearch.Provider)
	assert.Equal(t, 80, cfg.Task.MaxSteps)
}

func TestLoad_PartialOverride_MergesWithDefaults(t *testing.T) {
	// Config file only overrides max_steps - rest should be defaults
	configJSON := `{"task": {"max_steps": 200}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Task.MaxSteps)                 // Overridden
	assert.Equal(t, 5, cfg.Task.CancelGraceSeconds)         // Default
	assert.Equal(t, "gemini-2.5-flash", cfg.Provider.Model) // Default
	assert.Equal(t, int64(512*1024), cfg.Tools.MaxCommandOutputBytes)
}

func TestLoad_EmptyConfigFile_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(`{}`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Task.MaxSteps)
}

func TestLoad_MCPServers_Parsed(t *testing.T) {
	configJSON := `{"mcp_servers": [
		{"name": "db", "transport": "stdio", "command": "db-server", "args": ["--readonly"]},
		{"name": "docs", "transport": "sse", "url": "https://docs.local/sse"}
	]}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	require.Len(t, cfg.MCP, 2)
	assert.Equal(t, "db", cfg.MCP[0].Name)
	assert.Equal(t, []string{"--readonly"}, cfg.MCP[0].Args)
	assert.Equal(t, "sse", cfg.MCP[1].Transport)
	assert.Equal(t, "https://docs.local/sse", cfg.MCP[1].URL)
}

// --- UNHAPPY PATH TESTS ---

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(`{invalid json`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoad_PermissionDenied_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir:     "/home/user",
		ReadFileErr: os.ErrPermission,
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, os.ErrPermission))
}

func TestLoad_HomeDirError_ReturnsDefaults(t *testing.T) {
	// Can't determine home dir - gracefully fall back to defaults
	fs := &MockFileSystem{
		HomeDirErr: errors.New("homeless"),
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Task.MaxSteps) // Default
}

func TestLoad_InvalidPermissionMode_ReturnsError(t *testing.T) {
	configJSON := `{"permission_mode": "yolo"}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "permission_mode")
}

func TestLoad_ExplicitZero_OverridesAndFailsValidation(t *testing.T) {
	// Present keys overwrite defaults even when zero, so an explicit
	// max_steps of 0 reaches validation and is rejected there.
	configJSON := `{"task": {"max_steps": 0}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "max_steps")
}

func TestLoad_UnknownFields_Ignored(t *testing.T) {
	configJSON := `{"task": {"max_steps": 100}, "unknown_field": "ignored"}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/navvy/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Task.MaxSteps)
}

// --- EXPLICIT PATH TESTS ---

func TestLoadFile_ReadsGivenPath(t *testing.T) {
	fs := &MockFileSystem{
		Files: map[string][]byte{
			"/etc/navvy.json": []byte(`{"task": {"max_steps": 7}}`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.LoadFile("/etc/navvy.json")

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Task.MaxSteps)
}

func TestLoadFile_Missing_ReturnsError(t *testing.T) {
	// An explicitly requested file must exist
	fs := &MockFileSystem{Files: map[string][]byte{}}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.LoadFile("/etc/navvy.json")

	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// --- DEFAULT CONFIG TESTS ---

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Greater(t, cfg.Task.MaxSteps, 0)
	assert.Greater(t, cfg.Tools.MaxCommandOutputBytes, int64(0))
	assert.Empty(t, cfg.WebSearch.Provider) // web search off until configured
}
