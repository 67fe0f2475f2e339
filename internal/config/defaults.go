package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider ProviderConfig `json:"provider"`

	// PermissionMode gates tool execution: full_autonomous, manual_approval
	// or deny_all.
	PermissionMode string `json:"permission_mode"`

	// UserInstructions is appended verbatim to the system prompt.
	UserInstructions string `json:"user_instructions"`

	Tools     ToolsConfig       `json:"tools"`
	WebSearch WebSearchConfig   `json:"web_search"`
	Task      TaskConfig        `json:"task"`
	MCP       []MCPServerConfig `json:"mcp_servers"`
}

type ProviderConfig struct {
	// Model is the Gemini model name requests are sent to.
	Model string `json:"model"`

	// MaxRetries is the number of additional attempts after a retryable
	// transport failure.
	MaxRetries int `json:"max_retries"` // Default: 3

	// RetryBackoffMs is the first retry delay, doubled per attempt.
	RetryBackoffMs int `json:"retry_backoff_ms"` // Default: 2000
}

type ToolsConfig struct {
	// Command Execution
	CommandWaitWindowSeconds int   `json:"command_wait_window_seconds"` // Default: 30
	CommandTimeoutSeconds    int   `json:"command_timeout_seconds"`     // Default: 600 (10 minutes)
	MaxCommandOutputBytes    int64 `json:"max_command_output_bytes"`    // Default: 512 * 1024 (512KB)
	ProcessGraceSeconds      int   `json:"process_grace_seconds"`       // Default: 3

	// File Operations
	MaxListEntries   int `json:"max_list_entries"`   // Default: 1000
	MaxSearchMatches int `json:"max_search_matches"` // Default: 300
}

type WebSearchConfig struct {
	// Provider selects the search backend: searx or brave. Empty disables
	// web_search while keeping web_fetch available.
	Provider string `json:"provider"`

	// SearxURL is the base URL of the Searx instance.
	SearxURL string `json:"searx_url"`

	// BraveAPIKey is the Brave Search subscription token.
	BraveAPIKey string `json:"brave_api_key"`
}

type TaskConfig struct {
	// MaxSteps bounds model turns per task.
	MaxSteps int `json:"max_steps"` // Default: 50

	// CancelGraceSeconds is the reap budget for workspace processes when
	// a task is cancelled.
	CancelGraceSeconds int `json:"cancel_grace_seconds"` // Default: 5

	// EnvFileLimit caps the workspace census in environment details.
	EnvFileLimit int `json:"env_file_limit"` // Default: 200

	// EnvMemoryRecall caps memory entities recalled per turn.
	EnvMemoryRecall int `json:"env_memory_recall"` // Default: 10
}

// MCPServerConfig describes one externally hosted tool server merged into
// the registry at session start.
type MCPServerConfig struct {
	Name      string   `json:"name"`
	Transport string   `json:"transport"` // stdio or sse
	Command   string   `json:"command"`   // stdio: executable to spawn
	Args      []string `json:"args"`      // stdio: arguments
	URL       string   `json:"url"`       // sse: server endpoint
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Model:          "gemini-2.5-flash",
			MaxRetries:     3,
			RetryBackoffMs: 2000,
		},
		PermissionMode: "manual_approval",
		Tools: ToolsConfig{
			CommandWaitWindowSeconds: 30,
			CommandTimeoutSeconds:    600,
			MaxCommandOutputBytes:    512 * 1024,
			ProcessGraceSeconds:      3,
			MaxListEntries:           1000,
			MaxSearchMatches:         300,
		},
		Task: TaskConfig{
			MaxSteps:           50,
			CancelGraceSeconds: 5,
			EnvFileLimit:       200,
			EnvMemoryRecall:    10,
		},
	}
}
