package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	// Provider validation
	if c.Provider.Model == "" {
		errs = append(errs, "provider.model must not be empty")
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, "provider.max_retries must be >= 0")
	}
	if c.Provider.RetryBackoffMs < 1 {
		errs = append(errs, "provider.retry_backoff_ms must be >= 1")
	}

	// Permission validation
	switch c.PermissionMode {
	case "full_autonomous", "manual_approval", "deny_all":
	default:
		errs = append(errs, "permission_mode must be one of full_autonomous, manual_approval, deny_all")
	}

	// Tools validation - Command Execution
	if c.Tools.CommandWaitWindowSeconds < 1 {
		errs = append(errs, "tools.command_wait_window_seconds must be >= 1")
	}
	if c.Tools.CommandTimeoutSeconds < 1 {
		errs = append(errs, "tools.command_timeout_seconds must be >= 1")
	}
	if c.Tools.MaxCommandOutputBytes < 1 {
		errs = append(errs, "tools.max_command_output_bytes must be >= 1")
	}
	if c.Tools.ProcessGraceSeconds < 1 {
		errs = append(errs, "tools.process_grace_seconds must be >= 1")
	}

	// Tools validation - File Operations
	if c.Tools.MaxListEntries < 1 {
		errs = append(errs, "tools.max_list_entries must be >= 1")
	}
	if c.Tools.MaxSearchMatches < 1 {
		errs = append(errs, "tools.max_search_matches must be >= 1")
	}

	// Semantic validation: the wait window is bounded by the command timeout
	if c.Tools.CommandWaitWindowSeconds > c.Tools.CommandTimeoutSeconds {
		errs = append(errs, "tools.command_wait_window_seconds must be <= tools.command_timeout_seconds")
	}

	// Web search validation
	switch c.WebSearch.Provider {
	case "":
		// web_search disabled, nothing to check
	case "searx":
		if c.WebSearch.SearxURL == "" {
			errs = append(errs, "web_search.searx_url must not be empty when provider is searx")
		}
	case "brave":
		if c.WebSearch.BraveAPIKey == "" {
			errs = append(errs, "web_search.brave_api_key must not be empty when provider is brave")
		}
	default:
		errs = append(errs, "web_search.provider must be one of searx, brave")
	}

	// Task validation
	if c.Task.MaxSteps < 1 {
		errs = append(errs, "task.max_steps must be >= 1")
	}
	if c.Task.CancelGraceSeconds < 1 {
		errs = append(errs, "task.cancel_grace_seconds must be >= 1")
	}
	if c.Task.EnvFileLimit < 1 {
		errs = append(errs, "task.env_file_limit must be >= 1")
	}
	if c.Task.EnvMemoryRecall < 0 {
		errs = append(errs, "task.env_memory_recall must be >= 0")
	}

	// MCP server validation
	seen := make(map[string]bool)
	for i, srv := range c.MCP {
		if srv.Name == "" {
			errs = append(errs, fmt.Sprintf("mcp_servers[%d].name must not be empty", i))
		} else if seen[srv.Name] {
			errs = append(errs, fmt.Sprintf("mcp_servers[%d].name %q is duplicated", i, srv.Name))
		}
		seen[srv.Name] = true

		switch srv.Transport {
		case "stdio":
			if srv.Command == "" {
				errs = append(errs, fmt.Sprintf("mcp_servers[%d].command must not be empty for stdio transport", i))
			}
		case "sse":
			if srv.URL == "" {
				errs = append(errs, fmt.Sprintf("mcp_servers[%d].url must not be empty for sse transport", i))
			}
		default:
			errs = append(errs, fmt.Sprintf("mcp_servers[%d].transport must be one of stdio, sse", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
