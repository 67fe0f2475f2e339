package services

import (
	"fmt"
	"sort"
	"strings"
)

// FormatToolAction generates a short description of a tool call for the
// status line and transcript.
func FormatToolAction(name string, args map[string]any) string {
	switch name {
	case "read_file", "write_to_file", "replace_in_file", "list_files", "list_code_definition_names":
		if path, ok := args["path"].(string); ok {
			return fmt.Sprintf("%s %s", name, path)
		}
	case "search_files":
		if regex, ok := args["regex"].(string); ok {
			return fmt.Sprintf("search_files '%s'", regex)
		}
	case "execute_command":
		if cmd, ok := args["command"].(string); ok {
			return fmt.Sprintf("execute_command '%s'", truncate(cmd, 60))
		}
	case "get_command_result", "terminate_command":
		if id, ok := args["command_id"].(float64); ok {
			return fmt.Sprintf("%s #%d", name, int(id))
		}
	case "web_search":
		if query, ok := args["query"].(string); ok {
			return fmt.Sprintf("web_search '%s'", truncate(query, 60))
		}
	case "web_fetch":
		if url, ok := args["url"].(string); ok {
			return fmt.Sprintf("web_fetch %s", truncate(url, 60))
		}
	case "ask_followup_question":
		return "asking a question"
	case "attempt_completion":
		return "finishing up"
	}
	return name
}

// FormatApprovalDetail renders what a held call would do, for the
// approval popup.
func FormatApprovalDetail(name string, args map[string]any) string {
	switch name {
	case "execute_command":
		if cmd, ok := args["command"].(string); ok {
			return fmt.Sprintf("$ %s", cmd)
		}
	case "write_to_file":
		path, _ := args["path"].(string)
		content, _ := args["content"].(string)
		return fmt.Sprintf("File: %s\n%d bytes, %d lines", path, len(content), countLines(content))
	case "replace_in_file":
		path, _ := args["path"].(string)
		diff, _ := args["diff"].(string)
		return fmt.Sprintf("File: %s\n\n%s", path, truncate(diff, 600))
	case "web_fetch":
		if url, ok := args["url"].(string); ok {
			return fmt.Sprintf("GET %s", url)
		}
	case "terminate_command":
		if id, ok := args["command_id"].(float64); ok {
			return fmt.Sprintf("Kill process #%d", int(id))
		}
	}

	// Generic fallback: one line per argument, stable order.
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, truncate(fmt.Sprintf("%v", args[k]), 120)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
