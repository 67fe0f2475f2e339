package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatToolAction_ReadFile(t *testing.T) {
	result := FormatToolAction("read_file", map[string]any{"path": "internal/main.go"})
	assert.Equal(t, "read_file internal/main.go", result)
}

func TestFormatToolAction_WriteToFile(t *testing.T) {
	result := FormatToolAction("write_to_file", map[string]any{"path": "README.md", "content": "..."})
	assert.Equal(t, "write_to_file README.md", result)
}

func TestFormatToolAction_SearchFiles(t *testing.T) {
	result := FormatToolAction("search_files", map[string]any{"path": ".", "regex": "TODO"})
	assert.Equal(t, "search_files 'TODO'", result)
}

func TestFormatToolAction_ExecuteCommand(t *testing.T) {
	result := FormatToolAction("execute_command", map[string]any{"command": "docker ps -a"})
	assert.Equal(t, "execute_command 'docker ps -a'", result)
}

func TestFormatToolAction_ExecuteCommand_Truncated(t *testing.T) {
	long := strings.Repeat("x", 80)
	result := FormatToolAction("execute_command", map[string]any{"command": long})
	assert.Equal(t, "execute_command '"+strings.Repeat("x", 60)+"…'", result)
}

func TestFormatToolAction_GetCommandResult(t *testing.T) {
	// JSON numbers decode as float64.
	result := FormatToolAction("get_command_result", map[string]any{"command_id": float64(3)})
	assert.Equal(t, "get_command_result #3", result)
}

func TestFormatToolAction_Question(t *testing.T) {
	result := FormatToolAction("ask_followup_question", map[string]any{"question": "Which one?"})
	assert.Equal(t, "asking a question", result)
}

func TestFormatToolAction_Completion(t *testing.T) {
	result := FormatToolAction("attempt_completion", map[string]any{"result": "All done."})
	assert.Equal(t, "finishing up", result)
}

func TestFormatToolAction_UnknownTool(t *testing.T) {
	result := FormatToolAction("mystery_tool", map[string]any{})
	assert.Equal(t, "mystery_tool", result)
}

func TestFormatToolAction_MissingArgs(t *testing.T) {
	result := FormatToolAction("read_file", map[string]any{})
	assert.Equal(t, "read_file", result)
}

func TestFormatToolAction_WrongArgType(t *testing.T) {
	result := FormatToolAction("read_file", map[string]any{"path": 12345})
	assert.Equal(t, "read_file", result)
}

func TestFormatApprovalDetail_ExecuteCommand(t *testing.T) {
	result := FormatApprovalDetail("execute_command", map[string]any{"command": "rm -rf build"})
	assert.Equal(t, "$ rm -rf build", result)
}

func TestFormatApprovalDetail_WriteToFile(t *testing.T) {
	result := FormatApprovalDetail("write_to_file", map[string]any{
		"path":    "main.go",
		"content": "a\nb\nc",
	})
	assert.Equal(t, "File: main.go\n5 bytes, 3 lines", result)
}

func TestFormatApprovalDetail_ReplaceInFile(t *testing.T) {
	result := FormatApprovalDetail("replace_in_file", map[string]any{
		"path": "main.go",
		"diff": "<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE",
	})
	assert.Contains(t, result, "File: main.go")
	assert.Contains(t, result, "SEARCH")
}

func TestFormatApprovalDetail_WebFetch(t *testing.T) {
	result := FormatApprovalDetail("web_fetch", map[string]any{"url": "https://example.com/docs"})
	assert.Equal(t, "GET https://example.com/docs", result)
}

func TestFormatApprovalDetail_TerminateCommand(t *testing.T) {
	result := FormatApprovalDetail("terminate_command", map[string]any{"command_id": float64(2)})
	assert.Equal(t, "Kill process #2", result)
}

func TestFormatApprovalDetail_Fallback_SortedKeys(t *testing.T) {
	result := FormatApprovalDetail("web_search", map[string]any{
		"query": "golang context",
		"count": float64(5),
	})
	assert.Equal(t, "count: 5\nquery: golang context", result)
}
