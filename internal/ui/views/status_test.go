package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderStatus_Thinking(t *testing.T) {
	state := State{
		TaskState: "running",
		Thinking:  true,
		DotCount:  2,
		Spinner:   createTestSpinner(),
	}

	result := RenderStatus(state)

	assert.Contains(t, result, "Generating..") // 2 dots
}

func TestRenderStatus_Executing(t *testing.T) {
	state := State{
		TaskState:     "running",
		StatusMessage: "read_file main.go",
		Spinner:       createTestSpinner(),
	}

	result := RenderStatus(state)

	assert.Contains(t, result, "read_file main.go")
	assert.NotEmpty(t, result)
}

func TestRenderStatus_Executing_NoMessage(t *testing.T) {
	state := State{
		TaskState: "running",
		Spinner:   createTestSpinner(),
	}

	result := RenderStatus(state)

	assert.Contains(t, result, "Working")
}

func TestRenderStatus_WaitingApproval(t *testing.T) {
	state := State{TaskState: "waiting_approval"}

	result := RenderStatus(state)

	assert.Contains(t, result, "Waiting for approval")
}

func TestRenderStatus_Paused(t *testing.T) {
	state := State{TaskState: "paused"}

	result := RenderStatus(state)

	assert.Contains(t, result, "Paused")
	assert.Contains(t, result, "/resume")
}

func TestRenderStatus_Completed(t *testing.T) {
	state := State{TaskState: "completed"}

	result := RenderStatus(state)

	assert.Contains(t, result, "✔")
	assert.Contains(t, result, "Task completed")
}

func TestRenderStatus_Failed(t *testing.T) {
	state := State{TaskState: "failed"}

	result := RenderStatus(state)

	assert.Contains(t, result, "✘")
	assert.Contains(t, result, "Task failed")
}

func TestRenderStatus_DefaultReady(t *testing.T) {
	state := State{}

	result := RenderStatus(state)

	assert.Contains(t, result, "Ready")
}

func TestRenderStatus_SessionFacts(t *testing.T) {
	state := State{
		Width:     120,
		ModelName: "gemini-2.5-flash",
		Mode:      "manual_approval",
		Usage:     Usage{Total: 1234},
	}

	result := RenderStatus(state)

	assert.Contains(t, result, "Ready")
	assert.Contains(t, result, "gemini-2.5-flash")
	assert.Contains(t, result, "manual_approval")
	assert.Contains(t, result, "1234 tok")
}

func TestRenderStatus_NoUsage_OmitsTokens(t *testing.T) {
	state := State{Width: 120, ModelName: "gemini-2.5-flash"}

	result := RenderStatus(state)

	assert.NotContains(t, result, "tok")
}
