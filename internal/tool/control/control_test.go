package control

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
)

func TestDescriptors(t *testing.T) {
	byName := make(map[string]*tool.Descriptor)
	for _, d := range Descriptors() {
		byName[d.Name] = d
	}

	ask, ok := byName[AskFollowupQuestion]
	require.True(t, ok)
	assert.Equal(t, permission.RiskSafe, ask.Risk)
	assert.Error(t, ask.Parameters.Validate(map[string]any{}))
	assert.NoError(t, ask.Parameters.Validate(map[string]any{
		"question": "which branch?",
		"options":  []any{"main", "develop"},
	}))

	done, ok := byName[AttemptCompletion]
	require.True(t, ok)
	assert.Equal(t, permission.RiskSafe, done.Risk)
	assert.Error(t, done.Parameters.Validate(map[string]any{"command": "make demo"}))
	assert.NoError(t, done.Parameters.Validate(map[string]any{"result": "done"}))
}

func TestHandlersResolveEmpty(t *testing.T) {
	for _, d := range Descriptors() {
		res, err := d.Handler.Execute(context.Background(), tool.NewInvocation("c", nil), map[string]any{})
		require.NoError(t, err, d.Name)
		assert.False(t, res.IsError, d.Name)
		require.Len(t, res.Blocks, 1, d.Name)
		assert.Empty(t, res.Blocks[0].Text, d.Name)
	}
}

func TestArgDecoding(t *testing.T) {
	var q QuestionArgs
	require.NoError(t, tool.DecodeArgs(map[string]any{
		"question": "deploy where?",
		"options":  []any{"staging", "production"},
	}, &q))
	assert.Equal(t, "deploy where?", q.Question)
	assert.Equal(t, []string{"staging", "production"}, q.Options)

	var c CompletionArgs
	require.NoError(t, tool.DecodeArgs(map[string]any{"result": "all tests pass"}, &c))
	assert.Equal(t, "all tests pass", c.Result)
	assert.Empty(t, c.Command)
}
