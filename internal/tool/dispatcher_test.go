package tool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navvylabs/navvy/internal/conversation"
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/workspace"
)

func testDispatcher(t *testing.T, descs ...*Descriptor) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.RegisterAll(descs...))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(reg, workspace.NewResolver("/ws"), workspace.NewLockSet(), log)
}

func TestDispatchUnknownTool(t *testing.T) {
	d := testDispatcher(t)
	res := d.Dispatch(context.Background(), conversation.ToolCall{ID: "c1", Name: "nope"}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "unknown tool")
	assert.Equal(t, "c1", res.CallID)
}

func TestDispatchSchemaRejectionSkipsHandler(t *testing.T) {
	ran := false
	d := testDispatcher(t, &Descriptor{
		Name: "read_file",
		Parameters: &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{"path": {Type: TypeString}},
			Required:   []string{"path"},
		},
		Risk: permission.RiskSafe,
		Handler: HandlerFunc(func(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
			ran = true
			return Text("ok"), nil
		}),
	})

	res := d.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c1", Name: "read_file", Args: map[string]any{},
	}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "missing required field")
	assert.False(t, ran, "handler must not run on validation failure")
}

func TestDispatchSandboxViolationSkipsHandler(t *testing.T) {
	ran := false
	d := testDispatcher(t, &Descriptor{
		Name: "read_file",
		Parameters: &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{"path": {Type: TypeString}},
			Required:   []string{"path"},
		},
		Risk:     permission.RiskSafe,
		PathArgs: []string{"path"},
		Handler: HandlerFunc(func(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
			ran = true
			return Text("ok"), nil
		}),
	})

	res := d.Dispatch(context.Background(), conversation.ToolCall{
		ID: "c1", Name: "read_file", Args: map[string]any{"path": "../../etc/passwd"},
	}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "sandbox violation")
	assert.False(t, ran)
}

func TestDispatchExecutionErrorBecomesErrorResult(t *testing.T) {
	d := testDispatcher(t, &Descriptor{
		Name: "flaky",
		Handler: HandlerFunc(func(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
			return Result{}, errors.New("disk on fire")
		}),
	})

	res := d.Dispatch(context.Background(), conversation.ToolCall{ID: "c1", Name: "flaky"}, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "flaky failed")
	assert.Contains(t, res.Text(), "disk on fire")
}

func TestDispatchCancelledContext(t *testing.T) {
	d := testDispatcher(t, &Descriptor{
		Name: "slow",
		Handler: HandlerFunc(func(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
			<-ctx.Done()
			return Result{}, ctx.Err()
		}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res := d.Dispatch(ctx, conversation.ToolCall{ID: "c1", Name: "slow"}, nil)
	assert.True(t, res.IsError)
	assert.Equal(t, "cancelled before completion", res.Text())
}

func TestDispatchWritersSerialize(t *testing.T) {
	var mu sync.Mutex
	var active, maxActive int

	handler := HandlerFunc(func(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return Text("ok"), nil
	})

	d := testDispatcher(t, &Descriptor{
		Name: "write_to_file",
		Parameters: &Schema{
			Type:       TypeObject,
			Properties: map[string]*Schema{"path": {Type: TypeString}},
			Required:   []string{"path"},
		},
		Risk:     permission.RiskMutating,
		PathArgs: []string{"path"},
		Writes:   true,
		Handler:  handler,
	})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), conversation.ToolCall{
				ID: "c", Name: "write_to_file", Args: map[string]any{"path": "same.txt"},
			}, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "writers to one path must not interleave")
}

func TestProgressSinkReachesHandler(t *testing.T) {
	d := testDispatcher(t, &Descriptor{
		Name: "streamy",
		Handler: HandlerFunc(func(ctx context.Context, inv Invocation, args map[string]any) (Result, error) {
			inv.Progress("halfway")
			return Text("done"), nil
		}),
	})

	var got []string
	sink := func(callID, text string) { got = append(got, callID+":"+text) }
	res := d.Dispatch(context.Background(), conversation.ToolCall{ID: "c9", Name: "streamy"}, sink)
	require.False(t, res.IsError)
	assert.Equal(t, []string{"c9:halfway"}, got)
}
