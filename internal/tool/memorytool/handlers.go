package memorytool

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/navvylabs/navvy/internal/memory"
	"github.com/navvylabs/navvy/internal/tool"
)

func (t *Tools) createEntities(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Entities []memory.Entity `json:"entities"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	added, err := t.store.CreateEntities(req.Entities)
	if err != nil {
		return tool.Result{}, err
	}
	return prettyJSON(added)
}

func (t *Tools) createRelations(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Relations []memory.Relation `json:"relations"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	added, err := t.store.CreateRelations(req.Relations)
	if err != nil {
		return tool.Result{}, err
	}
	return prettyJSON(added)
}

func (t *Tools) addObservations(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Observations []memory.ObservationSet `json:"observations"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	results, err := t.store.AddObservations(req.Observations)
	if err != nil {
		if errors.Is(err, memory.ErrEntityNotFound) {
			return tool.ErrorText(err.Error()), nil
		}
		return tool.Result{}, err
	}
	return prettyJSON(results)
}

func (t *Tools) deleteEntities(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		EntityNames []string `json:"entityNames"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	if err := t.store.DeleteEntities(req.EntityNames); err != nil {
		return tool.Result{}, err
	}
	return tool.Text("Entities deleted successfully"), nil
}

func (t *Tools) deleteObservations(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Deletions []memory.ObservationSet `json:"deletions"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	if err := t.store.DeleteObservations(req.Deletions); err != nil {
		return tool.Result{}, err
	}
	return tool.Text("Observations deleted successfully"), nil
}

func (t *Tools) deleteRelations(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Relations []memory.Relation `json:"relations"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	if err := t.store.DeleteRelations(req.Relations); err != nil {
		return tool.Result{}, err
	}
	return tool.Text("Relations deleted successfully"), nil
}

func (t *Tools) readGraph(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	return compactJSON(t.store.Graph())
}

func (t *Tools) searchNodes(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	return compactJSON(t.store.SearchNodes(req.Query))
}

func (t *Tools) openNodes(ctx context.Context, inv tool.Invocation, args map[string]any) (tool.Result, error) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := tool.DecodeArgs(args, &req); err != nil {
		return tool.Result{}, err
	}
	nodes := t.store.OpenNodes(req.Names)
	if nodes == nil {
		nodes = []memory.Entity{}
	}
	return compactJSON(nodes)
}

func prettyJSON(v any) (tool.Result, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return tool.Result{}, err
	}
	return tool.Text(string(data)), nil
}

func compactJSON(v any) (tool.Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return tool.Result{}, err
	}
	return tool.Text(string(data)), nil
}
