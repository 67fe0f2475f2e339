// Package memorytool exposes the knowledge graph store as model-facing
// tools, mirroring the reference MCP memory server's tool set.
package memorytool

import (
	"github.com/navvylabs/navvy/internal/memory"
	"github.com/navvylabs/navvy/internal/permission"
	"github.com/navvylabs/navvy/internal/tool"
)

// Tools wraps one store.
type Tools struct {
	store *memory.Store
}

// New creates the memory tool set.
func New(store *memory.Store) *Tools {
	if store == nil {
		panic("store is required")
	}
	return &Tools{store: store}
}

var entitySchema = &tool.Schema{
	Type: tool.TypeObject,
	Properties: map[string]*tool.Schema{
		"name":       {Type: tool.TypeString, Description: "Unique entity name"},
		"entityType": {Type: tool.TypeString, Description: "Kind of entity, e.g. person, project"},
		"observations": {
			Type:        tool.TypeArray,
			Description: "Facts about the entity",
			Items:       &tool.Schema{Type: tool.TypeString},
		},
	},
	Required: []string{"name", "entityType"},
}

var relationSchema = &tool.Schema{
	Type: tool.TypeObject,
	Properties: map[string]*tool.Schema{
		"from":         {Type: tool.TypeString, Description: "Source entity name"},
		"to":           {Type: tool.TypeString, Description: "Target entity name"},
		"relationType": {Type: tool.TypeString, Description: "Relation type in active voice, e.g. maintains"},
	},
	Required: []string{"from", "to", "relationType"},
}

var observationSetSchema = &tool.Schema{
	Type: tool.TypeObject,
	Properties: map[string]*tool.Schema{
		"entityName": {Type: tool.TypeString, Description: "Entity the observations belong to"},
		"observations": {
			Type:        tool.TypeArray,
			Description: "Observation strings",
			Items:       &tool.Schema{Type: tool.TypeString},
		},
	},
	Required: []string{"entityName", "observations"},
}

// Descriptors returns the registrable tool set.
func (t *Tools) Descriptors() []*tool.Descriptor {
	return []*tool.Descriptor{
		{
			Name:        "create_entities",
			Description: "Create new entities in the knowledge graph. Existing names are skipped.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"entities": {Type: tool.TypeArray, Items: entitySchema},
				},
				Required: []string{"entities"},
			},
			Risk:    permission.RiskMutating,
			Handler: tool.HandlerFunc(t.createEntities),
		},
		{
			Name:        "create_relations",
			Description: "Create relations between entities in the knowledge graph. Duplicate triples are skipped.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"relations": {Type: tool.TypeArray, Items: relationSchema},
				},
				Required: []string{"relations"},
			},
			Risk:    permission.RiskMutating,
			Handler: tool.HandlerFunc(t.createRelations),
		},
		{
			Name:        "add_observations",
			Description: "Add observations to existing entities in the knowledge graph.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"observations": {Type: tool.TypeArray, Items: observationSetSchema},
				},
				Required: []string{"observations"},
			},
			Risk:    permission.RiskMutating,
			Handler: tool.HandlerFunc(t.addObservations),
		},
		{
			Name:        "delete_entities",
			Description: "Delete entities and all relations touching them from the knowledge graph.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"entityNames": {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeString}},
				},
				Required: []string{"entityNames"},
			},
			Risk:    permission.RiskMutating,
			Handler: tool.HandlerFunc(t.deleteEntities),
		},
		{
			Name:        "delete_observations",
			Description: "Delete specific observations from entities in the knowledge graph.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"deletions": {Type: tool.TypeArray, Items: observationSetSchema},
				},
				Required: []string{"deletions"},
			},
			Risk:    permission.RiskMutating,
			Handler: tool.HandlerFunc(t.deleteObservations),
		},
		{
			Name:        "delete_relations",
			Description: "Delete relations from the knowledge graph.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"relations": {Type: tool.TypeArray, Items: relationSchema},
				},
				Required: []string{"relations"},
			},
			Risk:    permission.RiskMutating,
			Handler: tool.HandlerFunc(t.deleteRelations),
		},
		{
			Name:        "read_graph",
			Description: "Read the entire knowledge graph.",
			Parameters:  &tool.Schema{Type: tool.TypeObject},
			Risk:        permission.RiskSafe,
			Handler:     tool.HandlerFunc(t.readGraph),
		},
		{
			Name:        "search_nodes",
			Description: "Search the knowledge graph for entities matching a query, with their relations.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"query": {Type: tool.TypeString, Description: "Keywords to match against names and observations"},
				},
				Required: []string{"query"},
			},
			Risk:    permission.RiskSafe,
			Handler: tool.HandlerFunc(t.searchNodes),
		},
		{
			Name:        "open_nodes",
			Description: "Retrieve specific entities from the knowledge graph by name.",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"names": {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeString}},
				},
				Required: []string{"names"},
			},
			Risk:    permission.RiskSafe,
			Handler: tool.HandlerFunc(t.openNodes),
		},
	}
}
