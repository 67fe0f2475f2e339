// Package memory persists the agent's long-term knowledge graph: named
// entities carrying observations, plus directed relations between them.
// The graph survives sessions in a YAML file and is recalled into the
// environment details of each turn.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Entity is a named node with free-text observations attached.
type Entity struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"entityType" yaml:"entityType"`
	Observations []string `json:"observations" yaml:"observations"`
}

// Relation is a directed, typed edge between two entities.
type Relation struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Type string `json:"relationType" yaml:"relationType"`
}

// Graph is the full knowledge graph.
type Graph struct {
	Entities  []Entity   `json:"entities" yaml:"entities"`
	Relations []Relation `json:"relations" yaml:"relations"`
}

// ObservationSet names an entity and a batch of observations for it.
type ObservationSet struct {
	EntityName   string   `json:"entityName" yaml:"entityName"`
	Observations []string `json:"observations" yaml:"observations"`
}

// Store owns the graph and its on-disk copy. All operations are safe for
// concurrent use.
type Store struct {
	mu    sync.RWMutex
	path  string // empty means in-memory only
	graph Graph
}

// Open loads the graph from path, starting empty if the file does not
// exist. Every mutation writes the file back.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read memory file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.graph); err != nil {
		return nil, fmt.Errorf("parse memory file %s: %w", path, err)
	}
	return s, nil
}

// InMemory creates a store that never touches disk.
func InMemory() *Store {
	return &Store{}
}

// save must run with the write lock held.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s.graph)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write memory file: %w", err)
	}
	return nil
}

// CreateEntities adds the entities whose names are new and returns them.
// Existing names are left untouched.
func (s *Store) CreateEntities(entities []Entity) ([]Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.graph.Entities))
	for _, e := range s.graph.Entities {
		existing[e.Name] = true
	}

	added := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if existing[e.Name] {
			continue
		}
		existing[e.Name] = true
		s.graph.Entities = append(s.graph.Entities, cloneEntity(e))
		added = append(added, e)
	}
	return added, s.save()
}

// CreateRelations adds the relations not already present and returns
// them. Identity is the exact (from, to, type) triple.
func (s *Store) CreateRelations(relations []Relation) ([]Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]Relation, 0, len(relations))
	for _, r := range relations {
		if s.hasRelation(r) {
			continue
		}
		s.graph.Relations = append(s.graph.Relations, r)
		added = append(added, r)
	}
	return added, s.save()
}

func (s *Store) hasRelation(r Relation) bool {
	for _, have := range s.graph.Relations {
		if have == r {
			return true
		}
	}
	return false
}

// AddedObservations reports what AddObservations actually appended per
// entity, with already-present observations filtered out.
type AddedObservations struct {
	EntityName string   `json:"entityName"`
	Added      []string `json:"addedObservations"`
}

// AddObservations appends observations to existing entities. A set
// naming an unknown entity fails the whole call.
func (s *Store) AddObservations(sets []ObservationSet) ([]AddedObservations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]AddedObservations, 0, len(sets))
	for _, set := range sets {
		entity := s.findEntity(set.EntityName)
		if entity == nil {
			return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, set.EntityName)
		}

		have := make(map[string]bool, len(entity.Observations))
		for _, o := range entity.Observations {
			have[o] = true
		}
		added := make([]string, 0, len(set.Observations))
		for _, o := range set.Observations {
			if have[o] {
				continue
			}
			have[o] = true
			entity.Observations = append(entity.Observations, o)
			added = append(added, o)
		}
		results = append(results, AddedObservations{EntityName: set.EntityName, Added: added})
	}
	return results, s.save()
}

func (s *Store) findEntity(name string) *Entity {
	for i := range s.graph.Entities {
		if s.graph.Entities[i].Name == name {
			return &s.graph.Entities[i]
		}
	}
	return nil
}

// DeleteEntities removes the named entities and every relation touching
// them. Unknown names are ignored.
func (s *Store) DeleteEntities(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]bool, len(names))
	for _, name := range names {
		doomed[name] = true
	}

	entities := s.graph.Entities[:0]
	for _, e := range s.graph.Entities {
		if !doomed[e.Name] {
			entities = append(entities, e)
		}
	}
	s.graph.Entities = entities

	relations := s.graph.Relations[:0]
	for _, r := range s.graph.Relations {
		if !doomed[r.From] && !doomed[r.To] {
			relations = append(relations, r)
		}
	}
	s.graph.Relations = relations

	return s.save()
}

// DeleteObservations removes the listed observation strings from their
// entities. Unknown entities and absent observations are ignored.
func (s *Store) DeleteObservations(sets []ObservationSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range sets {
		entity := s.findEntity(set.EntityName)
		if entity == nil {
			continue
		}
		doomed := make(map[string]bool, len(set.Observations))
		for _, o := range set.Observations {
			doomed[o] = true
		}
		kept := entity.Observations[:0]
		for _, o := range entity.Observations {
			if !doomed[o] {
				kept = append(kept, o)
			}
		}
		entity.Observations = kept
	}
	return s.save()
}

// DeleteRelations removes exact (from, to, type) triples. Absent triples
// are ignored.
func (s *Store) DeleteRelations(relations []Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[Relation]bool, len(relations))
	for _, r := range relations {
		doomed[r] = true
	}
	kept := s.graph.Relations[:0]
	for _, r := range s.graph.Relations {
		if !doomed[r] {
			kept = append(kept, r)
		}
	}
	s.graph.Relations = kept
	return s.save()
}

// Graph returns a deep copy of the whole graph.
func (s *Store) Graph() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGraph(s.graph)
}

// OpenNodes returns copies of the named entities, in graph order.
func (s *Store) OpenNodes(names []string) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	var out []Entity
	for _, e := range s.graph.Entities {
		if wanted[e.Name] {
			out = append(out, cloneEntity(e))
		}
	}
	return out
}

func cloneEntity(e Entity) Entity {
	e.Observations = append([]string(nil), e.Observations...)
	return e
}

func cloneGraph(g Graph) Graph {
	out := Graph{
		Entities:  make([]Entity, 0, len(g.Entities)),
		Relations: append([]Relation(nil), g.Relations...),
	}
	for _, e := range g.Entities {
		out.Entities = append(out.Entities, cloneEntity(e))
	}
	return out
}
