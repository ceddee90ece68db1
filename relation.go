package orm

import (
	"context"
	"fmt"
)

// Relation is a belongs-to link: the owning record stores the target's
// primary key in ForeignKey.
type Relation struct {
	Name       string
	Target     *Schema
	ForeignKey string
}

// BelongsTo declares a relation resolved through the "<name>_id" attribute.
func (s *Schema) BelongsTo(name string, target *Schema) *Schema {
	if s.relations == nil {
		s.relations = make(map[string]*Relation)
	}
	s.relations[name] = &Relation{Name: name, Target: target, ForeignKey: name + "_id"}
	return s
}

func (s *Schema) Relation(name string) (*Relation, bool) {
	rel, ok := s.relations[name]
	return rel, ok
}

// Related loads the record named by relation name. A NULL foreign key
// yields (nil, nil). Nothing is cached: every call queries again.
func (r *Record) Related(ctx context.Context, name string) (*Record, error) {
	if r.deleted {
		return nil, ErrRecordDeleted
	}

	rel, ok := r.schema.Relation(name)
	if !ok {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownRelation, name, r.schema.Table)
	}

	id := r.Get(rel.ForeignKey)
	if id.IsNull() {
		return nil, nil
	}

	return NewModel(r.executor, rel.Target).Find(ctx, id)
}
