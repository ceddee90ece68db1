package orm

import (
	"context"
	"errors"

	"github.com/samber/lo"
)

// Record is one row of a schema's table. A new Record is transient until
// Save inserts it; a hydrated Record starts persisted with its row as the
// original snapshot. Delete is terminal: every later operation fails with
// ErrRecordDeleted.
//
// A Record is not safe for concurrent use.
type Record struct {
	executor Executor
	schema   *Schema

	attrs    *Attributes
	original *Attributes

	exists  bool
	deleted bool
}

func newRecord(executor Executor, schema *Schema) *Record {
	return &Record{
		executor: executor,
		schema:   schema,
		attrs:    NewAttributes(),
		original: NewAttributes(),
	}
}

func hydrate(executor Executor, schema *Schema, row *Attributes) *Record {
	return &Record{
		executor: executor,
		schema:   schema,
		attrs:    row,
		original: row.Clone(),
		exists:   true,
	}
}

func (r *Record) Schema() *Schema { return r.schema }

// Exists reports whether the record is backed by a stored row.
func (r *Record) Exists() bool { return r.exists }

func (r *Record) Deleted() bool { return r.deleted }

// Fill copies the fillable keys of h, in field declaration order. Other keys
// are dropped without error.
func (r *Record) Fill(h H) error {
	if r.deleted {
		return ErrRecordDeleted
	}
	r.fill(h)
	return nil
}

func (r *Record) fill(h H) {
	for _, f := range r.schema.Fields {
		if v, ok := h[f.Name]; ok {
			r.attrs.Set(f.Name, v)
		}
	}
}

// Get returns the value of key, NULL if unset.
func (r *Record) Get(key string) Value {
	v, _ := r.attrs.Get(key)
	return v
}

func (r *Record) Lookup(key string) (Value, bool) {
	return r.attrs.Get(key)
}

// Set writes key without consulting the fillable list; the original snapshot
// is left alone.
func (r *Record) Set(key string, v Value) error {
	if r.deleted {
		return ErrRecordDeleted
	}
	r.attrs.Set(key, v)
	return nil
}

// ID returns the primary key value.
func (r *Record) ID() Value {
	return r.Get(r.schema.Key())
}

func (r *Record) Attributes() H {
	return r.attrs.H()
}

// Dirty returns the attributes that are new or differ from the original.
func (r *Record) Dirty() H {
	out := H{}
	for _, k := range r.dirtyKeys() {
		out[k] = r.Get(k)
	}
	return out
}

func (r *Record) IsDirty() bool {
	return len(r.dirtyKeys()) > 0
}

func (r *Record) dirtyKeys() []string {
	return lo.Filter(r.attrs.Keys(), func(k string, _ int) bool {
		orig, ok := r.original.Get(k)
		return !ok || !orig.Equal(r.Get(k))
	})
}

// Save writes the dirty attributes. A clean record issues no statement. A
// transient record is inserted with all its attributes; when it carries no
// primary key the generated one is stored in the record. A persisted record
// is updated by primary key with only the dirty columns.
func (r *Record) Save(ctx context.Context) error {
	if r.deleted {
		return ErrRecordDeleted
	}

	dirty := r.dirtyKeys()
	if len(dirty) == 0 {
		return nil
	}

	if r.exists {
		return r.update(ctx, dirty)
	}
	return r.insert(ctx)
}

func (r *Record) insert(ctx context.Context) error {
	cols := r.attrs.Keys()
	if err := r.schema.check(r, cols); err != nil {
		return err
	}
	if r.ID().IsNull() && !r.schema.generatedKey() {
		return &ValidationError{Table: r.schema.Table, Field: r.schema.Key(), Msg: "primary key must be supplied"}
	}

	pk := r.schema.Key()
	query, args, err := NewBuilder(r.executor, r.schema).Insert(r.attrs, cols)
	if err != nil {
		return err
	}

	if r.ID().IsNull() {
		id, err := r.executor.Insert(ctx, query, pk, args...)
		switch {
		case errors.Is(err, ErrNoLastInsertID):
			// table without a generated key
		case err != nil:
			return annotate(err, "insert", r.schema.Table, Null())
		default:
			r.attrs.Set(pk, Int(id))
		}
	} else if _, err := r.executor.Exec(ctx, query, args...); err != nil {
		return annotate(err, "insert", r.schema.Table, r.ID())
	}

	r.exists = true
	r.original = r.attrs.Clone()
	return nil
}

func (r *Record) update(ctx context.Context, dirty []string) error {
	if err := r.schema.check(r, dirty); err != nil {
		return err
	}

	key, err := r.storedKey()
	if err != nil {
		return err
	}

	query, args, err := NewBuilder(r.executor, r.schema).
		Where(r.schema.Key(), "=", key).
		Update(r.attrs, dirty)
	if err != nil {
		return err
	}

	if _, err := r.executor.Exec(ctx, query, args...); err != nil {
		return annotate(err, "update", r.schema.Table, key)
	}

	r.original = r.attrs.Clone()
	return nil
}

// Delete removes the backing row. It returns false without error for a
// record that was never saved.
func (r *Record) Delete(ctx context.Context) (bool, error) {
	if r.deleted {
		return false, ErrRecordDeleted
	}
	if !r.exists {
		return false, nil
	}

	key, err := r.storedKey()
	if err != nil {
		return false, err
	}

	query, args, err := NewBuilder(r.executor, r.schema).Where(r.schema.Key(), "=", key).Delete()
	if err != nil {
		return false, err
	}

	if _, err := r.executor.Exec(ctx, query, args...); err != nil {
		return false, annotate(err, "delete", r.schema.Table, key)
	}

	r.exists = false
	r.deleted = true
	return true, nil
}

// storedKey is the primary key the row is stored under, which survives a
// pending change to the key attribute itself.
func (r *Record) storedKey() (Value, error) {
	pk := r.schema.Key()
	key, ok := r.original.Get(pk)
	if !ok || key.IsNull() {
		key = r.Get(pk)
	}
	if key.IsNull() {
		return Null(), &ValidationError{Table: r.schema.Table, Field: pk, Msg: "missing primary key"}
	}
	return key, nil
}
