package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// InvoiceCounter is a single-row counter table serializing the
// `INV-{N:06d}` sequence (spec.md §5 fence 3, §6). Allocation takes a
// Postgres advisory lock on this row's id rather than relying on row-level
// locking alone, the way the teacher's internal/postgres/locks.go gates
// other serialized counters.
type InvoiceCounter struct {
	ent.Schema
}

func (InvoiceCounter) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").
			Immutable(),
		field.Int64("next_value").
			Default(1),
	}
}
