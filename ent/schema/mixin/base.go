// Package mixin holds the shared ent schema mixins every entity composes,
// grounded on the teacher's ent/schema mixin pattern (BaseMixin +
// EnvironmentMixin) minus the tenant/environment fields this engine's
// Non-goals drop.
package mixin

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/mixin"
)

// BaseMixin carries the status/audit/timestamp fields every entity shares,
// matching internal/types.BaseModel.
type BaseMixin struct {
	mixin.Schema
}

func (BaseMixin) Fields() []ent.Field {
	return []ent.Field{
		field.String("status").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Default("published"),
		field.String("created_by").
			Optional(),
		field.String("updated_by").
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}
