package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// SubscriptionHistory holds the schema for the append-only
// SubscriptionHistory rows (spec.md §3).
type SubscriptionHistory struct {
	ent.Schema
}

func (SubscriptionHistory) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("subscription_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.String("event_type").
			NotEmpty().
			Immutable(),
		field.String("old_value").
			Optional().
			Immutable(),
		field.String("new_value").
			Optional().
			Immutable(),
		field.String("reason").
			Optional().
			Immutable(),
		field.Time("at").
			Default(time.Now).
			Immutable(),
	}
}

func (SubscriptionHistory) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("subscription", Subscription.Type).
			Ref("history").
			Field("subscription_id").
			Unique().
			Required().
			Immutable(),
	}
}
