package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// UsageRecord holds the schema definition for the UsageRecord entity
// (spec.md §3, §4.7).
type UsageRecord struct {
	ent.Schema
}

func (UsageRecord) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("subscription_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.String("metric").
			NotEmpty().
			Immutable(),
		field.Int64("quantity").
			Immutable(),
		field.Time("timestamp").
			Immutable(),
		field.String("idempotency_key").
			NotEmpty().
			Immutable(),
		field.Time("received_at").
			Immutable(),
	}
}

func (UsageRecord) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("subscription", Subscription.Type).
			Ref("usage_records").
			Field("subscription_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (UsageRecord) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("idempotency_key").Unique(),
		index.Fields("subscription_id", "metric", "timestamp"),
		index.Fields("subscription_id", "received_at"),
	}
}
