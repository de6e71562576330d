package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AnalyticsSnapshot holds one (metric_name, period) rollup row; later
// writes upsert (spec.md §3, §4.9 analytics_rollup).
type AnalyticsSnapshot struct {
	ent.Schema
}

func (AnalyticsSnapshot) Fields() []ent.Field {
	return []ent.Field{
		field.String("metric_name").
			NotEmpty().
			Immutable(),
		field.Float("value"),
		field.Time("period").
			Immutable(),
		field.JSON("metadata", map[string]string{}).
			Optional().
			SchemaType(map[string]string{"postgres": "jsonb"}),
	}
}

func (AnalyticsSnapshot) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("metric_name", "period").Unique(),
	}
}
