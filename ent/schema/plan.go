package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// Plan holds the schema definition for the Plan entity. Plans are
// immutable once referenced (spec.md §3); tiers are embedded JSON, not a
// child table, matching the spec's "ordered list" PlanTier shape.
type Plan struct {
	ent.Schema
}

func (Plan) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (Plan) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("name").
			NotEmpty().
			Immutable(),
		field.String("interval").
			SchemaType(map[string]string{"postgres": "varchar(10)"}).
			NotEmpty().
			Immutable(),
		field.Int64("amount").
			Immutable(),
		field.String("currency").
			SchemaType(map[string]string{"postgres": "varchar(10)"}).
			NotEmpty().
			Immutable(),
		field.Int("trial_days").
			Default(0).
			Immutable(),
		field.String("usage_type").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Optional().
			Immutable(),
		field.JSON("tiers", []struct {
			UpTo       *int64 `json:"up_to"`
			UnitAmount int64  `json:"unit_amount"`
		}{}).
			Optional().
			Immutable().
			SchemaType(map[string]string{"postgres": "jsonb"}),
		field.Bool("active").
			Default(true),
		field.Int("version").
			Default(1).
			Immutable(),
	}
}

func (Plan) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("subscriptions", Subscription.Type),
	}
}
