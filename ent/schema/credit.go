package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// Credit holds the schema definition for the Credit entity (spec.md §4.5).
type Credit struct {
	ent.Schema
}

func (Credit) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (Credit) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("account_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.Int64("amount").
			Immutable(),
		field.String("currency").
			SchemaType(map[string]string{"postgres": "varchar(10)"}).
			NotEmpty().
			Immutable(),
		field.String("reason").
			NotEmpty().
			Immutable(),
		field.Time("expires_at").
			Optional().
			Nillable().
			Immutable(),
		field.String("applied_to_invoice_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Optional().
			Nillable(),
		field.Time("applied_at").
			Optional().
			Nillable(),
	}
}

func (Credit) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("account", Account.Type).
			Ref("credits").
			Field("account_id").
			Unique().
			Required().
			Immutable(),
	}
}
