package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// Invoice holds the schema definition for the Invoice entity. Line items
// are embedded JSON (spec.md §3: "Invoices own their line items
// (embedded)"), not a child table.
type Invoice struct {
	ent.Schema
}

func (Invoice) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (Invoice) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("account_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.String("subscription_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Optional().
			Nillable().
			Immutable(),
		field.String("number").
			NotEmpty().
			Immutable(),
		field.String("invoice_status").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Default("draft"),
		field.Int64("amount_due"),
		field.Int64("amount_paid").
			Default(0),
		field.Int64("tax").
			Default(0),
		field.String("currency").
			SchemaType(map[string]string{"postgres": "varchar(10)"}).
			NotEmpty().
			Immutable(),
		field.Time("due_date"),
		field.Time("paid_at").
			Optional().
			Nillable(),
		field.Time("voided_at").
			Optional().
			Nillable(),
		field.JSON("line_items", []struct {
			Description string `json:"description"`
			Amount      int64  `json:"amount"`
			Quantity    int64  `json:"quantity"`
			Type        string `json:"type"`
		}{}).
			SchemaType(map[string]string{"postgres": "jsonb"}),
		field.Time("period_start").
			Optional().
			Nillable().
			Immutable(),
		field.Time("period_end").
			Optional().
			Nillable().
			Immutable(),
		field.JSON("metadata", map[string]string{}).
			Optional().
			SchemaType(map[string]string{"postgres": "jsonb"}),
	}
}

func (Invoice) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("payments", Payment.Type),
	}
}

func (Invoice) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("number").Unique(),
		index.Fields("subscription_id", "period_start").
			Annotations(entsql.IndexWhere("invoice_status != 'void'")),
		index.Fields("invoice_status", "due_date"),
	}
}
