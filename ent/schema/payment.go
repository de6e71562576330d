package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// Payment holds the schema definition for the Payment entity (spec.md §4.4).
type Payment struct {
	ent.Schema
}

func (Payment) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (Payment) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("invoice_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.Int64("amount").
			Immutable(),
		field.String("currency").
			SchemaType(map[string]string{"postgres": "varchar(10)"}).
			NotEmpty().
			Immutable(),
		field.String("payment_status").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Default("pending"),
		field.String("gateway_txn_id").
			Optional(),
		field.String("payment_method_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Optional().
			Nillable(),
		field.String("failure_message").
			Optional(),
		field.String("idempotency_key").
			NotEmpty().
			Immutable(),
		field.Int("retry_count").
			Default(0),
		field.Time("next_retry_at").
			Optional().
			Nillable(),
		field.Time("first_attempt_at").
			Immutable(),
	}
}

func (Payment) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("invoice", Invoice.Type).
			Ref("payments").
			Field("invoice_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (Payment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("idempotency_key").Unique(),
		index.Fields("payment_status", "next_retry_at"),
	}
}
