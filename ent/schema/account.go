package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// Account holds the schema definition for the Account entity.
type Account struct {
	ent.Schema
}

func (Account) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (Account) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("email").
			NotEmpty(),
		field.String("name").
			Optional(),
		field.String("currency").
			SchemaType(map[string]string{"postgres": "varchar(10)"}).
			NotEmpty().
			Immutable(),
		field.String("timezone").
			Default("UTC"),
		field.Bool("tax_exempt").
			Default(false),
		field.String("tax_id").
			Optional(),
		field.String("vat_id").
			Optional(),
		field.String("account_status").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Default("active"),
		field.JSON("metadata", map[string]string{}).
			Optional().
			SchemaType(map[string]string{"postgres": "jsonb"}),
	}
}

func (Account) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("subscriptions", Subscription.Type),
		edge.To("invoices", Invoice.Type),
		edge.To("payment_methods", PaymentMethod.Type),
		edge.To("credits", Credit.Type),
	}
}

func (Account) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email").Unique(),
	}
}
