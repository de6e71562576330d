package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// PaymentMethod holds the schema definition for the PaymentMethod entity.
type PaymentMethod struct {
	ent.Schema
}

func (PaymentMethod) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (PaymentMethod) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("account_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.String("gateway_token").
			NotEmpty().
			Immutable(),
		field.String("brand").
			Optional(),
		field.String("last4").
			Optional(),
		field.Int("expiry_month").
			Optional(),
		field.Int("expiry_year").
			Optional(),
		field.Bool("is_default").
			Default(false),
	}
}

func (PaymentMethod) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("account", Account.Type).
			Ref("payment_methods").
			Field("account_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (PaymentMethod) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("gateway_token").Unique(),
		// At most one is_default=true per account — spec.md §5 fence 5.
		// This is a plain lookup index, not a unique one: the rule is kept
		// by the paymentmethod repository adapter's SetDefault, which
		// clears the old default and sets the new one in one transaction.
		index.Fields("account_id", "is_default"),
	}
}
