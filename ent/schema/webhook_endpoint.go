package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// WebhookEndpoint is the store-backed endpoint-registry entity spec.md §9
// mandates in place of the source's in-process map.
type WebhookEndpoint struct {
	ent.Schema
}

func (WebhookEndpoint) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (WebhookEndpoint) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("url").
			NotEmpty(),
		field.JSON("events", []string{}).
			SchemaType(map[string]string{"postgres": "jsonb"}),
		field.Bool("active").
			Default(true),
	}
}
