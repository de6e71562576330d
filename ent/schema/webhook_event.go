package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WebhookEvent holds the schema definition for the Event Outbox's
// WebhookEvent entity (spec.md §4.8).
type WebhookEvent struct {
	ent.Schema
}

func (WebhookEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("event_type").
			NotEmpty().
			Immutable(),
		field.Bytes("payload").
			Immutable(),
		field.String("endpoint_url").
			NotEmpty().
			Immutable(),
		field.String("endpoint_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Immutable(),
		field.String("webhook_status").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Default("pending"),
		field.Int("retry_count").
			Default(0),
		field.Time("next_retry_at").
			Optional().
			Nillable(),
		field.String("last_error").
			Optional(),
		field.Time("created_at").
			Immutable(),
		field.Time("delivered_at").
			Optional().
			Nillable(),
	}
}

func (WebhookEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("webhook_status", "next_retry_at"),
	}
}
