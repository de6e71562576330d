package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	baseMixin "github.com/sugu-inc/modern-billing/ent/schema/mixin"
)

// Subscription holds the schema definition for the Subscription entity,
// adapted from the teacher's much larger subscription schema down to the
// fields spec.md §3/§4.1 actually name (billing cycle schedule/phase/addon
// fields dropped — out of this spec's scope).
type Subscription struct {
	ent.Schema
}

func (Subscription) Mixin() []ent.Mixin {
	return []ent.Mixin{baseMixin.BaseMixin{}}
}

func (Subscription) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Unique().
			Immutable(),
		field.String("account_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty().
			Immutable(),
		field.String("plan_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			NotEmpty(),
		field.String("subscription_status").
			SchemaType(map[string]string{"postgres": "varchar(20)"}).
			Default("active"),
		field.Int64("quantity").
			Default(1),
		field.Time("current_period_start").
			Default(time.Now),
		field.Time("current_period_end").
			Default(time.Now),
		field.Bool("cancel_at_period_end").
			Default(false),
		field.Time("cancelled_at").
			Optional().
			Nillable(),
		field.Time("trial_end").
			Optional().
			Nillable(),
		field.Time("pause_resumes_at").
			Optional().
			Nillable(),
		field.Time("paused_at").
			Optional().
			Nillable(),
		field.String("pending_plan_id").
			SchemaType(map[string]string{"postgres": "varchar(50)"}).
			Optional().
			Nillable(),
	}
}

func (Subscription) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("history", SubscriptionHistory.Type),
		edge.To("invoices", Invoice.Type),
		edge.To("usage_records", UsageRecord.Type),
	}
}

func (Subscription) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("account_id").
			Annotations(entsql.IndexWhere("status = 'published'")),
		index.Fields("current_period_end", "subscription_status").
			Annotations(entsql.IndexWhere("status = 'published'")),
	}
}
