package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// RecordedMixin provides the wall-clock column shared by entities that are
// listed in the order they were recorded.
type RecordedMixin struct {
	mixin.Schema
}

func (RecordedMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("date_recorded").
			Comment("Unix milliseconds when the row was recorded"),
	}
}

func (RecordedMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("date_recorded"),
	}
}
