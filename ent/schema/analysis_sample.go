package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AnalysisSample is one entry of the batch analyzer's working set.
type AnalysisSample struct {
	ent.Schema
}

func (AnalysisSample) Fields() []ent.Field {
	return []ent.Field{
		field.String("game").
			NotEmpty(),
		field.Int("score"),
		field.Int("level"),
		field.String("skill_level").
			Comment("beginner, intermediate, advanced or free text"),
		field.String("notes").
			Optional(),
	}
}

func (AnalysisSample) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("game"),
	}
}
