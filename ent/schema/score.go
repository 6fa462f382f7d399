package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Score is one logged game result.
type Score struct {
	ent.Schema
}

func (Score) Mixin() []ent.Mixin {
	return []ent.Mixin{RecordedMixin{}}
}

func (Score) Fields() []ent.Field {
	return []ent.Field{
		field.String("game").
			NotEmpty().
			Comment("Game version the score was achieved in"),
		field.Int("score").
			NonNegative(),
		field.Int("start_level").
			Optional().
			Nillable(),
		field.Int("end_level").
			Optional().
			Nillable(),
		field.Int("lines_cleared").
			Optional().
			Nillable(),
		field.String("media_path").
			Optional().
			Nillable().
			Comment("Copied screenshot or video in app storage"),
	}
}

func (Score) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("game"),
	}
}
