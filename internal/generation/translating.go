package generation

import (
	"context"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

// Translating runs an English-only model behind a Japanese conversation:
// the prompt is translated to PivotLang and the reply back to UserLang.
type Translating struct {
	inner      chat.Generator
	translator chat.Translator
}

const (
	UserLang  = "ja"
	PivotLang = "en"
)

// NewTranslating wraps inner. translator should never fail (see translate.Fallback).
func NewTranslating(inner chat.Generator, translator chat.Translator) *Translating {
	return &Translating{inner: inner, translator: translator}
}

func (t *Translating) Generate(ctx context.Context, p chat.Prompt) (string, error) {
	in := chat.Prompt{System: p.System, History: make([]chat.Turn, 0, len(p.History))}

	var err error
	if in.Input, err = t.translator.Translate(ctx, p.Input, UserLang, PivotLang); err != nil {
		return "", err
	}
	for _, turn := range p.History {
		q, err := t.translator.Translate(ctx, turn.Input, UserLang, PivotLang)
		if err != nil {
			return "", err
		}
		a, err := t.translator.Translate(ctx, turn.Response, UserLang, PivotLang)
		if err != nil {
			return "", err
		}
		in.History = append(in.History, chat.Turn{Timestamp: turn.Timestamp, Input: q, Response: a})
	}

	reply, err := t.inner.Generate(ctx, in)
	if err != nil {
		return "", err
	}
	return t.translator.Translate(ctx, reply, PivotLang, UserLang)
}

var _ chat.Generator = (*Translating)(nil)
