package translate

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/i474232898/virtual-mascot/internal/chat"
	"github.com/i474232898/virtual-mascot/internal/common"
)

// DefaultFallbackRunes bounds the untranslated text returned on failure.
const DefaultFallbackRunes = 500

// Fallback never fails: when the wrapped translator errors or returns
// nothing, the input is returned truncated to a bounded length.
type Fallback struct {
	inner    chat.Translator
	maxRunes int
	log      zerolog.Logger
}

// NewFallback wraps inner. If maxRunes is <= 0, DefaultFallbackRunes is used.
func NewFallback(inner chat.Translator, maxRunes int, log zerolog.Logger) *Fallback {
	if maxRunes <= 0 {
		maxRunes = DefaultFallbackRunes
	}
	return &Fallback{inner: inner, maxRunes: maxRunes, log: log}
}

// Translate implements chat.Translator; the returned error is always nil.
func (f *Fallback) Translate(ctx context.Context, text, source, target string) (string, error) {
	out, err := f.inner.Translate(ctx, text, source, target)
	if err != nil {
		f.log.Warn().Err(err).Str("source", source).Str("target", target).Msg("translation failed, using original text")
		return common.TruncateRunes(text, f.maxRunes), nil
	}
	if strings.TrimSpace(out) == "" {
		return common.TruncateRunes(text, f.maxRunes), nil
	}
	return out, nil
}

var _ chat.Translator = (*Fallback)(nil)
