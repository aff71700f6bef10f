package chat

import "strings"

// DefaultContextTurns is how many prior turns are fed to generation.
const DefaultContextTurns = 2

// DefaultSystemPrompt introduces the mascot persona to completion models.
const DefaultSystemPrompt = "あなたはフレンドリーで会話上手な日本語マスコットです。\n" +
	"以下にユーザーとの会話履歴があります。最後の質問に対して、親しみやすく、適切な長さで自然に応答してください。\n"

// Speaker tags used by the transcript rendering.
const (
	UserTag   = "ユーザー:"
	MascotTag = "マスコット:"
)

// Prompt is the bounded context handed to a Generator: prior turns oldest
// first, followed by the unanswered Input.
type Prompt struct {
	System  string
	History []Turn
	Input   string
}

// Transcript renders the prompt as a speaker-tagged transcript ending with an
// open mascot line for the model to complete.
func (p Prompt) Transcript() string {
	lines := make([]string, 0, len(p.History)*2+1)
	for _, t := range p.History {
		lines = append(lines, UserTag+" "+t.Input, MascotTag+" "+t.Response)
	}
	lines = append(lines, UserTag+" "+p.Input)

	var b strings.Builder
	b.WriteString(p.System)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(MascotTag)
	return b.String()
}

// Flat renders the prompt as alternating utterances without speaker tags,
// newest last.
func (p Prompt) Flat() []string {
	out := make([]string, 0, len(p.History)*2+1)
	for _, t := range p.History {
		out = append(out, t.Input, t.Response)
	}
	return append(out, p.Input)
}

// ContextAssembler builds prompts from the tail of the history.
type ContextAssembler struct {
	limit  int
	system string
}

// NewContextAssembler creates an assembler keeping at most limit prior turns.
func NewContextAssembler(limit int, system string) *ContextAssembler {
	if limit < 0 {
		limit = 0
	}
	return &ContextAssembler{limit: limit, system: system}
}

// Limit is the number of prior turns the assembler keeps.
func (a *ContextAssembler) Limit() int {
	return a.limit
}

// Build returns a prompt holding the last Limit turns of history and input.
// The history slice is copied, never retained.
func (a *ContextAssembler) Build(history []Turn, input string) Prompt {
	start := len(history) - a.limit
	if start < 0 {
		start = 0
	}
	tail := make([]Turn, len(history)-start)
	copy(tail, history[start:])

	return Prompt{
		System:  a.system,
		History: tail,
		Input:   input,
	}
}
