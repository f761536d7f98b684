package quality

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postpilot/internal/transfer"
)

type Completer interface {
	Complete(ctx context.Context, messages []transfer.ChatMessage) (string, error)
}

type GateInput struct {
	Caption       string
	RequiredVocab []string
	// AllowRegenerate defaults to true when nil.
	AllowRegenerate *bool
}

type GateResult struct {
	Passed          bool     `json:"passed"`
	Caption         string   `json:"caption"`
	OriginalCaption string   `json:"original_caption"`
	Violations      []string `json:"violations"`
	Regenerated     bool     `json:"regenerated"`
}

type Gate interface {
	Check(ctx context.Context, in GateInput) (*GateResult, error)
}

type gate struct {
	completer Completer
	rules     Rules
}

func NewGate(completer Completer) Gate {
	return &gate{completer: completer, rules: defaultRules}
}

// Check validates the caption and spends at most one completion call on a
// rewrite. A completion error is returned as is and is not a compliance
// failure.
func (g *gate) Check(ctx context.Context, in GateInput) (*GateResult, error) {
	result := &GateResult{
		Caption:         in.Caption,
		OriginalCaption: in.Caption,
	}

	violations := g.rules.Validate(in.Caption, in.RequiredVocab)
	if len(violations) == 0 {
		result.Passed = true
		result.Violations = violations
		return result, nil
	}

	if in.AllowRegenerate != nil && !*in.AllowRegenerate {
		result.Violations = violations
		return result, nil
	}

	rewritten, err := g.completer.Complete(ctx, rewriteMessages(in.Caption, violations, in.RequiredVocab))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("caption rewrite: %w", err)
	}
	rewritten = cleanRewrite(rewritten)

	result.Caption = rewritten
	result.Regenerated = true
	result.Violations = g.rules.Validate(rewritten, in.RequiredVocab)
	result.Passed = len(result.Violations) == 0

	return result, nil
}

func rewriteMessages(caption string, violations, requiredVocab []string) []transfer.ChatMessage {
	var b strings.Builder
	b.WriteString("Rewrite this Instagram caption so it fixes every listed problem. Keep the meaning and the length roughly the same.\n\n")
	b.WriteString("Caption:\n")
	b.WriteString(caption)
	b.WriteString("\n\nProblems:\n")
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	if len(requiredVocab) > 0 {
		b.WriteString("\nThe caption must use these words: ")
		b.WriteString(strings.Join(requiredVocab, ", "))
		b.WriteString("\n")
	}

	return []transfer.ChatMessage{
		{
			Role:    transfer.RoleSystem,
			Content: "You are a careful brand copy editor. Never use emoji, motivational clichés or medical claims. Reply with the rewritten caption only.",
		},
		{Role: transfer.RoleUser, Content: b.String()},
	}
}

func cleanRewrite(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
