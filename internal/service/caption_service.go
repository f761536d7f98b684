package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/quality"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const (
	defaultSystemPrompt = "You write Instagram captions for a brand. Write in plain, specific language a real person would use."
	defaultRules        = "No emoji. No motivational clichés. No medical or health claims. Two to four short sentences."
	defaultOutputShape  = `{"caption": string, "hashtags": [string], "pinned_comment": string}`
)

type CaptionDraft struct {
	Caption       string   `json:"caption"`
	Hashtags      []string `json:"hashtags"`
	PinnedComment string   `json:"pinned_comment"`
	RequiredVocab []string `json:"-"`
}

type CaptionService interface {
	Generate(ctx context.Context, req transfer.GenerateCaptionRequest) (*CaptionDraft, error)
	// Draft asks the model for a caption without running the quality gate.
	Draft(ctx context.Context, brand *models.Brand, bucket *models.ContentBucket) (*CaptionDraft, error)
}

type captionService struct {
	br   repository.BrandRepository
	bk   repository.BucketRepository
	pt   repository.PromptTemplateRepository
	llm  CompletionService
	gate quality.Gate
}

func NewCaptionService(
	br repository.BrandRepository,
	bk repository.BucketRepository,
	pt repository.PromptTemplateRepository,
	llm CompletionService,
	gate quality.Gate) CaptionService {
	return &captionService{br: br, bk: bk, pt: pt, llm: llm, gate: gate}
}

func (s *captionService) Generate(ctx context.Context, req transfer.GenerateCaptionRequest) (*CaptionDraft, error) {
	if req.BrandID == 0 || req.BucketID == 0 {
		return nil, validationf("brand_id and bucket_id are required")
	}

	brand, err := s.br.GetByID(ctx, req.BrandID)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, &NotFoundError{Resource: "brand", ID: req.BrandID}
	}

	bucket, err := s.bk.GetByID(ctx, req.BucketID)
	if err != nil {
		return nil, err
	}
	if bucket == nil || bucket.BrandID != brand.ID {
		return nil, &NotFoundError{Resource: "bucket", ID: req.BucketID}
	}

	draft, err := s.Draft(ctx, brand, bucket)
	if err != nil {
		return nil, err
	}

	if req.ForceRules {
		res, err := s.gate.Check(ctx, quality.GateInput{Caption: draft.Caption, RequiredVocab: draft.RequiredVocab})
		if err != nil {
			return nil, err
		}
		if !res.Passed {
			return nil, &ComplianceError{Violations: res.Violations, Caption: res.Caption}
		}
		draft.Caption = res.Caption
	}

	return draft, nil
}

func (s *captionService) Draft(ctx context.Context, brand *models.Brand, bucket *models.ContentBucket) (*CaptionDraft, error) {
	tmpl, err := s.pt.GetLatestByBrandID(ctx, brand.ID)
	if err != nil {
		return nil, err
	}

	reply, err := s.llm.Complete(ctx, captionMessages(brand, bucket, tmpl))
	if err != nil {
		return nil, err
	}

	draft := ParseCaptionReply(reply)
	if tmpl != nil {
		draft.RequiredVocab = append([]string(nil), tmpl.RequiredVocab...)
	}
	if draft.Caption == "" {
		return nil, &ExternalServiceError{Service: "llm", Message: "completion contained no caption"}
	}
	return draft, nil
}

func captionMessages(brand *models.Brand, bucket *models.ContentBucket, tmpl *models.PromptTemplate) []transfer.ChatMessage {
	system, rules, shape := defaultSystemPrompt, defaultRules, defaultOutputShape
	var vocab []string
	if tmpl != nil {
		if strings.TrimSpace(tmpl.SystemPrompt) != "" {
			system = tmpl.SystemPrompt
		}
		if strings.TrimSpace(tmpl.Rules) != "" {
			rules = tmpl.Rules
		}
		if strings.TrimSpace(tmpl.OutputShape) != "" {
			shape = tmpl.OutputShape
		}
		vocab = tmpl.RequiredVocab
	}

	var sys strings.Builder
	sys.WriteString(system)
	sys.WriteString("\n\nRules:\n")
	sys.WriteString(rules)
	if len(vocab) > 0 {
		sys.WriteString("\nAlways use these words: ")
		sys.WriteString(strings.Join(vocab, ", "))
	}
	sys.WriteString("\n\nRespond with a single JSON object shaped like ")
	sys.WriteString(shape)
	sys.WriteString(" and nothing else.")

	var user strings.Builder
	fmt.Fprintf(&user, "Brand: %s\n", brand.Name)
	if brand.Description != "" {
		fmt.Fprintf(&user, "About the brand: %s\n", brand.Description)
	}
	if brand.DefaultTone != "" {
		fmt.Fprintf(&user, "Tone: %s\n", brand.DefaultTone)
	}
	fmt.Fprintf(&user, "Theme: %s\n", bucket.Name)
	if bucket.Description != "" {
		fmt.Fprintf(&user, "Theme details: %s\n", bucket.Description)
	}
	user.WriteString("Write today's post.")

	return []transfer.ChatMessage{
		{Role: transfer.RoleSystem, Content: sys.String()},
		{Role: transfer.RoleUser, Content: user.String()},
	}
}

// ParseCaptionReply reads a JSON caption object, tolerating code fences and
// surrounding prose. Anything unparseable becomes the caption itself.
func ParseCaptionReply(reply string) *CaptionDraft {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed struct {
		Caption       string   `json:"caption"`
		Hashtags      []string `json:"hashtags"`
		PinnedComment string   `json:"pinned_comment"`
	}

	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err == nil && strings.TrimSpace(parsed.Caption) != "" {
			return &CaptionDraft{
				Caption:       strings.TrimSpace(parsed.Caption),
				Hashtags:      NormalizeHashtags(parsed.Hashtags),
				PinnedComment: strings.TrimSpace(parsed.PinnedComment),
			}
		}
	}

	return &CaptionDraft{Caption: text, Hashtags: []string{}}
}

func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(t), "")
		t = strings.TrimLeft(t, "#")
		if t == "" {
			continue
		}
		tag := "#" + t
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}
