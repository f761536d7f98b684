package service

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ImageTemplateID  = "gradient-quote-v1"
	defaultTitle     = "Daily Insight"
	defaultSubtitle  = "Small steps, every day."
	imageFooter      = "postpilot"
	titleLineChars   = 22
	titleMaxLines    = 3
	svgContentType   = "image/svg+xml"
	defaultKeyPrefix = "post"
)

type ImageInput struct {
	Caption        string
	TitleOverride  string
	FilenamePrefix string
}

type ImageResult struct {
	ImageURL string `json:"image_url"`
	Template string `json:"template"`
}

type ImageService interface {
	Generate(ctx context.Context, in ImageInput) (*ImageResult, error)
}

type imageService struct {
	storage StorageService
	now     func() time.Time
}

func NewImageService(storage StorageService) ImageService {
	return &imageService{storage: storage, now: time.Now}
}

func (s *imageService) Generate(ctx context.Context, in ImageInput) (*ImageResult, error) {
	if strings.TrimSpace(in.Caption) == "" && strings.TrimSpace(in.TitleOverride) == "" {
		return nil, validationf("caption is required")
	}

	title, subtitle := SplitCaption(in.Caption, in.TitleOverride)
	doc := RenderSVG(title, subtitle)

	prefix := strings.TrimSpace(in.FilenamePrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	key := fmt.Sprintf("%s-%d.svg", prefix, s.now().UnixMilli())

	url, err := s.storage.Upload(ctx, key, []byte(doc), svgContentType)
	if err != nil {
		return nil, err
	}

	return &ImageResult{ImageURL: url, Template: ImageTemplateID}, nil
}

// SplitCaption derives a title and subtitle from the sentences of caption.
func SplitCaption(caption, override string) (string, string) {
	parts := strings.SplitN(caption, ".", 3)

	title := strings.TrimSpace(override)
	if title == "" {
		title = strings.TrimSpace(parts[0])
	}
	if title == "" {
		title = defaultTitle
	}

	subtitle := ""
	if len(parts) > 1 {
		subtitle = strings.TrimSpace(parts[1])
	}
	if subtitle == "" {
		subtitle = defaultSubtitle
	}

	return title, subtitle
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func wrapWords(s string, width, maxLines int) []string {
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = strings.TrimRight(lines[maxLines-1], " .,;:") + "…"
	}
	return lines
}

// RenderSVG lays out a 1080x1080 quote card. Text is escaped before it is
// embedded.
func RenderSVG(title, subtitle string) string {
	lines := wrapWords(title, titleLineChars, titleMaxLines)

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="1080" height="1080" viewBox="0 0 1080 1080">`)
	b.WriteString(`<defs><linearGradient id="bg" x1="0" y1="0" x2="1" y2="1">`)
	b.WriteString(`<stop offset="0%" stop-color="#1e3a8a"/><stop offset="100%" stop-color="#9333ea"/>`)
	b.WriteString(`</linearGradient></defs>`)
	b.WriteString(`<rect width="1080" height="1080" fill="url(#bg)"/>`)

	lineHeight := 84
	startY := 480 - (len(lines)-1)*lineHeight/2
	b.WriteString(`<text text-anchor="middle" font-family="Helvetica, Arial, sans-serif" font-size="72" font-weight="700" fill="#ffffff">`)
	for i, line := range lines {
		fmt.Fprintf(&b, `<tspan x="540" y="%d">%s</tspan>`, startY+i*lineHeight, svgEscaper.Replace(line))
	}
	b.WriteString(`</text>`)

	subtitleY := startY + (len(lines)-1)*lineHeight + 110
	fmt.Fprintf(&b, `<text x="540" y="%d" text-anchor="middle" font-family="Helvetica, Arial, sans-serif" font-size="40" fill="#e0e7ff">%s</text>`,
		subtitleY, svgEscaper.Replace(subtitle))

	fmt.Fprintf(&b, `<text x="540" y="1020" text-anchor="middle" font-family="Helvetica, Arial, sans-serif" font-size="28" fill="#c7d2fe" letter-spacing="4">%s</text>`, imageFooter)
	b.WriteString(`</svg>`)
	return b.String()
}
