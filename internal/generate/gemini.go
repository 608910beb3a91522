package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// Defaults for the Gemini backend.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.4
)

const appSystemPrompt = `You are an expert web developer building small interactive web apps.
Always return ONE complete, self-contained HTML file: all CSS in a <style>
tag, all JavaScript in a <script> tag, no external files except CDN
links. The app must work when opened directly in a browser. Respond with
the full file inside a single ` + "```html" + ` fenced block and nothing else.`

const auditSystemPrompt = `You are an ethics and accessibility reviewer for web apps. Review the
provided HTML app for dark patterns, manipulative design, accessibility
failures and privacy issues. Reply with a short plain-text report. If
the app is clean, say so in one sentence.`

// Gemini is the genai-backed Generator.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// GeminiConfig configures the Gemini backend. APIKey is required;
// zero values elsewhere fall back to the package defaults.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temp := cfg.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	return &Gemini{client: client, model: model, temperature: temp, logger: logger}, nil
}

// GenerateApp implements Generator.
func (g *Gemini) GenerateApp(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	var b strings.Builder
	if req.CurrentCode != "" {
		b.WriteString("Here is the current version of the app:\n\n```html\n")
		b.WriteString(req.CurrentCode)
		b.WriteString("\n```\n\nModify it as follows: ")
	}
	b.WriteString(req.Prompt)

	parts := []*genai.Part{genai.NewPartFromText(b.String())}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(appSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate app: %w", err)
	}

	raw := resp.Text()
	g.logger.Debug("app generated", "model", g.model, "response_len", len(raw))
	return ExtractHTML(raw), nil
}

// AuditEthics implements Generator.
func (g *Gemini) AuditEthics(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrNoCode
	}

	contents := []*genai.Content{
		genai.NewContentFromText("```html\n"+code+"\n```", genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(auditSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("audit ethics: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
