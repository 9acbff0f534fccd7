package insightd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/insightmap/insightmap/internal/model"
)

// OpenAIGenerator produces insights with OpenAI's Chat Completions API. Each
// generated insight cites quotes by index from the numbered corpus in the
// prompt, so evidence always points back at real research data.
type OpenAIGenerator struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIGenerator creates an OpenAI-backed generator
func NewOpenAIGenerator(cfg model.LLMConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name
func (g *OpenAIGenerator) Name() string { return "openai" }

// aiInsight is the JSON shape the model is asked to emit
type aiInsight struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Severity int    `json:"severity"`
	Quotes   []int  `json:"quotes"` // Indexes into the prompt corpus
}

// GenerateInsights asks the model for insights over the dataset's corpus
func (g *OpenAIGenerator) GenerateInsights(ctx context.Context, data *model.CombinedDataset) ([]model.GeneratedInsight, error) {
	corpus := buildCorpus(data)
	if len(corpus) == 0 {
		return nil, fmt.Errorf("dataset %s has no analyzable content", data.Name)
	}

	modelName := g.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := g.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := time.Duration(g.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract discrete customer-research insights. Respond with a JSON array only, no prose.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildGenerationPrompt(data, corpus),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)
	var parsed []aiInsight
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	var out []model.GeneratedInsight
	for _, ai := range parsed {
		if ai.Title == "" {
			continue
		}
		severity := ai.Severity
		if severity < 1 {
			severity = 1
		}
		if severity > 5 {
			severity = 5
		}

		var evidence []model.EvidenceItem
		for _, idx := range ai.Quotes {
			if idx < 0 || idx >= len(corpus) {
				continue // Hallucinated index: drop the citation, keep the insight
			}
			evidence = append(evidence, corpus[idx])
		}
		if len(evidence) == 0 {
			continue // An insight without any real evidence is worthless
		}

		out = append(out, model.GeneratedInsight{
			TempID:           uuid.New().String(),
			Title:            ai.Title,
			Summary:          ai.Summary,
			Severity:         severity,
			Evidence:         evidence,
			GenerationMethod: model.MethodAI,
		})
	}
	return out, nil
}

// buildCorpus numbers every citable item: highlights first, then responses
// that carry a comment
func buildCorpus(data *model.CombinedDataset) []model.EvidenceItem {
	var corpus []model.EvidenceItem
	for _, h := range data.Highlights {
		corpus = append(corpus, model.EvidenceItem{
			ID:     uuid.New().String(),
			Source: data.Name,
			Type:   model.ArtifactInterview,
			Text:   h.Quote,
		})
	}
	for _, r := range data.Responses {
		if r.Comment == "" {
			continue
		}
		item := model.EvidenceItem{
			ID:     uuid.New().String(),
			Source: data.Name,
			Type:   data.PrimaryType,
			Text:   r.Comment,
		}
		if r.Score != nil {
			v := float64(*r.Score)
			item.Value = &v
			item.Unit = string(data.PrimaryType)
		}
		corpus = append(corpus, item)
	}
	return corpus
}

// buildGenerationPrompt lays out the numbered corpus and the required schema
func buildGenerationPrompt(data *model.CombinedDataset, corpus []model.EvidenceItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research dataset: %s\n\nNumbered quotes:\n", data.Name)
	for i, item := range corpus {
		if item.Value != nil {
			fmt.Fprintf(&b, "%d. [score %.0f] %s\n", i, *item.Value, item.Text)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i, item.Text)
		}
	}
	b.WriteString(`
Extract 3-8 distinct insights. Each insight must cite at least one quote by
its number. Severity is 1 (minor) to 5 (critical). Respond with JSON only:
[{"title": "...", "summary": "...", "severity": 3, "quotes": [0, 4]}]`)
	return b.String()
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
