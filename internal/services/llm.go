package services

import (
	"context"
	"strings"
	"time"

	"codeloom/internal/config"
	"codeloom/internal/utils"

	"github.com/juju/errors"
	openai "github.com/sashabaranov/go-openai"
)

const excerptPrompt = "You write short article excerpts for a developer community. " +
	"Reply with one or two plain sentences, at most 160 characters, in the language of the article. " +
	"No markdown, no quotes, no preamble."

// LLMService talks to any OpenAI compatible chat completion endpoint.
type LLMService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewLLMService returns a disabled service when no token is configured.
func NewLLMService(cfg config.LLMConfig) *LLMService {
	if cfg.Token == "" {
		return &LLMService{}
	}
	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &LLMService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: 20 * time.Second,
	}
}

func (s *LLMService) Enabled() bool {
	return s != nil && s.client != nil
}

// GenerateExcerpt asks the model for a short summary of an article.
func (s *LLMService) GenerateExcerpt(ctx context.Context, title, content string) (string, error) {
	if !s.Enabled() {
		return "", errors.NotSupportedf("excerpt generation")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: excerptPrompt},
			{Role: openai.ChatMessageRoleUser, Content: title + "\n\n" + utils.Truncate(utils.PlainText(content), 4000)},
		},
		MaxTokens:   120,
		Temperature: 0.3,
	})
	if err != nil {
		return "", errors.Annotate(err, "llm request")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}

	text := cleanExcerpt(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("llm returned an empty excerpt")
	}
	return text, nil
}

// cleanExcerpt strips labels and quotes models like to add.
func cleanExcerpt(s string) string {
	s = strings.TrimSpace(utils.PlainText(s))
	for _, label := range []string{"Excerpt:", "Summary:", "Resumo:"} {
		if len(s) >= len(label) && strings.EqualFold(s[:len(label)], label) {
			s = strings.TrimSpace(s[len(label):])
		}
	}
	s = strings.Trim(s, "\"'“”")
	return utils.Truncate(strings.TrimSpace(s), 300)
}

// fallbackExcerpt is the first 160 characters of the plain text.
func fallbackExcerpt(content string) string {
	return utils.Truncate(utils.PlainText(content), 160)
}
