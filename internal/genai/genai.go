// Package genai provides the text-generation collaborator backed by the
// OpenAI API.
//
// Every method degrades to a fixed fallback string on failure; a generation
// failure is never fatal to the caller.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Fallback texts returned when generation fails. The diagnosis fallback
// lists red-flag symptoms because the reply substitutes for medical triage.
const (
	FallbackDiagnosis = "I couldn't analyze your symptoms right now. Please seek medical care urgently if you have any of these red-flag symptoms: chest pain, difficulty breathing, sudden severe headache, confusion, uncontrolled bleeding, or a high fever that won't come down."
	FallbackAnalysis  = "I couldn't generate your health analysis right now. Please try again later."
	FallbackTips      = "I couldn't fetch period tips right now. Staying hydrated, light exercise and a warm compress usually help with cramps."
	FallbackAnswer    = "I couldn't answer that right now. Please try again in a moment."
)

// completionService is the minimal chat-completion surface used by Client,
// satisfied by openai's ChatCompletionService and by test doubles.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key explicitly.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat  completionService
	model openai.ChatModel
}

// NewClient initializes a GenAI client, falling back to the OPENAI_API_KEY
// environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client created", "model", cfg.Model)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model}, nil
}

// complete runs one system+user chat completion.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateDiagnosis produces a non-prescriptive symptom analysis.
func (c *Client) GenerateDiagnosis(ctx context.Context, identity, symptoms string) (string, error) {
	slog.Debug("GenAI GenerateDiagnosis", "identity", identity, "symptoms_length", len(symptoms))
	return c.complete(ctx,
		"You are a cautious health assistant. Given the user's symptoms, list possible common causes, simple self-care advice, and when to see a doctor. Never give a definitive diagnosis or prescribe medication. Keep it under 200 words.",
		symptoms)
}

// GenerateHealthAnalysis summarizes the user's stored profile and latest
// assessment into plain-language guidance.
func (c *Client) GenerateHealthAnalysis(ctx context.Context, identity, summary string) (string, error) {
	slog.Debug("GenAI GenerateHealthAnalysis", "identity", identity)
	return c.complete(ctx,
		"You are a health coach. Summarize the user's health data in plain language and give two or three practical suggestions. Keep it under 150 words.",
		summary)
}

// GeneratePeriodTips produces general menstrual wellness tips.
func (c *Client) GeneratePeriodTips(ctx context.Context, identity string) (string, error) {
	slog.Debug("GenAI GeneratePeriodTips", "identity", identity)
	return c.complete(ctx,
		"You are a health assistant. Give five short, practical menstrual wellness tips. Keep it under 120 words.",
		"Share period wellness tips.")
}

// AnswerGeneralQuestion answers a free-text health question.
func (c *Client) AnswerGeneralQuestion(ctx context.Context, identity, question string) (string, error) {
	slog.Debug("GenAI AnswerGeneralQuestion", "identity", identity, "question_length", len(question))
	return c.complete(ctx,
		"You are a friendly health assistant. Answer the user's health question helpfully and concisely. Recommend seeing a doctor for anything serious. Keep it under 150 words.",
		question)
}
