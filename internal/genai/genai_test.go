package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type stubCompletions struct {
	lastParams openai.ChatCompletionNewParams
	reply      string
	err        error
}

func (s *stubCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

func newTestClient(stub *stubCompletions) *Client {
	return &Client{chat: stub, model: openai.ChatModelGPT4oMini}
}

func TestGenerateDiagnosisReturnsCompletion(t *testing.T) {
	stub := &stubCompletions{reply: "rest and fluids"}
	c := newTestClient(stub)

	got, err := c.GenerateDiagnosis(context.Background(), "15551234567", "sore throat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "rest and fluids" {
		t.Errorf("expected completion content, got %q", got)
	}
	if stub.lastParams.Model != openai.ChatModelGPT4oMini {
		t.Errorf("unexpected model: %v", stub.lastParams.Model)
	}
	if len(stub.lastParams.Messages) != 2 {
		t.Errorf("expected system+user messages, got %d", len(stub.lastParams.Messages))
	}
}

func TestCompletionErrorPropagates(t *testing.T) {
	stub := &stubCompletions{err: errors.New("rate limited")}
	c := newTestClient(stub)

	if _, err := c.AnswerGeneralQuestion(context.Background(), "15551234567", "is coffee bad?"); err == nil {
		t.Error("expected error from failed completion")
	}
}

type emptyCompletions struct{}

func (emptyCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	return &openai.ChatCompletion{}, nil
}

func TestEmptyChoicesIsError(t *testing.T) {
	c := &Client{chat: emptyCompletions{}, model: openai.ChatModelGPT4oMini}

	if _, err := c.GeneratePeriodTips(context.Background(), "15551234567"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without an API key")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("unexpected error with explicit key: %v", err)
	}
}
