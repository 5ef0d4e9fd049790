// Package messaging provides a mock Service for tests.
package messaging

import (
	"context"
	"sync"

	"github.com/carebridge/healthmate/internal/models"
)

// MockService implements Service and records every sent message. Use
// InjectResponse to simulate inbound traffic.
type MockService struct {
	mu        sync.Mutex
	sent      []models.Response // reuses Response as a (to, body) pair
	sendErr   error
	receipts  chan models.Receipt
	responses chan models.Response
}

// NewMockService creates a MockService.
func NewMockService() *MockService {
	return &MockService{
		receipts:  make(chan models.Receipt, DefaultChannelBufferSize),
		responses: make(chan models.Response, DefaultChannelBufferSize),
	}
}

// FailSends makes subsequent SendMessage calls return err.
func (m *MockService) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	return recipient, nil
}

func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, models.Response{From: to, Body: body})
	return nil
}

func (m *MockService) Start(ctx context.Context) error { return nil }
func (m *MockService) Stop() error                     { return nil }

func (m *MockService) Receipts() <-chan models.Receipt   { return m.receipts }
func (m *MockService) Responses() <-chan models.Response { return m.responses }

// InjectResponse feeds an inbound message into the Responses channel.
func (m *MockService) InjectResponse(r models.Response) {
	m.responses <- r
}

// Sent returns every (recipient, body) pair sent so far.
func (m *MockService) Sent() []models.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Response, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recent sent message, or false when none.
func (m *MockService) LastSent() (models.Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return models.Response{}, false
	}
	return m.sent[len(m.sent)-1], true
}
