package whatsapp

import (
	"context"
	"sync"
)

type SentMessage struct {
	Phone string
	Text  string
}

type StubClient struct {
	mu   sync.Mutex
	Sent []SentMessage
	Err  error
}

func (s *StubClient) SendText(ctx context.Context, phone string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, SentMessage{Phone: phone, Text: text})
	return nil
}

func (s *StubClient) Messages() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.Sent...)
}
