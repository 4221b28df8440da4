package pushstub

import (
	"fmt"
	"sync"
	"time"

	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/push"
)

type Delivered struct {
	MessageID      string       `json:"message_id"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
	Message        push.Message `json:"message"`
	ReceivedAt     time.Time    `json:"received_at"`
}

// Storage keeps delivered pushes in memory and carries the failure knobs
// used by local runs and tests.
type Storage struct {
	mu            sync.Mutex
	delivered     []Delivered
	byKey         map[string]string
	invalidTokens map[string]bool
	failNext      int
	seq           int
}

func NewStorage() *Storage {
	return &Storage{
		byKey:         make(map[string]string),
		invalidTokens: make(map[string]bool),
	}
}

func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = nil
	s.byKey = make(map[string]string)
	s.invalidTokens = make(map[string]bool)
	s.failNext = 0
}

func (s *Storage) InvalidateToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidTokens[token] = true
}

// FailNext makes the next n deliveries answer 503.
func (s *Storage) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

type deliverResult int

const (
	deliverAccepted deliverResult = iota
	deliverReplayed
	deliverInvalidToken
	deliverUnavailable
)

func (s *Storage) deliver(key string, msg push.Message) (string, deliverResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext > 0 {
		s.failNext--
		return "", deliverUnavailable
	}
	if s.invalidTokens[msg.Token] {
		return "", deliverInvalidToken
	}
	if key != "" {
		if id, ok := s.byKey[key]; ok {
			return id, deliverReplayed
		}
	}

	s.seq++
	id := fmt.Sprintf("msg-%d", s.seq)
	if key != "" {
		s.byKey[key] = id
	}
	s.delivered = append(s.delivered, Delivered{
		MessageID:      id,
		IdempotencyKey: key,
		Message:        msg,
		ReceivedAt:     time.Now().UTC(),
	})
	return id, deliverAccepted
}

func (s *Storage) Delivered() []Delivered {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Delivered(nil), s.delivered...)
}
