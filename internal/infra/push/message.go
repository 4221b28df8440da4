package push

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/KasumiMercury/primind-scan-reminder/internal/domain"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	MessagesPath         = "/v1/messages"
)

// Message is the JSON body accepted by the push gateway.
type Message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

type Receipt struct {
	MessageID string `json:"message_id"`
}

func NewMessage(n *domain.Notification) Message {
	return Message{
		Token: n.Token,
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data.Map(),
	}
}

// maxTaskLabel caps the readable part of a task ID.
const maxTaskLabel = 64

// taskID derives a Cloud Tasks task ID from an idempotency key. The hash
// keeps distinct keys distinct after the label is sanitized, and leads the
// ID so task names do not share a sequential prefix.
func taskID(idempotencyKey string) string {
	sum := sha256.Sum256([]byte(idempotencyKey))
	label := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, idempotencyKey)
	if len(label) > maxTaskLabel {
		label = label[:maxTaskLabel]
	}
	return hex.EncodeToString(sum[:]) + "-" + label
}
