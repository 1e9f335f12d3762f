package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

// Message is a notification as last rendered.
type Message struct {
	ID         string
	OperatorID string
	Page       pipeline.RenderedPage
	Edits      int
}

// DefaultMaxMessages is how many sent messages a LogNotifier keeps for paging.
const DefaultMaxMessages = 1000

// LogNotifier delivers pages to the log. It is meant for development: the newest
// maxMessages messages are kept in memory so a chat front end or a test can read back
// what an operator would have seen, and nothing survives a restart.
type LogNotifier struct {
	mu          sync.RWMutex
	logger      *logrus.Logger
	maxMessages int
	messages    map[string]*Message
	order       []string
}

func NewLogNotifier(logger *logrus.Logger, maxMessages int) *LogNotifier {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &LogNotifier{
		logger:      logger,
		maxMessages: maxMessages,
		messages:    make(map[string]*Message),
	}
}

var _ pipeline.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Send(ctx context.Context, operatorID string, page pipeline.RenderedPage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New().String()

	n.mu.Lock()
	n.messages[id] = &Message{ID: id, OperatorID: operatorID, Page: page}
	n.order = append(n.order, id)
	for len(n.order) > n.maxMessages {
		delete(n.messages, n.order[0])
		n.order = n.order[1:]
	}
	n.mu.Unlock()

	n.logger.WithFields(logrus.Fields{
		"operator_id": operatorID,
		"message_id":  id,
		"items":       page.TotalItems,
		"pages":       page.TotalPages,
		"actions":     actionSummary(page),
	}).Info(page.Text)

	return id, nil
}

func (n *LogNotifier) Edit(ctx context.Context, messageID string, page pipeline.RenderedPage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	msg, ok := n.messages[messageID]
	if ok {
		msg.Page = page
		msg.Edits++
	}
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: message %s not found", pipeline.ErrUnknownBatch, messageID)
	}

	n.logger.WithFields(logrus.Fields{
		"operator_id": msg.OperatorID,
		"message_id":  messageID,
		"page":        page.Page,
	}).Info(page.Text)

	return nil
}

// Message returns a copy of the message with the given id.
func (n *LogNotifier) Message(id string) (Message, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	msg, ok := n.messages[id]
	if !ok {
		return Message{}, false
	}
	return *msg, true
}

// Sent returns all messages in send order.
func (n *LogNotifier) Sent() []Message {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Message, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, *n.messages[id])
	}
	return out
}

func actionSummary(page pipeline.RenderedPage) string {
	var labels []string
	for _, row := range page.Actions {
		for _, a := range row {
			labels = append(labels, a.Label)
		}
	}
	return strings.Join(labels, " | ")
}
