package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

// ErrUnknownAction is returned for callback data no registered action understands.
var ErrUnknownAction = errors.New("unknown action")

// Dispatcher routes notification button presses to their actions
type Dispatcher struct {
	mu      sync.RWMutex
	logger  *logrus.Logger
	actions map[string]Action
}

func NewDispatcher(logger *logrus.Logger, actions ...Action) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	d := &Dispatcher{
		logger:  logger,
		actions: make(map[string]Action),
	}
	for _, a := range actions {
		d.Register(a)
	}
	return d
}

// Register adds or replaces the action for its name.
func (d *Dispatcher) Register(a Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions[a.Name()] = a
}

// Handle decodes cb.Data as "<verb>:<argument>" and runs the matching action.
func (d *Dispatcher) Handle(ctx context.Context, cb Callback) (Result, error) {
	verb, _, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, cb.Data)
	}

	d.mu.RLock()
	action, ok := d.actions[verb]
	d.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, verb)
	}

	log := d.logger.WithFields(logrus.Fields{
		"action":      verb,
		"operator_id": cb.OperatorID,
		"message_id":  cb.MessageID,
	})

	res, err := action.Execute(ctx, cb)
	if err != nil {
		log.WithError(err).Warn("Action failed")
		return Result{}, err
	}
	log.Debug("Action handled")
	return res, nil
}

// argument returns the part of the callback data after the verb.
func argument(cb Callback) string {
	_, arg, _ := strings.Cut(cb.Data, ":")
	return strings.TrimSpace(arg)
}

// ApproveAction drafts the item named in the callback.
type ApproveAction struct {
	approver ItemApprover
}

func NewApproveAction(approver ItemApprover) *ApproveAction {
	return &ApproveAction{approver: approver}
}

func (a *ApproveAction) Name() string { return pipeline.ActionApprove }

func (a *ApproveAction) Execute(ctx context.Context, cb Callback) (Result, error) {
	itemID := argument(cb)
	if itemID == "" {
		return Result{}, errors.New("approve action has no item id")
	}
	ref, err := a.approver.Approve(ctx, cb.OperatorID, itemID)
	if err != nil {
		return Result{}, err
	}
	return Result{Notice: "Draft created", DraftRef: ref}, nil
}

// PageAction moves a notification to another page in place.
type PageAction struct {
	pages PageShower
}

func NewPageAction(pages PageShower) *PageAction {
	return &PageAction{pages: pages}
}

func (a *PageAction) Name() string { return pipeline.ActionPage }

func (a *PageAction) Execute(ctx context.Context, cb Callback) (Result, error) {
	page, err := strconv.Atoi(argument(cb))
	if err != nil {
		return Result{}, fmt.Errorf("invalid page in %q: %w", cb.Data, err)
	}
	rendered, err := a.pages.ShowPage(ctx, cb.OperatorID, cb.MessageID, page)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Notice: fmt.Sprintf("Page %d/%d", rendered.Page, rendered.TotalPages),
		Page:   &rendered,
	}, nil
}
