package actions

import (
	"context"

	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

// Action is a button press decoded from a notification
type Action interface {
	// Name returns the verb the action was encoded with
	Name() string
	// Execute applies the action on behalf of the operator who pressed it
	Execute(ctx context.Context, cb Callback) (Result, error)
}

// Callback is what a chat front end receives when an operator presses a button.
type Callback struct {
	OperatorID string
	MessageID  string
	Data       string
}

// Result tells the front end how to answer the press.
type Result struct {
	// Notice is a short confirmation shown to the operator.
	Notice string
	// DraftRef is set when an approval produced a draft.
	DraftRef string
	// Page is set when the message was re-rendered.
	Page *pipeline.RenderedPage
}

// PageShower re-renders an existing notification.
type PageShower interface {
	ShowPage(ctx context.Context, operatorID, messageID string, page int) (pipeline.RenderedPage, error)
}

// ItemApprover drafts content for an item owned by the operator.
type ItemApprover interface {
	Approve(ctx context.Context, operatorID, itemID string) (string, error)
}
