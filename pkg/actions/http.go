package actions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/memory"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

type callbackRequest struct {
	OperatorID string `json:"operator_id"`
	MessageID  string `json:"message_id"`
	Data       string `json:"data"`
}

type callbackResponse struct {
	Notice   string `json:"notice,omitempty"`
	DraftRef string `json:"draft_ref,omitempty"`
	Page     int    `json:"page,omitempty"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewHTTPHandler exposes the dispatcher to a chat front end as a JSON POST endpoint.
func NewHTTPHandler(d *Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, callbackResponse{Error: "method not allowed"})
			return
		}

		var req callbackRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, callbackResponse{Error: "invalid request body"})
			return
		}
		if req.OperatorID == "" || req.Data == "" {
			writeJSON(w, http.StatusBadRequest, callbackResponse{Error: "operator_id and data are required"})
			return
		}

		res, err := d.Handle(r.Context(), Callback{
			OperatorID: req.OperatorID,
			MessageID:  req.MessageID,
			Data:       req.Data,
		})
		if err != nil {
			writeJSON(w, statusFor(err), callbackResponse{Error: err.Error()})
			return
		}

		out := callbackResponse{Notice: res.Notice, DraftRef: res.DraftRef}
		if res.Page != nil {
			out.Page = res.Page.Page
			out.Text = res.Page.Text
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, memory.ErrNotFound), errors.Is(err, pipeline.ErrUnknownBatch), errors.Is(err, pipeline.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body callbackResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
