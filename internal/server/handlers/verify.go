package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/engine"
	apperrors "github.com/bandradar/bandradar/internal/errors"
)

// maxBatchSize bounds a single verification call.
const maxBatchSize = 25

// VerifyHandler serves POST /api/v1/verify.
type VerifyHandler struct {
	Verifier *engine.Verifier
}

// VerifyRequest is the JSON request body.
type VerifyRequest struct {
	Names   []NameEntry          `json:"names"`
	Options *core.RequestOptions `json:"options,omitempty"`
}

// NameEntry is one candidate name in a request.
type NameEntry struct {
	Name string        `json:"name"`
	Type core.NameType `json:"type"`
}

// VerifyResponse is the JSON response body.
type VerifyResponse struct {
	Results []*core.VerificationResult `json:"results"`
}

// Handle validates the request and runs the verification batch.
func (h *VerifyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var body VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apperrors.RespondWithEnvelope(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body is not valid JSON"))
		return
	}

	if len(body.Names) == 0 {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewInvalidInputError("at least one name is required"))
		return
	}
	if len(body.Names) > maxBatchSize {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewInvalidInputError("too many names in one request (max 25)"))
		return
	}

	options := core.DefaultRequestOptions()
	if body.Options != nil {
		options = *body.Options
	}

	requests := make([]core.NameRequest, len(body.Names))
	for i, entry := range body.Names {
		nameType := entry.Type
		if nameType == "" {
			nameType = core.NameTypeBand
		}
		requests[i] = core.NameRequest{
			Name:    entry.Name,
			Type:    nameType,
			Options: options,
		}
	}

	results, err := h.Verifier.VerifyNames(r.Context(), requests)
	if err != nil {
		if verr, ok := err.(*core.VerifyError); ok && verr.Code == core.ErrInvalidInput {
			apperrors.RespondWithEnvelope(w, r, apperrors.NewInvalidInputError(verr.Message))
			return
		}
		apperrors.RespondWithEnvelope(w, r, apperrors.WrapInternal(r.Context(), err, "verification failed"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(VerifyResponse{Results: results})
}
