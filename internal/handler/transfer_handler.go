package handler

import (
	"encoding/json"
	"net/http"

	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/session"
	"github.com/larkin/bankview-go/internal/transfer"

	"go.uber.org/zap"
)

// transferRequest is the view layer's submission. Amount arrives as the
// raw user-entered string: the coordinator owns the conversion to minor
// units, so no caller ever pre-multiplies.
type transferRequest struct {
	SourceAccountID int32  `json:"sourceAccountId"`
	TargetAccountID int32  `json:"targetAccountId"`
	Amount          string `json:"amount"`
}

type transferResponse struct {
	Accepted         bool   `json:"accepted"`
	IdempotencyKey   string `json:"idempotencyKey"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
}

func transferHandler(coordinator *transfer.Coordinator, sess *session.AuthSession, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		intent, err := coordinator.Transfer(r.Context(), sess.Token(), req.SourceAccountID, req.TargetAccountID, req.Amount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, transferResponse{
			Accepted:         true,
			IdempotencyKey:   intent.IdempotencyKey,
			AmountMinorUnits: intent.AmountMinorUnits,
		})
	}
}

func syncMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSyncSnapshot())
	}
}
