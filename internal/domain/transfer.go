package domain

// ============================================================
// Transfers
// ============================================================

// TransferIntent is a validated, ready-to-submit transfer. It is built per
// user submission and never persisted. IdempotencyKey is fresh per attempt
// so a retried submission is not double-applied server-side.
type TransferIntent struct {
	SourceAccountID  int32
	TargetAccountID  int32
	AmountMinorUnits int64
	IdempotencyKey   string
}

// TransferRequest is the wire payload for POST /payment/transfer.
// AppID carries the intent's idempotency key; Amount is minor units.
type TransferRequest struct {
	SourceAccountID int32  `json:"sourceAccountId"`
	TargetAccountID int32  `json:"targetAccountId"`
	AppID           string `json:"appId"`
	Amount          int64  `json:"amount"`
}
