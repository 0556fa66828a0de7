package domain

// ============================================================
// Accounts
// ============================================================

// Account is one bank account as reported by the gateway.
// Balance is a whole number of minor currency units (pence) —
// never fractional, so arithmetic on it is exact.
type Account struct {
	AccountID int32  `json:"accountId"`
	Name      string `json:"name"`
	UserID    int32  `json:"userId,omitempty"`
	Balance   int64  `json:"balance"`
	BankID    int32  `json:"bankId,omitempty"`
	BankName  string `json:"bankName,omitempty"`
}

// Bank is one entry of the bank directory.
type Bank struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// NewAccountRequest is the payload for creating an account via the gateway.
// SourceFundsAccountID and InitialBalance are optional: zero means the new
// account is opened empty.
type NewAccountRequest struct {
	Name                 string `json:"name"`
	SourceFundsAccountID int32  `json:"sourceFundsAccountId,omitempty"`
	InitialBalance       int64  `json:"initialBalance,omitempty"`
}
