package dto

type DepositRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"`
}

type ReserveRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

type CommitRequest struct {
	UserID      string `json:"userId"`
	ExternalRef string `json:"external_ref"`
}

type RefundRequest struct {
	UserID      string `json:"userId"`
	ExternalRef string `json:"external_ref"`
}
