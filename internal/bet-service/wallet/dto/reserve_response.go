package dto

type ReserveResponse struct {
	ReservationID string `json:"reservationId"`
	Status        string `json:"status"`
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}
