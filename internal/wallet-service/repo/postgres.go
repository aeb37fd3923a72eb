package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// Postgres implementa as operações de carteira. Todo fluxo de dinheiro passa
// por transação com lock pessimista na linha da carteira e deixa rastro no
// wallet_ledger; reserve/commit/refund são idempotentes por external_ref.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// withTx executa fn dentro de uma transação, com rollback em erro
func (p *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// lockWallet carrega e trava a carteira do usuário (SELECT ... FOR UPDATE)
func lockWallet(ctx context.Context, tx *sql.Tx, userID string) (walletID string, balance int64, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`,
		userID).Scan(&walletID, &balance)
	return walletID, balance, err
}

func ledger(ctx context.Context, tx *sql.Tx, walletID, op string, amount int64, desc string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description)
		 VALUES($1,$2,$3,$4)`, walletID, op, amount, desc)
	return err
}

// GetOrCreateWallet retorna id e saldo da carteira do usuário, criando-a
// zerada na primeira consulta
func (p *Postgres) GetOrCreateWallet(ctx context.Context, userID string) (walletID string, balance int64, err error) {
	err = p.withTx(ctx, func(tx *sql.Tx) error {
		serr := tx.QueryRowContext(ctx,
			`SELECT id, balance_cents FROM wallets WHERE user_id=$1`,
			userID).Scan(&walletID, &balance)
		if serr == sql.ErrNoRows {
			walletID = uuid.NewString()
			balance = 0
			_, serr = tx.ExecContext(ctx,
				`INSERT INTO wallets(id, user_id, balance_cents, version) VALUES($1,$2,0,1)`,
				walletID, userID)
		}
		return serr
	})
	return walletID, balance, err
}

// Deposit credita a carteira e registra o crédito no ledger
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	err = p.withTx(ctx, func(tx *sql.Tx) error {
		id, bal, lerr := lockWallet(ctx, tx, userID)
		if lerr != nil {
			return lerr
		}
		if _, lerr = tx.ExecContext(ctx,
			`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
			amount, id); lerr != nil {
			return lerr
		}
		if lerr = ledger(ctx, tx, id, "CREDIT", amount, "deposit:"+externalRef); lerr != nil {
			return lerr
		}
		walletID = id
		newBalance = bal + amount
		return nil
	})
	return walletID, newBalance, err
}

// Reserve bloqueia saldo para uma aposta. Repetir o mesmo external_ref devolve
// a reserva existente em vez de debitar de novo.
func (p *Postgres) Reserve(ctx context.Context, userID string, amount int64, externalRef string) (reservationID string, err error) {
	err = p.withTx(ctx, func(tx *sql.Tx) error {
		walletID, balance, lerr := lockWallet(ctx, tx, userID)
		if lerr != nil {
			return lerr
		}

		var existing string
		lerr = tx.QueryRowContext(ctx,
			`SELECT id FROM wallet_reservations WHERE wallet_id=$1 AND external_ref=$2`,
			walletID, externalRef).Scan(&existing)
		if lerr == nil {
			reservationID = existing
			return nil
		}
		if lerr != sql.ErrNoRows {
			return lerr
		}

		if balance < amount {
			return ErrInsufficientFunds
		}

		if _, lerr = tx.ExecContext(ctx,
			`UPDATE wallets SET balance_cents = balance_cents - $1, version = version + 1 WHERE id=$2`,
			amount, walletID); lerr != nil {
			return lerr
		}

		reservationID = uuid.NewString()
		if _, lerr = tx.ExecContext(ctx,
			`INSERT INTO wallet_reservations(id, wallet_id, external_ref, amount_cents, status)
			 VALUES($1,$2,$3,$4,'PENDING')`,
			reservationID, walletID, externalRef, amount); lerr != nil {
			return lerr
		}
		return ledger(ctx, tx, walletID, "RESERVE", amount, "reserve:"+externalRef)
	})
	if err != nil {
		return "", err
	}
	return reservationID, nil
}

// lockReservation trava a reserva do par (usuário, external_ref)
func lockReservation(ctx context.Context, tx *sql.Tx, userID, externalRef string) (resID, walletID, status string, amount int64, err error) {
	err = tx.QueryRowContext(ctx, `
		SELECT wr.id, wr.wallet_id, wr.amount_cents, wr.status
		FROM wallet_reservations wr
		JOIN wallets w ON w.id = wr.wallet_id
		WHERE w.user_id=$1 AND wr.external_ref=$2
		FOR UPDATE`, userID, externalRef).Scan(&resID, &walletID, &amount, &status)
	return resID, walletID, status, amount, err
}

// Commit efetiva a reserva: o valor bloqueado vira débito definitivo.
// Chamar de novo depois de COMMITTED é no-op.
func (p *Postgres) Commit(ctx context.Context, userID, externalRef string) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		resID, walletID, status, amount, err := lockReservation(ctx, tx, userID, externalRef)
		if err != nil {
			return ErrNotFound
		}
		if status != "PENDING" {
			return nil
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE wallet_reservations SET status='COMMITTED' WHERE id=$1`, resID); err != nil {
			return err
		}
		return ledger(ctx, tx, walletID, "DEBIT", amount, "commit:"+externalRef)
	})
}

// Refund desfaz uma reserva PENDING e devolve o valor ao saldo.
// Reserva já COMMITTED ou REFUNDED não é tocada.
func (p *Postgres) Refund(ctx context.Context, userID, externalRef string) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		resID, walletID, status, amount, err := lockReservation(ctx, tx, userID, externalRef)
		if err != nil {
			return ErrNotFound
		}
		if status != "PENDING" {
			return nil
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`,
			amount, walletID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE wallet_reservations SET status='REFUNDED' WHERE id=$1`, resID); err != nil {
			return err
		}
		return ledger(ctx, tx, walletID, "REFUND", amount, "refund:"+externalRef)
	})
}
