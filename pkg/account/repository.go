package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrAccountNotFound = errors.New("account not found")

type Repository interface {
	StoreCalendar(ctx context.Context, acc Calendar) error
	GetCalendar(ctx context.Context, id string) (Calendar, error)
	GetAllCalendars(ctx context.Context) ([]Calendar, error)
	SetCalendarEnabled(ctx context.Context, id string, enabled bool) error
	DeleteCalendar(ctx context.Context, id string) error

	StoreMailbox(ctx context.Context, acc Mailbox) error
	GetAllMailboxes(ctx context.Context) ([]Mailbox, error)
	SetMailboxEnabled(ctx context.Context, id string, enabled bool) error
	DeleteMailbox(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StoreCalendar(ctx context.Context, acc Calendar) error {
	query := `INSERT INTO calendar_account (id, provider, email, display_name, access_token, refresh_token, server_url,
				username, password, enabled) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		acc.ID,
		string(acc.Provider),
		acc.Email,
		acc.DisplayName,
		acc.AccessToken,
		acc.RefreshToken,
		acc.ServerURL,
		acc.Username,
		acc.Password,
		acc.Enabled,
	)
	if err != nil {
		log.Errorf("failed to store calendar account: %v", err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) GetCalendar(ctx context.Context, id string) (Calendar, error) {
	query := `SELECT id, provider, email, display_name, access_token, refresh_token, server_url, username, password,
				enabled FROM calendar_account WHERE id = $1`
	var acc Calendar
	err := r.db.QueryRow(ctx, query, id).Scan(
		&acc.ID,
		&acc.Provider,
		&acc.Email,
		&acc.DisplayName,
		&acc.AccessToken,
		&acc.RefreshToken,
		&acc.ServerURL,
		&acc.Username,
		&acc.Password,
		&acc.Enabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Calendar{}, ErrAccountNotFound
	} else if err != nil {
		log.Errorf("failed to get calendar account %s: %v", id, err)
		return Calendar{}, err
	}
	return acc, nil
}

func (r *RepositoryImpl) GetAllCalendars(ctx context.Context) ([]Calendar, error) {
	query := `SELECT id, provider, email, display_name, access_token, refresh_token, server_url, username, password,
				enabled FROM calendar_account ORDER BY email`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Errorf("failed to list calendar accounts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var accounts []Calendar
	for rows.Next() {
		var acc Calendar
		if err := rows.Scan(
			&acc.ID,
			&acc.Provider,
			&acc.Email,
			&acc.DisplayName,
			&acc.AccessToken,
			&acc.RefreshToken,
			&acc.ServerURL,
			&acc.Username,
			&acc.Password,
			&acc.Enabled,
		); err != nil {
			return nil, fmt.Errorf("could not scan calendar account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *RepositoryImpl) SetCalendarEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE calendar_account SET enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		log.Errorf("failed to update calendar account %s: %v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteCalendar(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_account WHERE id = $1`, id)
	if err != nil {
		log.Errorf("failed to delete calendar account %s: %v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *RepositoryImpl) StoreMailbox(ctx context.Context, acc Mailbox) error {
	query := `INSERT INTO mailbox_account (id, email, protocol, host, port, username, password, use_tls, enabled)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		acc.ID,
		acc.Email,
		acc.Protocol,
		acc.Host,
		acc.Port,
		acc.Username,
		acc.Password,
		acc.TLS,
		acc.Enabled,
	)
	if err != nil {
		log.Errorf("failed to store mailbox account: %v", err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) GetAllMailboxes(ctx context.Context) ([]Mailbox, error) {
	query := `SELECT id, email, protocol, host, port, username, password, use_tls, enabled
				FROM mailbox_account ORDER BY email`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Errorf("failed to list mailbox accounts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var accounts []Mailbox
	for rows.Next() {
		var acc Mailbox
		if err := rows.Scan(
			&acc.ID,
			&acc.Email,
			&acc.Protocol,
			&acc.Host,
			&acc.Port,
			&acc.Username,
			&acc.Password,
			&acc.TLS,
			&acc.Enabled,
		); err != nil {
			return nil, fmt.Errorf("could not scan mailbox account row: %w", err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *RepositoryImpl) SetMailboxEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE mailbox_account SET enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		log.Errorf("failed to update mailbox account %s: %v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteMailbox(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM mailbox_account WHERE id = $1`, id)
	if err != nil {
		log.Errorf("failed to delete mailbox account %s: %v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
