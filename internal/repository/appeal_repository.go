package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

var (
	ErrAppealNotFound         = errors.New("appeal not found")
	ErrDonationAlreadyApplied = errors.New("donation already applied")
)

type AppealRepository interface {
	ListAppeals(ctx context.Context) ([]*domain.Appeal, error)
	GetAppeal(ctx context.Context, id string) (*domain.Appeal, error)
	// ApplyDonation adds raised amounts per appeal id exactly once per
	// donation id.
	ApplyDonation(ctx context.Context, donationID string, raised map[string]float64) error
}

type SQLiteAppealRepository struct {
	db *sql.DB
}

func NewAppealRepository(dbPath string) (*SQLiteAppealRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteAppealRepository{db: db}, nil
}

func (r *SQLiteAppealRepository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const appealColumns = `id, title, description, category, image_url, goal, raised, urgency, featured, location, created_at, end_at`

func (r *SQLiteAppealRepository) ListAppeals(ctx context.Context) ([]*domain.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals ORDER BY CAST(id AS INTEGER), id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query appeals: %w", err)
	}
	defer rows.Close()

	var appeals []*domain.Appeal
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		appeals = append(appeals, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return appeals, nil
}

func (r *SQLiteAppealRepository) GetAppeal(ctx context.Context, id string) (*domain.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE id = ?`

	a, err := scanAppeal(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppealNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLiteAppealRepository) ApplyDonation(ctx context.Context, donationID string, raised map[string]float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO applied_donations (donation_id, applied_at) VALUES (?, ?) ON CONFLICT (donation_id) DO NOTHING`,
		donationID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record donation %s: %w", donationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record donation %s: %w", donationID, err)
	}
	if n == 0 {
		return ErrDonationAlreadyApplied
	}

	for appealID, amount := range raised {
		res, err := tx.ExecContext(ctx, `UPDATE appeals SET raised = raised + ? WHERE id = ?`, amount, appealID)
		if err != nil {
			return fmt.Errorf("failed to update appeal %s: %w", appealID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("appeal %s: %w", appealID, ErrAppealNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit donation %s: %w", donationID, err)
	}
	return nil
}

func (r *SQLiteAppealRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppeal(s scanner) (*domain.Appeal, error) {
	var (
		a         domain.Appeal
		urgency   string
		featured  int
		createdAt string
		endAt     sql.NullString
	)
	err := s.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Category,
		&a.ImageURL,
		&a.Goal,
		&a.Raised,
		&urgency,
		&featured,
		&a.Location,
		&createdAt,
		&endAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan appeal: %w", err)
	}

	a.Urgency = domain.Urgency(urgency)
	a.Featured = featured != 0
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("appeal %s: bad created_at: %w", a.ID, err)
	}
	if endAt.Valid && endAt.String != "" {
		end, err := time.Parse(time.RFC3339, endAt.String)
		if err != nil {
			return nil, fmt.Errorf("appeal %s: bad end_at: %w", a.ID, err)
		}
		a.EndAt = &end
	}

	return &a, nil
}
