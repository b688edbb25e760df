package offer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/offer-service/internal/scoring"
)

// Store persists offer records. Every user-facing read and write is scoped to
// the owning user; ListOpen and SaveEvaluation serve the rescore job.
type Store interface {
	List(ctx context.Context, userID string, status Status) ([]Record, error)
	ListOpen(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, userID, id string) (*Record, error)
	Create(ctx context.Context, r *Record) error
	// Update writes the user-editable fields. A nil r.Evaluation clears the
	// stored evaluation; a non-nil one leaves it untouched.
	Update(ctx context.Context, r *Record) error
	// UpdateStatus moves the offer from entry.From to entry.To and appends the
	// entry to its history. It returns ErrConflict when the stored status is no
	// longer entry.From.
	UpdateStatus(ctx context.Context, userID, id string, entry HistoryEntry) (*Record, error)
	SaveEvaluation(ctx context.Context, id string, e *Evaluation) error
}

// ─── PostgreSQL ──────────────────────────────────────────────────────────────

const schema = `
CREATE TABLE IF NOT EXISTS offers (
	id               UUID PRIMARY KEY,
	user_id          TEXT        NOT NULL,
	company          TEXT        NOT NULL DEFAULT '',
	role             TEXT        NOT NULL DEFAULT '',
	years_experience INT         NOT NULL DEFAULT 0,
	status           TEXT        NOT NULL DEFAULT 'RECEIVED',
	compensation     JSONB       NOT NULL,
	factors          JSONB       NOT NULL DEFAULT '{}',
	weights          JSONB,
	evaluation       JSONB,
	history_log      JSONB       NOT NULL DEFAULT '[]',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS offers_user_updated_idx ON offers (user_id, updated_at DESC);
CREATE INDEX IF NOT EXISTS offers_status_idx ON offers (status);
`

const selectColumns = `
	SELECT id::text, user_id, company, role, years_experience, status,
	       compensation, factors, weights, evaluation, history_log,
	       created_at, updated_at
	FROM offers`

// PostgresStore keeps offers in a single table with JSONB columns for the
// compensation sub-fields, factors, weights, evaluation and status history.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the offers table and its indexes when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure offers schema: %w", err)
	}
	return nil
}

// List returns the user's offers, newest first. An empty status returns all.
func (s *PostgresStore) List(ctx context.Context, userID string, status Status) ([]Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.pool.Query(ctx, selectColumns+` WHERE user_id = $1 AND status = $2 ORDER BY updated_at DESC`, userID, string(status))
	} else {
		rows, err = s.pool.Query(ctx, selectColumns+` WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("listOffers query: %w", err)
	}
	return collect(rows, "listOffers")
}

// ListOpen returns every non-terminal offer across users, oldest evaluation first.
func (s *PostgresStore) ListOpen(ctx context.Context) ([]Record, error) {
	open := OpenStatuses()
	names := make([]string, len(open))
	for i, st := range open {
		names[i] = string(st)
	}
	rows, err := s.pool.Query(ctx,
		selectColumns+` WHERE status = ANY($1) ORDER BY (evaluation->>'evaluatedAt') NULLS FIRST, created_at`,
		names)
	if err != nil {
		return nil, fmt.Errorf("listOpenOffers query: %w", err)
	}
	return collect(rows, "listOpenOffers")
}

func (s *PostgresStore) Get(ctx context.Context, userID, id string) (*Record, error) {
	r, err := scanRecord(s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getOffer: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Create(ctx context.Context, r *Record) error {
	c, err := encodeColumns(r)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO offers (id, user_id, company, role, years_experience, status,
		                     compensation, factors, weights, history_log)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9::jsonb, $10::jsonb)
		 RETURNING created_at, updated_at`,
		r.ID, r.UserID, r.Company, r.Role, r.YearsExperience, string(r.Status),
		c.offer, c.factors, c.weights, c.history,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("createOffer: %w", err)
	}
	return nil
}

// Update rewrites the user-editable fields. Status, history and evaluation are
// owned by UpdateStatus and SaveEvaluation.
func (s *PostgresStore) Update(ctx context.Context, r *Record) error {
	c, err := encodeColumns(r)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`UPDATE offers
		 SET company = $1, role = $2, years_experience = $3,
		     compensation = $4::jsonb, factors = $5::jsonb, weights = $6::jsonb,
		     evaluation = CASE WHEN $9 THEN NULL ELSE evaluation END,
		     updated_at = NOW()
		 WHERE id = $7 AND user_id = $8
		 RETURNING updated_at`,
		r.Company, r.Role, r.YearsExperience, c.offer, c.factors, c.weights, r.ID, r.UserID, r.Evaluation == nil,
	).Scan(&r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updateOffer: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, userID, id string, entry HistoryEntry) (*Record, error) {
	historyEntry, err := json.Marshal([]HistoryEntry{entry})
	if err != nil {
		return nil, fmt.Errorf("encode history entry: %w", err)
	}
	r, err := scanRecord(s.pool.QueryRow(ctx,
		`WITH upd AS (
		   UPDATE offers
		   SET status      = $1,
		       history_log = history_log || $2::jsonb,
		       updated_at  = NOW()
		   WHERE id = $3 AND user_id = $4 AND status = $5
		   RETURNING *
		 )
		 SELECT id::text, user_id, company, role, years_experience, status,
		        compensation, factors, weights, evaluation, history_log,
		        created_at, updated_at
		 FROM upd`,
		string(entry.To), historyEntry, id, userID, string(entry.From),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the offer is gone or someone moved it first.
		if _, getErr := s.Get(ctx, userID, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("updateOfferStatus: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, id string, e *Evaluation) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE offers SET evaluation = $1::jsonb, updated_at = NOW() WHERE id = $2`, b, id)
	if err != nil {
		return fmt.Errorf("saveEvaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Row mapping ─────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		r                                   Record
		status                              string
		offerJSON, factorsJSON, historyJSON []byte
		weightsJSON, evaluationJSON         []byte
		createdAt, updatedAt                time.Time
	)
	if err := row.Scan(
		&r.ID, &r.UserID, &r.Company, &r.Role, &r.YearsExperience, &status,
		&offerJSON, &factorsJSON, &weightsJSON, &evaluationJSON, &historyJSON,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = Status(status)
	r.CreatedAt, r.UpdatedAt = createdAt, updatedAt

	if err := json.Unmarshal(offerJSON, &r.Offer); err != nil {
		return nil, fmt.Errorf("decode compensation: %w", err)
	}
	if err := unmarshalOptional(factorsJSON, &r.Factors); err != nil {
		return nil, fmt.Errorf("decode factors: %w", err)
	}
	if len(weightsJSON) > 0 && string(weightsJSON) != "null" {
		r.Weights = &scoring.Weights{}
		if err := json.Unmarshal(weightsJSON, r.Weights); err != nil {
			return nil, fmt.Errorf("decode weights: %w", err)
		}
	}
	if len(evaluationJSON) > 0 && string(evaluationJSON) != "null" {
		r.Evaluation = &Evaluation{}
		if err := json.Unmarshal(evaluationJSON, r.Evaluation); err != nil {
			return nil, fmt.Errorf("decode evaluation: %w", err)
		}
	}
	if err := unmarshalOptional(historyJSON, &r.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if r.History == nil {
		r.History = []HistoryEntry{}
	}
	return &r, nil
}

func collect(rows pgx.Rows, op string) ([]Record, error) {
	defer rows.Close()
	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

type encodedColumns struct {
	offer, factors, weights, history []byte
}

func encodeColumns(r *Record) (encodedColumns, error) {
	var (
		c   encodedColumns
		err error
	)
	if c.offer, err = json.Marshal(r.Offer); err != nil {
		return c, fmt.Errorf("encode compensation: %w", err)
	}
	if c.factors, err = json.Marshal(r.Factors); err != nil {
		return c, fmt.Errorf("encode factors: %w", err)
	}
	if r.Weights != nil {
		if c.weights, err = json.Marshal(r.Weights); err != nil {
			return c, fmt.Errorf("encode weights: %w", err)
		}
	}
	history := r.History
	if history == nil {
		history = []HistoryEntry{}
	}
	if c.history, err = json.Marshal(history); err != nil {
		return c, fmt.Errorf("encode history: %w", err)
	}
	return c, nil
}

func unmarshalOptional(b []byte, v any) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, v)
}
