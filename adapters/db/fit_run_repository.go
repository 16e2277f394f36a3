package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"
	"gonum.org/v1/gonum/mat"

	"orbitviz/domain/core"
	"orbitviz/domain/fit"
	"orbitviz/internal/errors"
	"orbitviz/ports"
)

// FitRunRepository implements ports.FitRunRepository on sqlx.
type FitRunRepository struct {
	db *sqlx.DB
}

// NewFitRunRepository creates a repository over an open, migrated database.
func NewFitRunRepository(db *sqlx.DB) *FitRunRepository {
	return &FitRunRepository{db: db}
}

var _ ports.FitRunRepository = (*FitRunRepository)(nil)

type runRow struct {
	ID        core.RunID     `db:"id"`
	Label     string         `db:"label"`
	CreatedAt time.Time      `db:"created_at"`
	Samples   sql.NullString `db:"samples"`
}

type paramRow struct {
	Name string `db:"name"`
	fit.Parameter
}

// Save stores r with its parameters and samples in one transaction.
func (r *FitRunRepository) Save(ctx context.Context, res *fit.Result) (core.RunID, error) {
	if err := res.Validate(); err != nil {
		return "", err
	}
	id := res.ID
	if core.ID(id).IsEmpty() {
		id = core.NewRunID()
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	samples, err := encodeSamples(res.Samples)
	if err != nil {
		return "", err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO fit_runs (id, label, created_at, samples)
		VALUES (?, ?, ?, ?)
	`), id, res.Label, created.UTC(), samples)
	if err != nil {
		return "", errors.DatabaseError("failed to insert fit run", err)
	}

	insertParam := tx.Rebind(`
		INSERT INTO fit_params (run_id, position, name, value, vary)
		VALUES (?, ?, ?, ?, ?)
	`)
	for pos, name := range res.Names {
		p := res.Params[name]
		if _, err := tx.ExecContext(ctx, insertParam, id, pos, name, p.Value, p.Vary); err != nil {
			return "", errors.DatabaseError("failed to insert parameter "+name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.DatabaseError("failed to commit fit run", err)
	}
	return id, nil
}

// Get loads a run by ID.
func (r *FitRunRepository) Get(ctx context.Context, id core.RunID) (*fit.Result, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT id, label, created_at, samples FROM fit_runs WHERE id = ?
	`), id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("fit run " + id.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load fit run", err)
	}

	var params []paramRow
	err = r.db.SelectContext(ctx, &params, r.db.Rebind(`
		SELECT name, value, vary FROM fit_params WHERE run_id = ? ORDER BY position
	`), id)
	if err != nil {
		return nil, errors.DatabaseError("failed to load parameters", err)
	}

	res := &fit.Result{
		ID:        row.ID,
		Label:     row.Label,
		CreatedAt: row.CreatedAt,
		Names:     make([]string, 0, len(params)),
		Params:    make(map[string]fit.Parameter, len(params)),
	}
	for _, p := range params {
		res.Names = append(res.Names, p.Name)
		res.Params[p.Name] = p.Parameter
	}
	if row.Samples.Valid {
		if res.Samples, err = decodeSamples(row.Samples.String); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// List returns up to limit runs, newest first. A limit of zero or less lists all.
func (r *FitRunRepository) List(ctx context.Context, limit int) ([]ports.FitRunSummary, error) {
	query := `
		SELECT r.id, r.label, r.created_at,
		       COUNT(p.name) AS param_count,
		       COALESCE(SUM(CASE WHEN p.vary THEN 1 ELSE 0 END), 0) AS free_count
		FROM fit_runs r
		LEFT JOIN fit_params p ON p.run_id = r.id
		GROUP BY r.id, r.label, r.created_at
		ORDER BY r.created_at DESC, r.id DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	runs := []ports.FitRunSummary{}
	if err := r.db.SelectContext(ctx, &runs, r.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list fit runs", err)
	}
	return runs, nil
}

// Delete removes a run and its parameters.
func (r *FitRunRepository) Delete(ctx context.Context, id core.RunID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM fit_params WHERE run_id = ?`), id); err != nil {
		return errors.DatabaseError("failed to delete parameters", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM fit_runs WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError("failed to delete fit run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("fit run " + id.String())
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit delete", err)
	}
	return nil
}

// Samples are stored as a JSON array of draws.
func encodeSamples(m *mat.Dense) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	rows, _ := m.Dims()
	draws := make([][]float64, rows)
	for i := range draws {
		draws[i] = mat.Row(nil, i, m)
	}
	b, err := json.Marshal(draws)
	if err != nil {
		return sql.NullString{}, errors.InvalidInput("samples are not storable: " + err.Error())
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeSamples(s string) (*mat.Dense, error) {
	var draws [][]float64
	if err := json.Unmarshal([]byte(s), &draws); err != nil {
		return nil, errors.DatabaseError("corrupt samples", err)
	}
	if len(draws) == 0 || len(draws[0]) == 0 {
		return nil, nil
	}
	cols := len(draws[0])
	m := mat.NewDense(len(draws), cols, nil)
	for i, d := range draws {
		if len(d) != cols {
			return nil, errors.DatabaseError("corrupt samples", stderrors.New("ragged sample rows"))
		}
		m.SetRow(i, d)
	}
	return m, nil
}
