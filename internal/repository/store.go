package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the connection pool with transaction scoping. Settlement's
// triple-write (sender debit, receiver credit, status flip) always runs
// through RunInTx so it is all-or-nothing.
type Store struct {
	db   *pgxpool.Pool
	repo *Repository
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:   db,
		repo: NewRepository(db),
	}
}

// Repo returns the non-transactional repository.
func (s *Store) Repo() *Repository {
	return s.repo
}

// RunInTx executes fn within a database transaction. The transaction is
// rolled back when fn returns an error.
func (s *Store) RunInTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.repo.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
