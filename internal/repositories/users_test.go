package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
)

func TestReplacePasswordRevokesSessionsInOneTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("user-1", "new-hash", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE user_id`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	repo := NewPostgresUserRepository(mock)
	if err := repo.ReplacePassword(context.Background(), "user-1", "new-hash", at); err != nil {
		t.Fatalf("replace password: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplacePasswordRollsBackWhenRevokeFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("user-1", "new-hash", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE user_id`).
		WithArgs("user-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewPostgresUserRepository(mock)
	err = repo.ReplacePassword(context.Background(), "user-1", "new-hash", at)
	if err == nil {
		t.Fatal("expected revoke failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplacePasswordMissingUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("missing", "hash", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	repo := NewPostgresUserRepository(mock)
	if err := repo.ReplacePassword(context.Background(), "missing", "hash", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
