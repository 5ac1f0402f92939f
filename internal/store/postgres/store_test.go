package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"qms/shift-service/internal/store"
)

func TestMapWriteError(t *testing.T) {
	if err := mapWriteError(&pgconn.PgError{Code: uniqueViolation}, nil); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := mapWriteError(&pgconn.PgError{Code: foreignKeyViolation}, nil); !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected in use, got %v", err)
	}
	if err := mapWriteError(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: foreignKeyViolation}), store.ErrServiceNotFound); !errors.Is(err, store.ErrServiceNotFound) {
		t.Fatalf("expected service not found, got %v", err)
	}
	plain := errors.New("boom")
	if err := mapWriteError(plain, nil); err != plain {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected dedupe result %v", got)
	}
}
