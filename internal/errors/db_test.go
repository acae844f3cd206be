package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError(t *testing.T) {
	plain := errors.New("plain")
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "sql no rows", err: fmt.Errorf("get: %w", sql.ErrNoRows), wantCode: ErrCodeNotFound},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
		{name: "connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, wantCode: ErrCodeUnavailable},
		{name: "admin shutdown", err: &pgconn.PgError{Code: pgerrcode.AdminShutdown}, wantCode: ErrCodeUnavailable},
		{name: "too many connections", err: &pgconn.PgError{Code: pgerrcode.TooManyConnections}, wantCode: ErrCodeUnavailable},
		{name: "serialization", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, wantCode: ErrCodeUnavailable},
		{name: "query canceled", err: &pgconn.PgError{Code: pgerrcode.QueryCanceled}, wantCode: ErrCodeTimeout},
		{
			name:      "not null",
			err:       &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "expires_at"},
			wantCode:  ErrCodeValidation,
			wantField: "expires_at",
		},
		{name: "undefined table", err: &pgconn.PgError{Code: pgerrcode.UndefinedTable}, wantCode: ErrCodeInternal},
		{name: "other pg error", err: &pgconn.PgError{Code: pgerrcode.DiskFull}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(fmt.Errorf("wrapped: %w", tt.err))
			if code := GetCode(got); code != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q", code, tt.wantCode)
			}
			if field := GetField(got); field != tt.wantField {
				t.Errorf("GetField() = %q, want %q", field, tt.wantField)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("mapped error lost its cause: %v", got)
			}
		})
	}

	if MapDBError(nil) != nil {
		t.Error("MapDBError(nil) should be nil")
	}
	if got := MapDBError(plain); got != plain {
		t.Errorf("non-database error changed: %v", got)
	}
}

func TestMapDBError_DatabaseDetailStaysOutOfUserMessage(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (id)=(s1) already exists."})
	if msg := UserMessage(err); msg != "Something went wrong. Please try again." {
		t.Errorf("UserMessage() = %q", msg)
	}
}
