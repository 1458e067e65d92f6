package postgres

import (
	"database/sql"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("get: %w", sql.ErrNoRows)) {
		t.Fatalf("expected true for wrapped sql.ErrNoRows")
	}
	if isNotFound(fakeErr("pq: relation submissions does not exist")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestJSONBParam(t *testing.T) {
	got, err := jsonbParam([]string{"a"})
	if err != nil {
		t.Fatalf("jsonbParam error: %v", err)
	}
	text, ok := got.(string)
	if !ok || text != `["a"]` {
		t.Fatalf("expected text jsonb, got=%#v", got)
	}
}

func TestNullConversions(t *testing.T) {
	t.Run("null values map to nil", func(t *testing.T) {
		if nullInt64Ptr(sql.NullInt64{}) != nil || nullStringPtr(sql.NullString{}) != nil || nullTimePtr(sql.NullTime{}) != nil {
			t.Fatalf("expected nil pointers for null values")
		}
	})

	t.Run("round trips valid values", func(t *testing.T) {
		value := int64(4000)
		if got := nullInt64Ptr(int64PtrToNull(&value)); got == nil || *got != 4000 {
			t.Fatalf("expected 4000, got=%v", got)
		}
		currency := "USD"
		if got := nullStringPtr(stringPtrToNull(&currency)); got == nil || *got != "USD" {
			t.Fatalf("expected USD, got=%v", got)
		}
	})
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
