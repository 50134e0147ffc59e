package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestAsBusinessError(t *testing.T) {
	cases := []struct {
		name     string
		in       error
		expected *BusinessError
	}{
		{"business error", ErrForbidden, ErrForbidden},
		{"wrapped business error", fmt.Errorf("load: %w", ErrInUse), ErrInUse},
		{"duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), ErrDuplicated},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"raw mysql duplicate", fmt.Errorf("exec: %w", &mysqlDriver.MySQLError{Number: 1062}), ErrDuplicated},
		{"raw mysql referenced row", &mysqlDriver.MySQLError{Number: 1451}, ErrInUse},
		{"raw mysql other", &mysqlDriver.MySQLError{Number: 1205}, ErrInternal},
		{"unknown", errors.New("dial tcp: connection refused"), ErrInternal},
	}
	for _, tc := range cases {
		got := AsBusinessError(tc.in)
		if got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
	if AsBusinessError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestNewBadRequestKeepsCode(t *testing.T) {
	err := NewBadRequest("name is required")
	if err.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", err.Code)
	}
	if IsBusinessError(err, ErrBadRequest) {
		t.Fatalf("specific message should not equal the generic badRequest")
	}
}
