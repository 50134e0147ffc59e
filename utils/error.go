package utils

import (
	"errors"
	"net/http"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// BusinessError is a failure the caller is expected to act on. Code doubles
// as the HTTP status; Message is the stable key clients switch on.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

var (
	ErrBadRequest         = &BusinessError{Code: http.StatusBadRequest, Message: "badRequest"}
	ErrUnauthorized       = &BusinessError{Code: http.StatusUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &BusinessError{Code: http.StatusForbidden, Message: "forbidden"}
	ErrInvalidCredentials = &BusinessError{Code: http.StatusForbidden, Message: "invalidCredentials"}
	ErrNotFound           = &BusinessError{Code: http.StatusNotFound, Message: "notFound"}
	ErrDuplicated         = &BusinessError{Code: http.StatusConflict, Message: "duplicated"}
	ErrInUse              = &BusinessError{Code: http.StatusUnprocessableEntity, Message: "inUse"}
	ErrInternal           = &BusinessError{Code: http.StatusInternalServerError, Message: "internalError"}
)

// NewBadRequest keeps the 400 code but carries a specific message,
// e.g. a validation failure on one field.
func NewBadRequest(message string) *BusinessError {
	return &BusinessError{Code: http.StatusBadRequest, Message: message}
}

// AsBusinessError maps any error onto the taxonomy. Unknown errors become
// ErrInternal so driver messages never reach clients.
func AsBusinessError(err error) *BusinessError {
	if err == nil {
		return nil
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicated
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	}
	// Raw Exec paths bypass gorm's error translation.
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDuplicateEntry:
			return ErrDuplicated
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return ErrInUse
		}
	}
	return ErrInternal
}

// IsBusinessError reports whether err is (or wraps) target.
func IsBusinessError(err error, target *BusinessError) bool {
	be := AsBusinessError(err)
	return be != nil && be.Code == target.Code && be.Message == target.Message
}
