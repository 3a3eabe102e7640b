package utils

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

var (
	ErrorRecordNotFound  = errors.New("record not found")
	ErrorUtilityRequired = errors.New("utility id is required")
	ErrorAdminRequired   = errors.New("admin id is required")
	ErrorLockNotObtained = errors.New("resource is being modified by another request, try again")
)

// IsDuplicateKeyErr reports a MySQL unique index violation (e.g. two concurrent writers adding the same area to a ruleset).
func IsDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
