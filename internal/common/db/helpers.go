package db

import (
	"database/sql"
	"errors"
	"regexp"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var duplicateKeyPattern = regexp.MustCompile("for key [`'\"]?([^`'\"]+)")

// IsNoRows matches sql.ErrNoRows through wrapping.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// UniqueViolation reports a duplicate-entry error and the index that rejected it,
// e.g. "users.uk_users_email".
func UniqueViolation(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return "", false
	}
	if m := duplicateKeyPattern.FindStringSubmatch(myErr.Message); m != nil {
		return m[1], true
	}
	return "", true
}
