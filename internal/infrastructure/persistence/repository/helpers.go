package repository

import (
	"database/sql"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// nullableTime converts an optional time into a driver value, normalised to UTC
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// nullableInt64 converts an optional id into a driver value
func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
