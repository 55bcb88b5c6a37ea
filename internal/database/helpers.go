package database

import "database/sql"

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func int64PtrFromNull(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	value := ni.Int64
	return &value
}
