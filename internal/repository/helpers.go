package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound turns sql.ErrNoRows into (nil, nil) so lookups on an
// unknown token or session read as "no row" rather than a failure.
//
//	var s model.UserSession
//	err := r.db.GetContext(ctx, &s, query, token)
//	return HandleNotFound(&s, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// rowsAffected unwraps an Exec result into its affected row count.
func rowsAffected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
