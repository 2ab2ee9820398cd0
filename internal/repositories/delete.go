package repositories

import (
	"context"

	"github.com/vidstream/backend/internal/db"
)

// deleteByID removes one row from table. table is always a package constant.
func deleteByID(ctx context.Context, q db.Querier, table, id string) error {
	tag, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return mapError("delete from "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
