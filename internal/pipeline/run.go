package pipeline

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/vidstream/backend/internal/db"
)

// Paginate counts the plan's rows and fetches one page of them into T, whose
// db tags must match the projected field names.
func Paginate[T any](ctx context.Context, q db.Querier, plan *Plan, page Page) (Result[T], error) {
	page = page.Normalize()

	count, err := plan.Count()
	if err != nil {
		return Result[T]{}, err
	}
	var total int64
	if err := q.QueryRow(ctx, count.SQL, count.Args...).Scan(&total); err != nil {
		return Result[T]{}, fmt.Errorf("count rows: %w", err)
	}

	var items []T
	if total > int64(page.Offset()) {
		query, err := plan.Items(&page)
		if err != nil {
			return Result[T]{}, err
		}
		if err := pgxscan.Select(ctx, q, &items, query.SQL, query.Args...); err != nil {
			return Result[T]{}, fmt.Errorf("select page: %w", err)
		}
	}

	return NewResult(items, total, page), nil
}

// All fetches every row of the plan in sort order.
func All[T any](ctx context.Context, q db.Querier, plan *Plan) ([]T, error) {
	query, err := plan.Items(nil)
	if err != nil {
		return nil, err
	}
	items := []T{}
	if err := pgxscan.Select(ctx, q, &items, query.SQL, query.Args...); err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	return items, nil
}

// One fetches the single row the plan matches. Use NotFound to detect an
// empty result.
func One[T any](ctx context.Context, q db.Querier, plan *Plan) (T, error) {
	var item T
	query, err := plan.Items(nil)
	if err != nil {
		return item, err
	}
	if err := pgxscan.Get(ctx, q, &item, query.SQL, query.Args...); err != nil {
		return item, err
	}
	return item, nil
}

// NotFound reports whether err means a plan matched no rows.
func NotFound(err error) bool {
	return pgxscan.NotFound(err)
}
