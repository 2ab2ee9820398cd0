// Package pipeline compiles read plans made of ordered stages (match, join,
// derive, project, sort, paginate) into SQL. Views describe what they need
// as a Plan; stable ordering and count queries are derived here once.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Query is a compiled statement.
type Query struct {
	SQL  string
	Args []any
}

// Aggregate is a derived field computed over the rows of a JoinMany stage.
type Aggregate struct {
	Name string
	Expr string
	Args []any
}

// Count counts the joined rows.
func Count(name string) Aggregate {
	return Aggregate{Name: name, Expr: "COUNT(*)"}
}

// Sum totals an integer expr over the joined rows, yielding 0 when there are none.
func Sum(name, expr string) Aggregate {
	return Aggregate{Name: name, Expr: fmt.Sprintf("COALESCE(SUM(%s), 0)::BIGINT", expr)}
}

// AnyMatch reports whether cond holds for at least one joined row. A nil
// argument (anonymous viewer) yields false.
func AnyMatch(name, cond string, args ...any) Aggregate {
	return Aggregate{Name: name, Expr: fmt.Sprintf("COALESCE(BOOL_OR(%s), FALSE)", cond), Args: args}
}

type column struct {
	expr string
	args []any
}

type joinClause struct {
	sql  string
	args []any
}

// Plan is an ordered read description over one root relation.
type Plan struct {
	from    string
	key     string
	matches []sq.Sqlizer
	joins   []joinClause
	columns []column
	sorts   []string
	err     error
}

// From starts a plan over source (e.g. "comments c"). key is the unique
// column appended to every sort so that pagination is stable.
func From(source, key string) *Plan {
	p := &Plan{from: source, key: key}
	if strings.TrimSpace(source) == "" || strings.TrimSpace(key) == "" {
		p.err = errors.New("pipeline: source and key are required")
	}
	return p
}

// Match filters root rows.
func (p *Plan) Match(pred sq.Sqlizer) *Plan {
	p.matches = append(p.matches, pred)
	return p
}

// JoinOne left-joins a single related row, e.g. JoinOne("users u", "u.id = c.owner_id").
func (p *Plan) JoinOne(source, on string) *Plan {
	p.joins = append(p.joins, joinClause{sql: fmt.Sprintf("LEFT JOIN %s ON %s", source, on)})
	return p
}

// JoinMany left-joins all rows of source matching on and folds them into
// aggregates exposed as alias.<aggregate name>. Root cardinality is preserved.
func (p *Plan) JoinMany(alias, source, on string, aggs ...Aggregate) *Plan {
	if len(aggs) == 0 {
		p.err = fmt.Errorf("pipeline: join %s needs at least one aggregate", alias)
		return p
	}

	exprs := make([]string, 0, len(aggs))
	var args []any
	for _, agg := range aggs {
		exprs = append(exprs, fmt.Sprintf("%s AS %s", agg.Expr, agg.Name))
		args = append(args, agg.Args...)
	}

	clause := fmt.Sprintf("LEFT JOIN LATERAL (SELECT %s FROM %s WHERE %s) AS %s ON TRUE",
		strings.Join(exprs, ", "), source, on, alias)
	p.joins = append(p.joins, joinClause{sql: clause, args: args})
	return p
}

// Derive adds a computed output field.
func (p *Plan) Derive(name, expr string, args ...any) *Plan {
	p.columns = append(p.columns, column{expr: fmt.Sprintf("%s AS %s", expr, name), args: args})
	return p
}

// Project adds output fields as-is. Output order follows Project/Derive call order.
func (p *Plan) Project(exprs ...string) *Plan {
	for _, expr := range exprs {
		p.columns = append(p.columns, column{expr: expr})
	}
	return p
}

// Sort appends ORDER BY terms. The plan key is always added last.
func (p *Plan) Sort(terms ...string) *Plan {
	p.sorts = append(p.sorts, terms...)
	return p
}

func (p *Plan) orderBy() []string {
	terms := append([]string{}, p.sorts...)
	for _, term := range terms {
		if fields := strings.Fields(term); len(fields) > 0 && strings.EqualFold(fields[0], p.key) {
			return terms
		}
	}
	direction := "ASC"
	if len(terms) > 0 {
		if fields := strings.Fields(terms[0]); len(fields) > 1 && strings.EqualFold(fields[1], "DESC") {
			direction = "DESC"
		}
	}
	return append(terms, p.key+" "+direction)
}

func (p *Plan) base(columns ...column) sq.SelectBuilder {
	b := psql.Select()
	for _, c := range columns {
		b = b.Column(c.expr, c.args...)
	}
	b = b.From(p.from)
	for _, j := range p.joins {
		b = b.JoinClause(j.sql, j.args...)
	}
	for _, m := range p.matches {
		b = b.Where(m)
	}
	return b
}

// Items compiles the projected, sorted plan. A nil page returns every row.
func (p *Plan) Items(page *Page) (Query, error) {
	if p.err != nil {
		return Query{}, p.err
	}
	if len(p.columns) == 0 {
		return Query{}, errors.New("pipeline: plan projects no fields")
	}

	b := p.base(p.columns...).OrderBy(p.orderBy()...)
	if page != nil {
		n := page.Normalize()
		b = b.Limit(uint64(n.Limit)).Offset(uint64(n.Offset()))
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("pipeline: build items: %w", err)
	}
	return Query{SQL: sql, Args: args}, nil
}

// Count compiles a statement counting the rows the plan matches.
func (p *Plan) Count() (Query, error) {
	if p.err != nil {
		return Query{}, p.err
	}

	sql, args, err := p.base(column{expr: "COUNT(*)"}).ToSql()
	if err != nil {
		return Query{}, fmt.Errorf("pipeline: build count: %w", err)
	}
	return Query{SQL: sql, Args: args}, nil
}
