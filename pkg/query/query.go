// Package query builds typed, parameterised SELECT statements and runs them
// through sqlx. Conditions are created only from typed columns, so comparing
// a column against a value of the wrong type fails to compile.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// Condition is a rendered predicate with bindvar placeholders and its args.
type Condition struct {
	sql  string
	args []interface{}
	key  string
}

// SQL returns the predicate using ? placeholders.
func (c Condition) SQL() string { return c.sql }

// Args returns the bound arguments.
func (c Condition) Args() []interface{} { return c.args }

// Key is a stable textual form used for cache keys.
func (c Condition) Key() string { return c.key }

// Column names a column whose values have Go type T.
type Column[T any] struct {
	Name string
}

// Col declares a typed column.
func Col[T any](name string) Column[T] {
	return Column[T]{Name: name}
}

func (c Column[T]) compare(op, symbol string, v T) Condition {
	return Condition{
		sql:  fmt.Sprintf("%s %s ?", c.Name, symbol),
		args: []interface{}{v},
		key:  fmt.Sprintf("%s.%s:%v", c.Name, op, v),
	}
}

// Eq matches rows where the column equals v.
func (c Column[T]) Eq(v T) Condition { return c.compare("eq", "=", v) }

// Gte matches rows where the column is at least v.
func (c Column[T]) Gte(v T) Condition { return c.compare("gte", ">=", v) }

// Lte matches rows where the column is at most v.
func (c Column[T]) Lte(v T) Condition { return c.compare("lte", "<=", v) }

// In matches rows whose column is one of values. An empty set matches nothing.
func (c Column[T]) In(values ...T) Condition {
	if len(values) == 0 {
		return Condition{sql: "FALSE", key: c.Name + ".in:"}
	}
	marks := make([]string, len(values))
	args := make([]interface{}, len(values))
	parts := make([]string, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
		parts[i] = fmt.Sprint(v)
	}
	sort.Strings(parts)
	return Condition{
		sql:  fmt.Sprintf("%s IN (%s)", c.Name, strings.Join(marks, ", ")),
		args: args,
		key:  fmt.Sprintf("%s.in:%s", c.Name, strings.Join(parts, ",")),
	}
}

// ArrayColumn names an array column with element type T.
type ArrayColumn[T any] struct {
	Name string
}

// ArrayCol declares a typed array column.
func ArrayCol[T any](name string) ArrayColumn[T] {
	return ArrayColumn[T]{Name: name}
}

// Contains matches rows whose array holds v.
func (c ArrayColumn[T]) Contains(v T) Condition {
	return Condition{
		sql:  fmt.Sprintf("? = ANY(%s)", c.Name),
		args: []interface{}{v},
		key:  fmt.Sprintf("%s.contains:%v", c.Name, v),
	}
}

// Search is a case-insensitive substring match on a text column. A blank
// term matches everything.
func Search(c Column[string], term string) Condition {
	term = strings.TrimSpace(term)
	if term == "" {
		return Condition{}
	}
	return Condition{
		sql:  fmt.Sprintf("LOWER(%s) LIKE ?", c.Name),
		args: []interface{}{"%" + strings.ToLower(term) + "%"},
		key:  fmt.Sprintf("%s.search:%s", c.Name, strings.ToLower(term)),
	}
}

// Or joins conditions with OR.
func Or(conds ...Condition) Condition {
	var sqls, keys []string
	var args []interface{}
	for _, c := range conds {
		if c.sql == "" {
			continue
		}
		sqls = append(sqls, c.sql)
		keys = append(keys, c.key)
		args = append(args, c.args...)
	}
	if len(sqls) == 0 {
		return Condition{}
	}
	return Condition{
		sql:  "(" + strings.Join(sqls, " OR ") + ")",
		args: args,
		key:  "or(" + strings.Join(keys, "|") + ")",
	}
}

// Order is an ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Asc orders by column ascending.
func Asc(column string) Order { return Order{Column: column} }

// Desc orders by column descending.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Spec describes a single-table read.
type Spec struct {
	Table   string
	Columns []string
	Where   []Condition
	OrderBy []Order
	Limit   int
	Offset  int
}

// Build renders the statement with $n placeholders.
func (s Spec) Build() (string, []interface{}) {
	cols := "*"
	if len(s.Columns) > 0 {
		cols = strings.Join(s.Columns, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, s.Table)

	var args []interface{}
	var preds []string
	for _, c := range s.Where {
		if c.sql == "" {
			continue
		}
		preds = append(preds, c.sql)
		args = append(args, c.args...)
	}
	if len(preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(preds, " AND "))
	}

	if len(s.OrderBy) > 0 {
		terms := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			terms[i] = o.Column + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}
	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	}
	if s.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", s.Offset)
	}

	return sqlx.Rebind(sqlx.DOLLAR, b.String()), args
}

// Key identifies the spec's table and condition set independent of
// condition order.
func (s Spec) Key() string {
	keys := make([]string, 0, len(s.Where))
	for _, c := range s.Where {
		if c.key != "" {
			keys = append(keys, c.key)
		}
	}
	sort.Strings(keys)
	key := strings.Join(keys, "&")
	if len(s.OrderBy) > 0 {
		parts := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			parts[i] = o.Column
			if o.Desc {
				parts[i] += "-"
			}
		}
		key += "#" + strings.Join(parts, ",")
	}
	if s.Limit > 0 || s.Offset > 0 {
		key += fmt.Sprintf("#%d+%d", s.Limit, s.Offset)
	}
	if key == "" {
		key = "all"
	}
	return s.Table + "|" + key
}

// Select runs spec and scans every row into T. Store errors are classified
// into structured kinds here and nowhere else.
func Select[T any](ctx context.Context, q sqlx.QueryerContext, spec Spec) ([]T, error) {
	stmt, args := spec.Build()
	rows := make([]T, 0)
	if err := sqlx.SelectContext(ctx, q, &rows, stmt, args...); err != nil {
		return nil, appErrors.FromStore(err, fmt.Sprintf("fetch %s", spec.Table))
	}
	return rows, nil
}

// MaybeOne runs spec expecting at most one row. No match returns (nil, nil).
func MaybeOne[T any](ctx context.Context, q sqlx.QueryerContext, spec Spec) (*T, error) {
	spec.Limit = 1
	rows, err := Select[T](ctx, q, spec)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
