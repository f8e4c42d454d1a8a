package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text and positional ($n) arguments.
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) write(parts ...string) {
	for _, p := range parts {
		w.buf.WriteString(p)
	}
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString(placeholder(len(w.args)))
}

// expr writes expr, replacing each '?' with the next bound argument.
func (w *sqlWriter) expr(expr string, args []any) {
	if len(args) == 0 {
		w.buf.WriteString(expr)
		return
	}
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(args) {
			w.bind(args[next])
			next++
			continue
		}
		w.buf.WriteByte(expr[i])
	}
}

func (w *sqlWriter) result() (string, []any, error) {
	args := w.args
	if args == nil {
		args = []any{}
	}
	return w.buf.String(), args, nil
}

type Condition interface {
	writeSQL(w *sqlWriter)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func (c compareCondition) writeSQL(w *sqlWriter) {
	w.write(c.column, " ", c.op, " ")
	w.bind(c.value)
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

// InStrings is In for string slices.
func InStrings(column string, values []string) Condition {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return In(column, out)
}

func (c inCondition) writeSQL(w *sqlWriter) {
	if len(c.values) == 0 {
		w.write("1=0")
		return
	}
	w.write(c.column, " IN (")
	for i, v := range c.values {
		if i > 0 {
			w.write(", ")
		}
		w.bind(v)
	}
	w.write(")")
}

type notNullCondition struct {
	column string
}

func IsNotNull(column string) Condition {
	return notNullCondition{column: column}
}

func (c notNullCondition) writeSQL(w *sqlWriter) {
	w.write(c.column, " IS NOT NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate; '?' marks are bound to args in order.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) writeSQL(w *sqlWriter) {
	w.expr(c.expr, c.args)
}

type orCondition struct {
	conditions []Condition
}

// Or joins conditions with OR inside parentheses.
func Or(conditions ...Condition) Condition {
	return orCondition{conditions: conditions}
}

func (c orCondition) writeSQL(w *sqlWriter) {
	if len(c.conditions) == 0 {
		w.write("1=0")
		return
	}
	w.write("(")
	for i, cond := range c.conditions {
		if i > 0 {
			w.write(" OR ")
		}
		cond.writeSQL(w)
	}
	w.write(")")
}

type SelectBuilder struct {
	columns []string
	table   string
	joins   []string
	where   []Condition
	orderBy []string
	limit   int
	suffix  string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

// Join appends a raw join clause, e.g. "JOIN weeks w ON w.id = p.week_id".
func (b *SelectBuilder) Join(clause string) *SelectBuilder {
	b.joins = append(b.joins, strings.TrimSpace(clause))
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// Suffix appends raw SQL after LIMIT, such as a locking clause.
func (b *SelectBuilder) Suffix(sql string) *SelectBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := &sqlWriter{}
	w.write("SELECT ", strings.Join(b.columns, ", "), " FROM ", b.table)
	for _, join := range b.joins {
		w.write(" ", join)
	}
	writeWhere(w, b.where)
	writeList(w, " ORDER BY ", b.orderBy)
	if b.limit > 0 {
		w.write(" LIMIT ", strconv.Itoa(b.limit))
	}
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
	sufArgs []any
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix appends raw SQL such as ON CONFLICT or RETURNING; '?' marks bind args.
func (b *InsertBuilder) Suffix(sql string, args ...any) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	b.sufArgs = args
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := &sqlWriter{}
	w.write("INSERT INTO ", b.table, " (", strings.Join(b.columns, ", "), ") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.write(", ")
		}
		w.write("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.write(", ")
			}
			w.bind(value)
		}
		w.write(")")
	}
	if b.suffix != "" {
		w.write(" ")
		w.expr(b.suffix, b.sufArgs)
	}
	return w.result()
}

type setClause struct {
	column string
	value  any
	expr   *exprCondition
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

// SetExpr assigns a raw expression, e.g. SetExpr("version", "version + 1").
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, expr: &exprCondition{expr: expr, args: args}})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	w := &sqlWriter{}
	w.write("UPDATE ", b.table, " SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.write(", ")
		}
		w.write(s.column, " = ")
		if s.expr != nil {
			s.expr.writeSQL(w)
			continue
		}
		w.bind(s.value)
	}
	writeWhere(w, b.where)
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
}

func writeWhere(w *sqlWriter, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.write(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.write(" AND ")
		}
		c.writeSQL(w)
	}
}

func writeList(w *sqlWriter, keyword string, parts []string) {
	if len(parts) == 0 {
		return
	}
	w.write(keyword, strings.Join(parts, ", "))
}

func placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}
