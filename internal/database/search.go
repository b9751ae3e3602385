package database

import (
	"strings"
)

// likeEscaper escapes LIKE wildcards so user input is matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere in a value.
// SQLite LIKE is case-insensitive for ASCII, which gives icontains semantics.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// conditions accumulates WHERE clauses joined by AND.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, args ...any) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

// contains adds a case-insensitive substring match on column.
// Empty values add nothing.
func (c *conditions) contains(column, value string) {
	if value == "" {
		return
	}
	c.add(column+` LIKE ? ESCAPE '\'`, containsPattern(value))
}

// search adds one clause per whitespace-separated term; each term must
// match at least one of columns.
func (c *conditions) search(query string, columns ...string) {
	if len(columns) == 0 {
		return
	}
	for _, term := range strings.Fields(query) {
		parts := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		pattern := containsPattern(term)
		for _, col := range columns {
			parts = append(parts, col+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		c.add("("+strings.Join(parts, " OR ")+")", args...)
	}
}

// where renders the WHERE clause, or an empty string when no conditions apply.
func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// limitClause renders LIMIT/OFFSET; a non-positive limit means no limit.
func limitClause(limit, offset int) (string, []any) {
	if limit <= 0 {
		return "", nil
	}
	return " LIMIT ? OFFSET ?", []any{limit, offset}
}

// placeholders renders n comma-separated bind parameters
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// prefixed qualifies a comma-separated column list with a table alias
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
