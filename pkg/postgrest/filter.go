package postgrest

import (
	"net/url"
	"strconv"
	"strings"
)

// Query builds the filter, ordering and paging parameters understood by the data API.
type Query struct {
	values url.Values
}

// NewQuery starts an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.values.Set("select", strings.Join(columns, ","))
	return q
}

// Eq adds an equality filter on column.
func (q *Query) Eq(column, value string) *Query {
	q.values.Add(column, "eq."+value)
	return q
}

// In adds a membership filter on column. Values are quoted so commas and parentheses survive.
func (q *Query) In(column string, values ...string) *Query {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, quote(value))
	}
	q.values.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Order sorts by column, descending when desc is set.
func (q *Query) Order(column string, desc bool) *Query {
	direction := "asc"
	if desc {
		direction = "desc"
	}
	q.values.Set("order", column+"."+direction)
	return q
}

// Limit caps the number of returned rows. Non-positive values are ignored.
func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.values.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Values returns the encoded parameters.
func (q *Query) Values() url.Values {
	return q.values
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
