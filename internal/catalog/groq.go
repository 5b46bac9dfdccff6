package catalog

import (
	"fmt"
	"strings"
)

// Query builds a GROQ query of the form
//
//	*[_type == $type && <predicates>] | order(...) [slice] {projection}
//
// Field names and projections come from code; every value supplied by a
// caller is bound as a $parameter so it never lands in the query text.
type Query struct {
	preds      []string
	params     map[string]any
	order      string
	slice      string
	projection string
}

// NewQuery starts a query over documents of the given type.
func NewQuery(docType string) *Query {
	q := &Query{params: make(map[string]any)}
	q.preds = append(q.preds, "_type == "+q.bind(docType))
	return q
}

func (q *Query) bind(v any) string {
	name := fmt.Sprintf("p%d", len(q.params))
	q.params[name] = v
	return "$" + name
}

// Eq adds field == value.
func (q *Query) Eq(field string, value any) *Query {
	q.preds = append(q.preds, field+" == "+q.bind(value))
	return q
}

// Neq adds field != value.
func (q *Query) Neq(field string, value any) *Query {
	q.preds = append(q.preds, field+" != "+q.bind(value))
	return q
}

// Prefix adds a case-insensitive word-prefix match on field. An empty
// prefix matches everything.
func (q *Query) Prefix(field, prefix string) *Query {
	if prefix == "" {
		return q
	}
	q.preds = append(q.preds, field+" match "+q.bind(prefix+"*"))
	return q
}

// Contains adds value in field, for array fields.
func (q *Query) Contains(field string, value any) *Query {
	q.preds = append(q.preds, q.bind(value)+" in "+field)
	return q
}

// OrderBy sorts results, e.g. OrderBy("name asc").
func (q *Query) OrderBy(expr string) *Query {
	q.order = expr
	return q
}

// Slice limits results to the half-open range [start, end).
func (q *Query) Slice(start, end int) *Query {
	q.slice = fmt.Sprintf("[%d...%d]", start, end)
	return q
}

// First returns only the first match (or null).
func (q *Query) First() *Query {
	q.slice = "[0]"
	return q
}

// Project selects the returned fields. Entries are emitted verbatim, so
// aliases such as `"imageUrl": image.asset->url` are allowed.
func (q *Query) Project(fields ...string) *Query {
	q.projection = "{" + strings.Join(fields, ", ") + "}"
	return q
}

// Filter returns the bare document filter, *[...].
func (q *Query) Filter() string {
	return "*[" + strings.Join(q.preds, " && ") + "]"
}

// String returns the full query text.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString(q.Filter())
	if q.order != "" {
		b.WriteString(" | order(" + q.order + ")")
	}
	b.WriteString(q.slice)
	b.WriteString(q.projection)
	return b.String()
}

// Build returns the query text and its parameters.
func (q *Query) Build() (string, map[string]any) {
	return q.String(), q.params
}

// BuildPaged returns a query yielding {"total": n, "items": [...]}, where
// total counts every match and items holds the current slice.
func (q *Query) BuildPaged() (string, map[string]any) {
	return fmt.Sprintf(`{"total": count(%s), "items": %s}`, q.Filter(), q.String()), q.params
}
