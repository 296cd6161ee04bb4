package prismic

import (
	"strconv"
	"strings"
)

// Predicate is one clause of a search query, e.g. [at(document.type, "posts")].
type Predicate string

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + ", " + strconv.Quote(value) + ")]")
}

func joinPredicates(ps []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range ps {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}

// Ordering sorts search results by a document field.
type Ordering struct {
	Field string
	Desc  bool
}

func formatOrderings(os []Ordering) string {
	parts := make([]string, len(os))
	for i, o := range os {
		parts[i] = o.Field
		if o.Desc {
			parts[i] += " desc"
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// QueryOptions tunes a search. An empty Ref means the master ref.
type QueryOptions struct {
	Ref       string
	PageSize  int
	Page      int
	After     string
	Orderings []Ordering
	Fetch     []string
}
