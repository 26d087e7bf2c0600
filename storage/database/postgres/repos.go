// Package pgrepos implements the domain repositories on PostgreSQL
// with sqlx.
package pgrepos

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
)

// orderBy renders an ORDER BY clause from the requested ordering,
// falling back to a default clause. Only columns listed in sortable
// are honored, the rest of the ordering is ignored.
func orderBy(ordering []core.DBOrdering, sortable []string, fallback string) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		for _, col := range sortable {
			if ord.Field == col {
				orderList = append(orderList, ord.String())
				break
			}
		}
	}
	if len(orderList) == 0 {
		if fallback == "" {
			return ""
		}
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

// isUniqueViolation reports whether err was raised by PostgreSQL for a
// violated unique constraint.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// whereBuilder accumulates AND-ed conditions with positional args.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// arg registers a value and returns its placeholder.
func (b *whereBuilder) arg(val interface{}) string {
	b.args = append(b.args, val)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(format string, vals ...interface{}) {
	ps := make([]interface{}, 0, len(vals))
	for _, val := range vals {
		ps = append(ps, b.arg(val))
	}
	b.conds = append(b.conds, fmt.Sprintf(format, ps...))
}

func (b *whereBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}
