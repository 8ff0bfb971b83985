// Package sqlxrepos implements the domain Repository interfaces with
// hand-written SQL over sqlx and PostgreSQL.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/medtrackhq/medtrack/core"
)

// trapNoRowsErr maps psql "no rows" err to the given sentinel.
func trapNoRowsErr(err, sentinel error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

// orderBy renders an ORDER BY clause from orderings, falling back to
// defaultOrd when none are provided. Fields are whitelisted against
// allowed columns to keep user input out of the SQL.
func orderBy(orderings []core.DBOrdering, allowed map[string]bool, defaultOrd string) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if allowed[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return " ORDER BY " + defaultOrd
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// where joins conditions with AND, returning "" when there are none.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func joinOr(conds []string) string    { return strings.Join(conds, " OR ") }
func joinComma(parts []string) string { return strings.Join(parts, ", ") }
