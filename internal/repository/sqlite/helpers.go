package sqlite

import (
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/sbx/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// dbTime normalises timestamps so that stored values compare as text.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// applyFilter adds the WHERE clauses of filter to query. Limit is left to
// the caller.
func applyFilter(query squirrel.SelectBuilder, filter models.ReviewFilter) squirrel.SelectBuilder {
	if filter.PathPrefix != "" {
		query = query.Where(squirrel.Expr(`card_path LIKE ? ESCAPE '\'`, likeEscaper.Replace(filter.PathPrefix)+"%"))
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"reviewed_at": dbTime(*filter.Since)})
	}
	if filter.MaxQuality != nil {
		query = query.Where(squirrel.LtOrEq{"quality": *filter.MaxQuality})
	}
	return query
}
