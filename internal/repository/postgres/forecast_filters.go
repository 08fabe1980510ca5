package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/kalkulis/inventory-forecast/backend-go/internal/domain"
)

// buildForecastFilterClause constructs the AND-joined conditions narrowing a forecast read.
// Item columns are read from "i", forecast columns from "f".
func buildForecastFilterClause(filter domain.ForecastFilter, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if categories := nonEmpty(filter.Categories); len(categories) > 0 {
		clauses = append(clauses, fmt.Sprintf("i.category = ANY($%d::text[])", idx))
		args = append(args, pq.Array(categories))
		idx++
	}

	if filter.MaxMonths != nil {
		clauses = append(clauses, fmt.Sprintf("f.months_to_min_stock <= $%d", idx))
		args = append(args, *filter.MaxMonths)
		idx++
	}

	if filter.MinConfidence != nil {
		clauses = append(clauses, fmt.Sprintf("f.confidence_level >= $%d", idx))
		args = append(args, *filter.MinConfidence)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
