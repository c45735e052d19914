package parser

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/reportql/internal/core/report/domain"
)

// Args is the string form of a report request, as given on the command line
// or in a query string. Each Columns entry may itself be comma-separated.
type Args struct {
	Table            string
	Columns          []string
	IncludeRelations bool
	Filters          []string
	Sorts            []string
	Relations        []string
}

// Request parses every expression and assembles the request.
func (a Args) Request() (domain.Request, error) {
	req := domain.Request{
		Table:            strings.TrimSpace(a.Table),
		IncludeRelations: a.IncludeRelations,
	}
	if req.Table == "" {
		return domain.Request{}, fmt.Errorf("%w: table is required", domain.ErrInvalidRequest)
	}

	for _, c := range a.Columns {
		for _, col := range strings.Split(c, ",") {
			if col = strings.TrimSpace(col); col != "" {
				req.Columns = append(req.Columns, col)
			}
		}
	}

	if len(a.Filters) > 0 {
		filters, err := ParseFilters(a.Filters)
		if err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		req.Filters = filters
	}
	if len(a.Sorts) > 0 {
		sorts, err := ParseSorts(a.Sorts)
		if err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		req.Sort = sorts
	}

	for _, expr := range a.Relations {
		name, cols, err := ParseRelation(expr)
		if err != nil {
			return domain.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		if req.RelatedSelections == nil {
			req.RelatedSelections = domain.RelationSelection{}
		}
		req.RelatedSelections[name] = append(req.RelatedSelections[name], cols...)
	}
	return req, nil
}
