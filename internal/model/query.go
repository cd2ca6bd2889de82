package model

import "github.com/rotisserie/eris"

// DefaultPageSize is used when a query does not specify one.
const DefaultPageSize = 25

// MaxPageSize is the largest page the search provider accepts per request.
const MaxPageSize = 100

// Query is the structured search request driving a pipeline run. It is
// immutable once handed to the pipeline; Normalize returns an adjusted copy.
type Query struct {
	Keywords              string   `json:"keywords,omitempty" yaml:"keywords"`
	PersonTitles          []string `json:"person_titles,omitempty" yaml:"person_titles"`
	OrganizationKeywords  []string `json:"organization_keywords,omitempty" yaml:"organization_keywords"`
	OrganizationLocations []string `json:"organization_locations,omitempty" yaml:"organization_locations"`
	EmployeeRanges        []string `json:"employee_ranges,omitempty" yaml:"employee_ranges"`
	TotalRecords          int      `json:"total_records" yaml:"total_records"`
	PageSize              int      `json:"page_size,omitempty" yaml:"page_size"`
}

// Normalize returns a copy with defaults applied and the page size clamped
// to the provider maximum and to the requested total.
func (q Query) Normalize() Query {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.TotalRecords > 0 && q.PageSize > q.TotalRecords {
		q.PageSize = q.TotalRecords
	}
	return q
}

// Validate checks the invariants a query must hold before a run starts.
func (q Query) Validate() error {
	if q.TotalRecords <= 0 {
		return eris.New("query: total_records must be positive")
	}
	if q.PageSize <= 0 {
		return eris.New("query: page_size must be positive")
	}
	if q.PageSize > MaxPageSize {
		return eris.Errorf("query: page_size %d exceeds provider maximum %d", q.PageSize, MaxPageSize)
	}
	return nil
}

// Pages is the number of page requests needed to satisfy TotalRecords,
// assuming every page comes back full and fully unique.
func (q Query) Pages() int {
	if q.PageSize <= 0 || q.TotalRecords <= 0 {
		return 0
	}
	return (q.TotalRecords + q.PageSize - 1) / q.PageSize
}
