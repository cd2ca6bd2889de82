package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Query
		want Query
	}{
		{
			name: "default page size",
			in:   Query{TotalRecords: 200},
			want: Query{TotalRecords: 200, PageSize: DefaultPageSize},
		},
		{
			name: "page size clamped to provider max",
			in:   Query{TotalRecords: 1000, PageSize: 500},
			want: Query{TotalRecords: 1000, PageSize: MaxPageSize},
		},
		{
			name: "page size clamped to total",
			in:   Query{TotalRecords: 5, PageSize: 50},
			want: Query{TotalRecords: 5, PageSize: 5},
		},
		{
			name: "already valid",
			in:   Query{TotalRecords: 100, PageSize: 20},
			want: Query{TotalRecords: 100, PageSize: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestQueryValidate(t *testing.T) {
	assert.NoError(t, Query{TotalRecords: 10, PageSize: 10}.Validate())
	assert.Error(t, Query{TotalRecords: 0, PageSize: 10}.Validate())
	assert.Error(t, Query{TotalRecords: -1, PageSize: 10}.Validate())
	assert.Error(t, Query{TotalRecords: 10, PageSize: 0}.Validate())
	assert.Error(t, Query{TotalRecords: 10, PageSize: MaxPageSize + 1}.Validate())
}

func TestQueryPages(t *testing.T) {
	assert.Equal(t, 3, Query{TotalRecords: 5, PageSize: 2}.Pages())
	assert.Equal(t, 1, Query{TotalRecords: 2, PageSize: 2}.Pages())
	assert.Equal(t, 1, Query{TotalRecords: 1, PageSize: 100}.Pages())
	assert.Equal(t, 0, Query{}.Pages())
}
