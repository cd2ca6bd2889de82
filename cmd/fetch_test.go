package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetchFlags registers the fetch flags on a fresh set and parses args,
// restoring the bound globals afterwards. Registration resets each global to
// its default, so tests see the same state a real invocation would.
func fetchFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	savedKeywords, savedTitles := fetchKeywords, fetchTitles
	savedOrgKeywords, savedLocations := fetchOrgKeywords, fetchLocations
	savedRanges := fetchEmployeeRanges
	savedTotal, savedPageSize, savedFile := fetchTotal, fetchPageSize, fetchQueryFile
	t.Cleanup(func() {
		fetchKeywords, fetchTitles = savedKeywords, savedTitles
		fetchOrgKeywords, fetchLocations = savedOrgKeywords, savedLocations
		fetchEmployeeRanges = savedRanges
		fetchTotal, fetchPageSize, fetchQueryFile = savedTotal, savedPageSize, savedFile
	})

	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	fs.StringVar(&fetchKeywords, "keywords", "", "")
	fs.StringSliceVar(&fetchTitles, "title", nil, "")
	fs.StringSliceVar(&fetchOrgKeywords, "org-keyword", nil, "")
	fs.StringSliceVar(&fetchLocations, "location", nil, "")
	fs.StringSliceVar(&fetchEmployeeRanges, "employees", nil, "")
	fs.IntVar(&fetchTotal, "total", 10, "")
	fs.IntVar(&fetchPageSize, "page-size", 0, "")
	fs.StringVar(&fetchQueryFile, "query-file", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFetchQuery_FileValuesSurviveFlagDefaults(t *testing.T) {
	path := writeQueryFile(t, `
keywords: plumbing
total_records: 50
page_size: 10
`)
	fs := fetchFlags(t, "--query-file", path)

	q, err := fetchQuery(fs)
	require.NoError(t, err)

	assert.Equal(t, "plumbing", q.Keywords)
	assert.Equal(t, 50, q.TotalRecords, "the default --total must not replace the file's value")
	assert.Equal(t, 10, q.PageSize)
}

func TestFetchQuery_ExplicitFlagsOverrideFile(t *testing.T) {
	path := writeQueryFile(t, `
total_records: 50
page_size: 10
`)
	fs := fetchFlags(t, "--query-file", path, "--total", "5", "--page-size", "3")

	q, err := fetchQuery(fs)
	require.NoError(t, err)

	assert.Equal(t, 5, q.TotalRecords)
	assert.Equal(t, 3, q.PageSize)
}

func TestFetchQuery_FlagsOnly(t *testing.T) {
	fs := fetchFlags(t, "--keywords", "hvac", "--title", "Owner")

	q, err := fetchQuery(fs)
	require.NoError(t, err)

	assert.Equal(t, "hvac", q.Keywords)
	assert.Equal(t, []string{"Owner"}, q.PersonTitles)
	assert.Equal(t, 10, q.TotalRecords)
	assert.Equal(t, 10, q.PageSize, "page size clamps to the requested total")
}

func TestFetchQuery_FileWithoutTotalFailsValidation(t *testing.T) {
	path := writeQueryFile(t, `keywords: roofing`)
	fs := fetchFlags(t, "--query-file", path)

	q, err := fetchQuery(fs)
	require.NoError(t, err)
	assert.Error(t, q.Validate(), "a file omitting total_records leaves the query invalid")
}
