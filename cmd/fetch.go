package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var (
	fetchKeywords        string
	fetchTitles          []string
	fetchOrgKeywords     []string
	fetchLocations       []string
	fetchEmployeeRanges  []string
	fetchTotal           int
	fetchPageSize        int
	fetchQueryFile       string
	fetchVerify          bool
	fetchPush            bool
	fetchRequireVerified bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Search contacts, optionally verify emails and push to the CRM",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		query, err := fetchQuery(cmd.Flags())
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			Verify:               fetchVerify,
			Push:                 fetchPush,
			PushRequiresVerified: fetchRequireVerified || cfg.Pipeline.PushRequiresVerify,
		}

		p, err := newPipeline(opts)
		if err != nil {
			return err
		}

		report, err := p.Run(ctx, query, opts)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// fetchQuery builds the query from --query-file when given, else from flags.
// With a file, --total and --page-size override it only when set explicitly;
// the registered flag defaults never silently replace the file's values.
func fetchQuery(flags *pflag.FlagSet) (model.Query, error) {
	var q model.Query
	if fetchQueryFile != "" {
		data, err := os.ReadFile(fetchQueryFile)
		if err != nil {
			return q, eris.Wrap(err, "read query file")
		}
		if err := yaml.Unmarshal(data, &q); err != nil {
			return q, eris.Wrap(err, "parse query file")
		}
		if flags.Changed("total") {
			q.TotalRecords = fetchTotal
		}
		if flags.Changed("page-size") {
			q.PageSize = fetchPageSize
		}
	} else {
		q = model.Query{
			Keywords:              fetchKeywords,
			PersonTitles:          fetchTitles,
			OrganizationKeywords:  fetchOrgKeywords,
			OrganizationLocations: fetchLocations,
			EmployeeRanges:        fetchEmployeeRanges,
			TotalRecords:          fetchTotal,
			PageSize:              fetchPageSize,
		}
	}
	return q.Normalize(), nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchKeywords, "keywords", "", "free-text search keywords")
	fetchCmd.Flags().StringSliceVar(&fetchTitles, "title", nil, "person title filter (repeatable)")
	fetchCmd.Flags().StringSliceVar(&fetchOrgKeywords, "org-keyword", nil, "organization keyword filter (repeatable)")
	fetchCmd.Flags().StringSliceVar(&fetchLocations, "location", nil, "organization location filter (repeatable)")
	fetchCmd.Flags().StringSliceVar(&fetchEmployeeRanges, "employees", nil, "employee range filter, e.g. 11,50 (repeatable)")
	fetchCmd.Flags().IntVar(&fetchTotal, "total", 10, "max contacts to gather")
	fetchCmd.Flags().IntVar(&fetchPageSize, "page-size", 0, "records per provider page")
	fetchCmd.Flags().StringVar(&fetchQueryFile, "query-file", "", "YAML file holding the search query")
	fetchCmd.Flags().BoolVar(&fetchVerify, "verify", false, "verify emails via Hunter")
	fetchCmd.Flags().BoolVar(&fetchPush, "push", false, "push contacts to the configured CRM")
	fetchCmd.Flags().BoolVar(&fetchRequireVerified, "require-verified", false, "only push contacts whose email verified as deliverable")
	rootCmd.AddCommand(fetchCmd)
}
