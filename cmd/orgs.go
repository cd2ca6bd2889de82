package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/hubspot"
)

var (
	orgsKeywords   []string
	orgsLocations  []string
	orgsIndustries []string
	orgsEmployees  []string
	orgsLimit      int
	orgsPeopleFor  string
	orgsPush       bool
	orgsCompanyID  string
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "Search organizations, or list an organization's top people",
	Long: "Searches organizations, optionally pushing them to HubSpot as companies. " +
		"With --people-for, lists an organization's top people instead; add --push to " +
		"create them as contacts, and --company-id to associate them with a HubSpot company.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		search, err := newSearchClient()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if orgsPeopleFor != "" {
			people, err := search.OrganizationTopPeople(ctx, orgsPeopleFor, orgsLimit)
			if err != nil {
				return eris.Wrap(err, "organization top people")
			}
			if !orgsPush {
				return enc.Encode(people)
			}
			crm, err := newHubSpotClient()
			if err != nil {
				return err
			}
			return enc.Encode(pushPeople(ctx, crm, cfg.Pipeline.RetryPolicy(), people, orgsCompanyID))
		}

		resp, err := search.SearchOrganizations(ctx, apollo.OrgSearchRequest{
			Page:           1,
			PerPage:        orgsLimit,
			Keywords:       orgsKeywords,
			Locations:      orgsLocations,
			Industries:     orgsIndustries,
			EmployeeRanges: orgsEmployees,
		})
		if err != nil {
			return eris.Wrap(err, "organization search")
		}
		if !orgsPush {
			return enc.Encode(resp.Organizations)
		}
		crm, err := newHubSpotClient()
		if err != nil {
			return err
		}
		return enc.Encode(pushCompanies(ctx, crm, cfg.Pipeline.RetryPolicy(), resp.Organizations))
	},
}

type companyPushResult struct {
	Name     string `json:"name"`
	RecordID string `json:"record_id,omitempty"`
	Updated  bool   `json:"updated,omitempty"`
	Error    string `json:"error,omitempty"`
}

// pushCompanies upserts each organization as a HubSpot company. Failures are
// recorded per company; one bad record never stops the rest.
func pushCompanies(ctx context.Context, crm hubspot.Client, pol resilience.Policy, orgs []apollo.Organization) []companyPushResult {
	pol.OnRetry = resilience.LogRetries("hubspot", "upsert_company")

	results := make([]companyPushResult, 0, len(orgs))
	for _, org := range orgs {
		r := companyPushResult{Name: org.Name}
		if org.Name == "" {
			r.Error = "organization has no name"
			results = append(results, r)
			continue
		}

		props := pipeline.CompanyProperties(org)
		res, err := resilience.ExecuteValue(ctx, pol, func(ctx context.Context) (*hubspot.UpsertResult, error) {
			return crm.UpsertCompany(ctx, props)
		})
		if err != nil {
			r.Error = err.Error()
		} else {
			r.RecordID = res.ID
			r.Updated = res.Updated
		}
		results = append(results, r)
	}
	return results
}

type personPushResult struct {
	Email      string `json:"email"`
	RecordID   string `json:"record_id,omitempty"`
	Updated    bool   `json:"updated,omitempty"`
	Associated bool   `json:"associated,omitempty"`
	Error      string `json:"error,omitempty"`
}

// pushPeople upserts each person as a HubSpot contact and, when companyID is
// given, associates the contact with that company. An association failure
// leaves the created contact in place and is reported alongside its id.
func pushPeople(ctx context.Context, crm hubspot.Client, pol resilience.Policy, people []apollo.ContactRecord, companyID string) []personPushResult {
	pol.OnRetry = resilience.LogRetries("hubspot", "upsert_contact")

	results := make([]personPushResult, 0, len(people))
	for _, rec := range people {
		c := pipeline.ContactFromRecord(rec)
		r := personPushResult{Email: c.Email}
		if c.Email == "" {
			r.Error = "contact has no email"
			results = append(results, r)
			continue
		}

		props := pipeline.ContactProperties(c)
		res, err := resilience.ExecuteValue(ctx, pol, func(ctx context.Context) (*hubspot.UpsertResult, error) {
			return crm.UpsertContact(ctx, props)
		})
		if err != nil {
			r.Error = err.Error()
			results = append(results, r)
			continue
		}
		r.RecordID = res.ID
		r.Updated = res.Updated

		if companyID != "" {
			err := pol.Execute(ctx, func(ctx context.Context) error {
				return crm.AssociateContactWithCompany(ctx, res.ID, companyID)
			})
			if err != nil {
				r.Error = "association failed: " + err.Error()
			} else {
				r.Associated = true
			}
		}
		results = append(results, r)
	}
	return results
}

func init() {
	orgsCmd.Flags().StringSliceVar(&orgsKeywords, "keyword", nil, "organization keyword filter (repeatable)")
	orgsCmd.Flags().StringSliceVar(&orgsLocations, "location", nil, "organization location filter (repeatable)")
	orgsCmd.Flags().StringSliceVar(&orgsIndustries, "industry", nil, "industry filter (repeatable)")
	orgsCmd.Flags().StringSliceVar(&orgsEmployees, "employees", nil, "employee range filter, e.g. 11,50 (repeatable)")
	orgsCmd.Flags().IntVar(&orgsLimit, "limit", 10, "max results")
	orgsCmd.Flags().StringVar(&orgsPeopleFor, "people-for", "", "list top people for the given organization id instead of searching")
	orgsCmd.Flags().BoolVar(&orgsPush, "push", false, "push results to HubSpot (companies, or contacts with --people-for)")
	orgsCmd.Flags().StringVar(&orgsCompanyID, "company-id", "", "HubSpot company id to associate pushed people with")
	rootCmd.AddCommand(orgsCmd)
}
