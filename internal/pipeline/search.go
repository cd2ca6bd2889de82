package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// gather pages the search provider until the requested total is reached,
// the provider runs out of records, or a page fails terminally. Contacts
// are deduplicated by identity in first-seen order. On a terminal page
// failure the contacts gathered so far are returned alongside the error;
// the caller decides the partial-vs-failed policy.
func (p *Pipeline) gather(ctx context.Context, q model.Query) ([]model.Contact, error) {
	contacts := make([]model.Contact, 0, q.TotalRecords)
	seen := make(map[string]struct{}, q.TotalRecords)
	policy := p.policyFor("apollo", "search_contacts")

	for page := 1; len(contacts) < q.TotalRecords; page++ {
		req := apollo.SearchRequest{
			Page:                  page,
			PerPage:               q.PageSize,
			Keywords:              q.Keywords,
			PersonTitles:          q.PersonTitles,
			OrganizationKeywords:  q.OrganizationKeywords,
			OrganizationLocations: q.OrganizationLocations,
			EmployeeRanges:        q.EmployeeRanges,
			ContactEmailStatus:    "verified",
		}

		resp, err := resilience.ExecuteValue(ctx, policy, func(ctx context.Context) (*apollo.SearchResponse, error) {
			return p.search.SearchContacts(ctx, req)
		})
		if err != nil {
			return contacts, err
		}

		if len(resp.Contacts) == 0 {
			break
		}

		for _, rec := range resp.Contacts {
			c := ContactFromRecord(rec)
			if key := c.Identity(); key != "" {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			contacts = append(contacts, c)
			if len(contacts) == q.TotalRecords {
				return contacts, nil
			}
		}

		// A short page means the provider is exhausted.
		if len(resp.Contacts) < q.PageSize {
			break
		}
	}

	zap.L().Debug("search gathered contacts",
		zap.Int("count", len(contacts)),
		zap.Int("requested", q.TotalRecords),
	)
	return contacts, nil
}

// ContactFromRecord normalizes a raw provider record into the pipeline's
// contact shape, walking the same field fallbacks the provider payload uses.
func ContactFromRecord(r apollo.ContactRecord) model.Contact {
	return model.Contact{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Title:        r.Title,
		Email:        r.Email,
		EmailStatus:  r.VerificationStatus(),
		Phone:        r.BestPhone(),
		Organization: r.OrgName(),
		Location:     joinLocation(r.City, r.State, r.Country),
		Raw:          r.Raw,
	}
}

func joinLocation(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
