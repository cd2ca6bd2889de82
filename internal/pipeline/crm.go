package pipeline

import (
	"context"
	"strconv"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/hubspot"
	"github.com/sells-group/leadgen-cli/pkg/salesforce"
)

// Sink is the pipeline's view of a CRM: an idempotent upsert keyed by the
// contact's identity.
type Sink interface {
	Name() string
	Push(ctx context.Context, c model.Contact) (model.PushAck, error)
}

// hubspotSink pushes contacts as HubSpot contact objects.
type hubspotSink struct {
	client hubspot.Client
}

// NewHubSpotSink adapts a HubSpot client into a pipeline Sink.
func NewHubSpotSink(client hubspot.Client) Sink {
	return &hubspotSink{client: client}
}

func (s *hubspotSink) Name() string { return "hubspot" }

func (s *hubspotSink) Push(ctx context.Context, c model.Contact) (model.PushAck, error) {
	res, err := s.client.UpsertContact(ctx, ContactProperties(c))
	if err != nil {
		return model.PushAck{}, err
	}
	return model.PushAck{Provider: s.Name(), RecordID: res.ID, Updated: res.Updated}, nil
}

// ContactProperties maps a contact onto HubSpot contact property names,
// omitting empty values.
func ContactProperties(c model.Contact) map[string]string {
	props := map[string]string{}
	setProp(props, "email", c.Email)
	setProp(props, "firstname", c.FirstName)
	setProp(props, "lastname", c.LastName)
	setProp(props, "phone", c.Phone)
	setProp(props, "jobtitle", c.Title)
	setProp(props, "company", c.Organization)
	return props
}

// CompanyProperties maps an organization onto HubSpot company property
// names, deriving the dedup domain from the website URL.
func CompanyProperties(o apollo.Organization) map[string]string {
	props := map[string]string{}
	setProp(props, "name", o.Name)
	setProp(props, "website", o.WebsiteURL)
	setProp(props, "domain", hubspot.DomainFromURL(o.WebsiteURL))
	setProp(props, "phone", o.Phone)
	setProp(props, "city", o.City)
	setProp(props, "state", o.State)
	setProp(props, "country", o.Country)
	setProp(props, "industry", o.Industry)
	if o.EstimatedNumEmployees > 0 {
		props["numberofemployees"] = strconv.Itoa(o.EstimatedNumEmployees)
	}
	return props
}

func setProp(props map[string]string, key, value string) {
	if value != "" {
		props[key] = value
	}
}

// salesforceSink pushes contacts as Salesforce Lead records.
type salesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink adapts a Salesforce client into a pipeline Sink.
func NewSalesforceSink(client salesforce.Client) Sink {
	return &salesforceSink{client: client}
}

func (s *salesforceSink) Name() string { return "salesforce" }

func (s *salesforceSink) Push(ctx context.Context, c model.Contact) (model.PushAck, error) {
	fields := map[string]any{
		"Email": c.Email,
		// Salesforce requires LastName and Company on Lead.
		"LastName": orUnknown(c.LastName),
		"Company":  orUnknown(c.Organization),
	}
	if c.FirstName != "" {
		fields["FirstName"] = c.FirstName
	}
	if c.Title != "" {
		fields["Title"] = c.Title
	}
	if c.Phone != "" {
		fields["Phone"] = c.Phone
	}

	id, updated, err := salesforce.UpsertLeadByEmail(ctx, s.client, fields)
	if err != nil {
		return model.PushAck{}, err
	}
	return model.PushAck{Provider: s.Name(), RecordID: id, Updated: updated}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
