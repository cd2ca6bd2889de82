package apollo

import "encoding/json"

// SearchRequest is the body for POST /v1/contacts/search.
type SearchRequest struct {
	Page                  int      `json:"page"`
	PerPage               int      `json:"per_page"`
	Keywords              string   `json:"q_keywords,omitempty"`
	PersonTitles          []string `json:"person_titles,omitempty"`
	OrganizationKeywords  []string `json:"organization_keywords,omitempty"`
	OrganizationLocations []string `json:"organization_locations,omitempty"`
	EmployeeRanges        []string `json:"organization_num_employees_ranges,omitempty"`
	ContactEmailStatus    string   `json:"contact_email_status,omitempty"`
}

// Pagination is the paging block Apollo returns on search responses.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
	TotalPages   int `json:"total_pages"`
}

// HasMore reports whether pages remain after the current one.
func (p Pagination) HasMore() bool {
	return p.TotalPages > 0 && p.Page < p.TotalPages
}

// SearchResponse is the body of a contact search response.
type SearchResponse struct {
	Contacts   []ContactRecord `json:"contacts"`
	Pagination Pagination      `json:"pagination"`
}

// PhoneNumber is one entry of a record's phones list. Apollo is inconsistent
// about which key carries the number.
type PhoneNumber struct {
	Number string `json:"number"`
	Phone  string `json:"phone"`
}

// Account is the account block nested in a contact record.
type Account struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	SanitizedPhone string `json:"sanitized_phone"`
}

// Organization is an organization record, either nested in a contact or
// returned by organization search.
type Organization struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	WebsiteURL            string `json:"website_url"`
	Industry              string `json:"industry"`
	EstimatedNumEmployees int    `json:"estimated_num_employees"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Country               string `json:"country"`
	Phone                 string `json:"phone"`
	LinkedinURL           string `json:"linkedin_url"`
}

// ContactRecord is a raw person record from contact search or the
// organization top-people endpoint. Raw preserves the undecoded payload.
type ContactRecord struct {
	ID                 string        `json:"id"`
	FirstName          string        `json:"first_name"`
	LastName           string        `json:"last_name"`
	Title              string        `json:"title"`
	Email              string        `json:"email"`
	EmailStatus        string        `json:"email_status"`
	ContactEmailStatus string        `json:"contact_email_status"`
	Phone              string        `json:"phone"`
	Phones             []PhoneNumber `json:"phones"`
	OrganizationName   string        `json:"organization_name"`
	Organization       *Organization `json:"organization"`
	Account            *Account      `json:"account"`
	City               string        `json:"city"`
	State              string        `json:"state"`
	Country            string        `json:"country"`
	LinkedinURL        string        `json:"linkedin_url"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the original payload.
func (r *ContactRecord) UnmarshalJSON(data []byte) error {
	type plain ContactRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ContactRecord(p)
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// BestPhone walks the fallback chain the record exposes: the flat phone
// field, then the phones list, then the account block.
func (r ContactRecord) BestPhone() string {
	if r.Phone != "" {
		return r.Phone
	}
	for _, p := range r.Phones {
		if p.Number != "" {
			return p.Number
		}
		if p.Phone != "" {
			return p.Phone
		}
	}
	if r.Account != nil {
		if r.Account.Phone != "" {
			return r.Account.Phone
		}
		return r.Account.SanitizedPhone
	}
	return ""
}

// OrgName resolves the organization name from whichever field carries it.
func (r ContactRecord) OrgName() string {
	if r.Organization != nil && r.Organization.Name != "" {
		return r.Organization.Name
	}
	if r.OrganizationName != "" {
		return r.OrganizationName
	}
	if r.Account != nil {
		return r.Account.Name
	}
	return ""
}

// VerificationStatus resolves the provider's own email status field.
func (r ContactRecord) VerificationStatus() string {
	if r.EmailStatus != "" {
		return r.EmailStatus
	}
	return r.ContactEmailStatus
}

// OrgSearchRequest is the body for POST /v1/organizations/search.
type OrgSearchRequest struct {
	Page           int      `json:"page"`
	PerPage        int      `json:"per_page"`
	Keywords       []string `json:"q_organization_keywords,omitempty"`
	Locations      []string `json:"q_organization_locations,omitempty"`
	Industries     []string `json:"q_organization_industries,omitempty"`
	EmployeeRanges []string `json:"q_organization_num_employees_ranges,omitempty"`
}

// OrgSearchResponse is the body of an organization search response.
type OrgSearchResponse struct {
	Organizations []Organization `json:"organizations"`
	Pagination    Pagination     `json:"pagination"`
}
