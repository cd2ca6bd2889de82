package model

import (
	"encoding/json"
	"strings"
)

// Contact is a candidate contact discovered by the search stage. Identity is
// fixed at discovery; verification and push enrich it in place during a run.
type Contact struct {
	ID           string `json:"id,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Title        string `json:"title,omitempty"`
	Email        string `json:"email,omitempty"`
	EmailStatus  string `json:"email_status,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Organization string `json:"organization,omitempty"`
	Location     string `json:"location,omitempty"`

	// Raw is the untouched provider record, passed through for callers that
	// need fields the normalized shape drops.
	Raw json.RawMessage `json:"raw,omitempty"`

	// Verification is set by the verify stage.
	Verification *Verification `json:"verification,omitempty"`

	// Push is set by the push stage.
	Push *PushAck `json:"push,omitempty"`
}

// Identity is the dedup and upsert key: the lowercased email when present,
// otherwise the provider-issued id.
func (c Contact) Identity() string {
	if c.Email != "" {
		return strings.ToLower(strings.TrimSpace(c.Email))
	}
	return c.ID
}

// FullName joins the name parts, tolerating either being empty.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Verification is the outcome payload of a successful email verification.
type Verification struct {
	Result    string `json:"result"`
	Score     int    `json:"score"`
	SMTPCheck bool   `json:"smtp_check"`
}

// Deliverable reports whether the provider classified the address as safe
// to send to.
func (v Verification) Deliverable() bool {
	return v.Result == "deliverable"
}

// PushAck is the outcome payload of a successful CRM upsert.
type PushAck struct {
	Provider string `json:"provider"`
	RecordID string `json:"record_id"`
	Updated  bool   `json:"updated"`
}
