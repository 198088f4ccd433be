package models

import "time"

// DemandDraftSchemaVersion is bumped when the draft payload shape
// changes. Loads tolerate older versions by defaulting missing fields.
const DemandDraftSchemaVersion = 1

// DemandDraft snapshots an in-progress booking flow so the user can
// resume after navigating away: the selected demand plus any in-flight
// reservation token. Storage medium is an implementation detail of the
// draft repository.
type DemandDraft struct {
	SchemaVersion int          `json:"schema_version"`
	UserID        string       `json:"user_id"`
	Items         []DemandItem `json:"items"`
	SessionToken  string       `json:"session_token,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Normalize applies forward-compatible defaulting after deserialization:
// unknown versions keep their data, missing fields fall back to safe
// values.
func (d *DemandDraft) Normalize() {
	if d.SchemaVersion == 0 {
		d.SchemaVersion = DemandDraftSchemaVersion
	}
	for i := range d.Items {
		item := &d.Items[i]
		if item.RequestedSessions == 0 {
			item.RequestedSessions = item.Hours
		}
		if !item.TeachingType.Valid() {
			item.TeachingType = SessionOneToOne
		}
		if item.Scope.Kind == "" {
			item.Scope = GlobalScope()
		}
	}
}
