package model

import (
	"strings"
	"time"
)

// DocumentStatus tracks whether the customer has opened a document.
type DocumentStatus string

const (
	DocumentNew        DocumentStatus = "New"
	DocumentDownloaded DocumentStatus = "Downloaded"
	DocumentViewed     DocumentStatus = "Viewed"
)

// DocumentStatuses lists every status in display order.
func DocumentStatuses() []DocumentStatus {
	return []DocumentStatus{DocumentNew, DocumentDownloaded, DocumentViewed}
}

// Document is a file attached to a policy.
type Document struct {
	ID        string
	PolicyID  string
	Name      string
	Issued    time.Time
	Status    DocumentStatus
	CreatedAt time.Time
}

// PolicyDocument pairs a document with the policy it belongs to, for cross-policy listings.
type PolicyDocument struct {
	Document
	PolicyNumber string
	PolicyHolder string
}

// MaxDocumentSize bounds uploads accepted by the console.
const MaxDocumentSize = 10 << 20

// NewDocument is the upload-document form (the file travels alongside).
type NewDocument struct {
	Name     string         `form:"name"   validate:"required,max=255"`
	Issued   time.Time      `form:"issued"`
	Status   DocumentStatus `form:"status"`
	FileName string         `form:"document" validate:"required"`
	Size     int64
}

// Validate normalises and checks the upload metadata.
func (n *NewDocument) Validate() error {
	n.Name = strings.TrimSpace(n.Name)
	if n.Status == "" {
		n.Status = DocumentNew
	}
	ve := &ValidationError{}
	checkStruct(ve, n)
	if n.Issued.IsZero() {
		ve.add("issued", "Issue date is required")
	}
	if n.Size > MaxDocumentSize {
		ve.add("document", "File is too large (max 10 MB)")
	}
	ok := false
	for _, s := range DocumentStatuses() {
		ok = ok || s == n.Status
	}
	if !ok {
		ve.add("status", "Status is invalid")
	}
	return ve.orNil()
}

// FilterDocuments keeps documents matching q (name, policy number, holder) and status.
func FilterDocuments(docs []PolicyDocument, q, status string) []PolicyDocument {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]PolicyDocument, 0, len(docs))
	for _, d := range docs {
		if status != "" && status != "all" && !strings.EqualFold(string(d.Status), status) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.Name), q) &&
			!strings.Contains(strings.ToLower(d.PolicyNumber), q) &&
			!strings.Contains(strings.ToLower(d.PolicyHolder), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}
