package audit

import (
	"strings"
	"time"

	"github.com/mssola/useragent"
)

// Action mirrors the governing consent's kind in the audit taxonomy.
type Action string

const (
	ActionView  Action = "view"
	ActionEdit  Action = "edit"
	ActionShare Action = "share"
)

// Verdict is the recorded outcome of one access evaluation.
type Verdict string

const (
	VerdictAllowed Verdict = "allowed"
	VerdictDenied  Verdict = "denied"
)

// Entry is one immutable record of an access evaluation. Rows are append-only:
// no update or delete path exists anywhere in the store interfaces.
type Entry struct {
	ID            string
	Action        Action
	Verdict       Verdict
	Reason        string
	Timestamp     time.Time // stamped at write time, never caller-supplied
	SourceAddress string
	ClientInfo    string // normalized browser/os descriptor, empty when unknown
	PatientID     string
	WorkerID      string
}

// DescribeClient reduces a raw User-Agent header to a stable, low-cardinality
// descriptor for the audit trail. Raw UA strings churn constantly; browser,
// os and platform are what an auditor actually reads.
func DescribeClient(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()
	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os = strings.ToLower(strings.TrimSpace(os))
	if os == "" {
		os = "unknown"
	}

	return browser + "/" + os + "/" + platform
}
