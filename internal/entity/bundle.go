package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// Bundle is the normalized per-IP threat-intelligence snapshot merging all
// provider data and the computed threat report. It is immutable once built;
// consumers must treat every field as read-only.
type Bundle struct {
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`

	// Per-provider slices. Each is independently optional; a nil provider
	// never blocks synthesis for the others.
	Geo        *GeoLocation  `json:"geo,omitempty"`
	Network    *NetworkOwner `json:"network,omitempty"`
	Reputation *Reputation   `json:"reputation,omitempty"`
	FileIntel  *FileIntel    `json:"file_intel,omitempty"`
	Exposure   *Exposure     `json:"exposure,omitempty"`

	ThreatReport ThreatReport `json:"threat_report"`

	// Raw is the untouched upstream document, kept for the export endpoint.
	Raw json.RawMessage `json:"-"`
}

// GeoLocation holds the ipapi geolocation slice of a bundle.
type GeoLocation struct {
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	Region      string   `json:"region"`
	RegionName  string   `json:"region_name"`
	City        string   `json:"city"`
	Zip         string   `json:"zip"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Timezone    string   `json:"timezone"`
}

// NetworkOwner holds network ownership data for a bundle.
type NetworkOwner struct {
	Org string `json:"org"`
	ISP string `json:"isp"`
	ASN string `json:"asn"`
}

// Reputation holds the AbuseIPDB slice of a bundle.
type Reputation struct {
	ConfidenceScore int    `json:"confidence_score"`
	TotalReports    int    `json:"total_reports"`
	ISP             string `json:"isp"`
}

// FileIntel holds the VirusTotal scanner-consensus slice of a bundle.
type FileIntel struct {
	Harmless   int `json:"harmless"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
}

// Exposure holds the Shodan open-port scan slice of a bundle.
type Exposure struct {
	Ports []int  `json:"ports"`
	Org   string `json:"org"`
	OS    string `json:"os"`
}

// ThreatReport is the computed risk verdict attached to every bundle.
type ThreatReport struct {
	IP         string   `json:"ip"`
	Score      int      `json:"score"`
	Verdict    Verdict  `json:"verdict"`
	Categories []string `json:"categories"`
	ReportText string   `json:"report_text"`
}

// Verdict is the categorical risk label attached to a threat report. The
// upstream service decorates the label (emoji, casing), so matching is
// substring-based and case-insensitive.
type Verdict string

// Severity buckets a verdict for display purposes.
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityLow     Severity = "low"
	SeverityNeutral Severity = "neutral"
)

// Severity maps a verdict to its severity bucket. Total: unrecognized
// verdicts fall through to neutral.
func (v Verdict) Severity() Severity {
	s := strings.ToLower(string(v))
	switch {
	case strings.Contains(s, "malicious"):
		return SeverityHigh
	case strings.Contains(s, "suspicious"):
		return SeverityMedium
	case strings.Contains(s, "benign"):
		return SeverityLow
	default:
		return SeverityNeutral
	}
}
