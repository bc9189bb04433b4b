// Package synthesis renders a slice of a threat-intelligence bundle into a
// human-readable bot reply. Every field access has an explicit default, so a
// bundle with any combination of absent providers still synthesizes cleanly.
package synthesis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VishwasN1706/airis/internal/entity"
	"github.com/VishwasN1706/airis/internal/usecase/intent"
)

const (
	// NoBundleReply is returned for any utterance submitted before a
	// successful lookup.
	NoBundleReply = "No data available yet. Search for an IP address first."

	// NoFileIntelReply is returned when the VirusTotal slice is absent.
	NoFileIntelReply = "No VirusTotal data available."

	// NoReputationReply is returned when the AbuseIPDB slice is absent.
	NoReputationReply = "No AbuseIPDB data found."

	// FallbackReply lists the recognized example utterances.
	FallbackReply = `I can answer questions about this report. Try one of:
- "show risk score"
- "visualize location"
- "vt stats"
- "abuse reports"
- "shodan ports"`
)

const unknown = "Unknown"

// Synthesize renders the bundle slice matching the given intent. A nil bundle
// yields the fixed no-data reply regardless of intent.
func Synthesize(tag intent.Intent, b *entity.Bundle) string {
	if b == nil {
		return NoBundleReply
	}

	switch tag {
	case intent.IntentLocation:
		return synthesizeLocation(b)
	case intent.IntentRisk:
		return synthesizeRisk(b)
	case intent.IntentFileIntel:
		return synthesizeFileIntel(b)
	case intent.IntentReputation:
		return synthesizeReputation(b)
	case intent.IntentExposure:
		return synthesizeExposure(b)
	default:
		return FallbackReply
	}
}

func synthesizeLocation(b *entity.Bundle) string {
	city, region, country := unknown, unknown, unknown
	lat, lon, tz := unknown, unknown, unknown

	if g := b.Geo; g != nil {
		city = orUnknown(g.City)
		region = orUnknown(g.RegionName)
		country = orUnknown(g.Country)
		tz = orUnknown(g.Timezone)
		lat = formatCoordinate(g.Latitude)
		lon = formatCoordinate(g.Longitude)
	}

	owner := unknown
	if n := b.Network; n != nil {
		// Prefer the registered organization, fall back to the ISP label.
		switch {
		case n.Org != "":
			owner = n.Org
		case n.ISP != "":
			owner = n.ISP
		}
	}

	return fmt.Sprintf("This IP is located in %s, %s, %s.\nCoordinates: %s, %s\nTimezone: %s\nNetwork: %s",
		city, region, country, lat, lon, tz, owner)
}

func synthesizeRisk(b *entity.Bundle) string {
	r := b.ThreatReport

	categories := "None"
	if len(r.Categories) > 0 {
		categories = strings.Join(r.Categories, ", ")
	}

	return fmt.Sprintf("Risk Score: %d%%\nVerdict: %s\nCategories: %s\n%s",
		r.Score, r.Verdict, categories, r.ReportText)
}

func synthesizeFileIntel(b *entity.Bundle) string {
	fi := b.FileIntel
	if fi == nil {
		return NoFileIntelReply
	}

	return fmt.Sprintf("VirusTotal scanner verdicts: Harmless: %d, Malicious: %d, Suspicious: %d, Undetected: %d",
		fi.Harmless, fi.Malicious, fi.Suspicious, fi.Undetected)
}

func synthesizeReputation(b *entity.Bundle) string {
	rep := b.Reputation
	if rep == nil {
		return NoReputationReply
	}

	isp := orUnknown(rep.ISP)
	return fmt.Sprintf("AbuseIPDB Confidence: %d%%\nTotal Reports: %d\nISP: %s",
		rep.ConfidenceScore, rep.TotalReports, isp)
}

func synthesizeExposure(b *entity.Bundle) string {
	ports := "None"
	org, os := unknown, unknown

	if e := b.Exposure; e != nil {
		if len(e.Ports) > 0 {
			ports = joinPorts(e.Ports)
		}
		org = orUnknown(e.Org)
		os = orUnknown(e.OS)
	}

	return fmt.Sprintf("Open Ports: %s\nOrganization: %s\nOperating System: %s",
		ports, org, os)
}

// formatCoordinate renders a latitude/longitude to exactly 4 decimal digits.
// %.4f rounds half-to-even; this is the pinned rounding rule.
func formatCoordinate(v *float64) string {
	if v == nil {
		return unknown
	}
	return fmt.Sprintf("%.4f", *v)
}

func joinPorts(ports []int) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
