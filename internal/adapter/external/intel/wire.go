package intel

import (
	"encoding/json"
	"math"
	"time"

	"github.com/VishwasN1706/airis/internal/entity"
)

// Wire types for the lookup service response. Every provider block is
// independently optional, and a failed provider is reported in place as an
// {"error": "..."} object, so all provider fields decode leniently.

type lookupResponse struct {
	IP           string            `json:"ip"`
	Timestamp    string            `json:"timestamp"`
	RawData      *rawData          `json:"raw_data"`
	ThreatReport *wireThreatReport `json:"threat_report"`
}

type rawData struct {
	AbuseIPDB  *abuseEnvelope `json:"AbuseIPDB"`
	VirusTotal *vtEnvelope    `json:"VirusTotal"`
	Shodan     *shodanData    `json:"Shodan"`
	IPAPI      *ipapiData     `json:"ipapi"`
}

type abuseEnvelope struct {
	Error string     `json:"error"`
	Data  *abuseData `json:"data"`
}

type abuseData struct {
	AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	TotalReports         int    `json:"totalReports"`
	ISP                  string `json:"isp"`
}

type vtEnvelope struct {
	Error string  `json:"error"`
	Data  *vtData `json:"data"`
}

type vtData struct {
	Attributes struct {
		LastAnalysisStats *vtStats `json:"last_analysis_stats"`
	} `json:"attributes"`
}

type vtStats struct {
	Harmless   int `json:"harmless"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
}

type shodanData struct {
	Error string `json:"error"`
	Ports []int  `json:"ports"`
	Org   string `json:"org"`
	OS    string `json:"os"`
}

type ipapiData struct {
	Error       string   `json:"error"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	Region      string   `json:"region"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	Zip         string   `json:"zip"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Timezone    string   `json:"timezone"`
	ISP         string   `json:"isp"`
	Org         string   `json:"org"`
	AS          string   `json:"as"`
}

type wireThreatReport struct {
	IP         string   `json:"ip"`
	Score      float64  `json:"score"`
	Verdict    string   `json:"verdict"`
	Categories []string `json:"categories"`
	ReportText string   `json:"report_text"`
}

// timestampLayouts covers RFC 3339 and the naive ISO-8601 variant the lookup
// service emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// normalize converts a decoded wire response into the immutable bundle. It
// never fails: absent or errored provider blocks simply leave the matching
// bundle slice nil.
func normalize(resp *lookupResponse, raw []byte) *entity.Bundle {
	b := &entity.Bundle{
		IP:        resp.IP,
		Timestamp: parseTimestamp(resp.Timestamp),
		Raw:       json.RawMessage(raw),
	}

	if rd := resp.RawData; rd != nil {
		if geo := rd.IPAPI; geo != nil && geo.Error == "" {
			b.Geo = &entity.GeoLocation{
				Country:     geo.Country,
				CountryCode: geo.CountryCode,
				Region:      geo.Region,
				RegionName:  geo.RegionName,
				City:        geo.City,
				Zip:         geo.Zip,
				Latitude:    geo.Lat,
				Longitude:   geo.Lon,
				Timezone:    geo.Timezone,
			}
			b.Network = &entity.NetworkOwner{
				Org: geo.Org,
				ISP: geo.ISP,
				ASN: geo.AS,
			}
		}

		if ab := rd.AbuseIPDB; ab != nil && ab.Error == "" && ab.Data != nil {
			b.Reputation = &entity.Reputation{
				ConfidenceScore: ab.Data.AbuseConfidenceScore,
				TotalReports:    ab.Data.TotalReports,
				ISP:             ab.Data.ISP,
			}
		}

		if vt := rd.VirusTotal; vt != nil && vt.Error == "" && vt.Data != nil {
			if stats := vt.Data.Attributes.LastAnalysisStats; stats != nil {
				b.FileIntel = &entity.FileIntel{
					Harmless:   stats.Harmless,
					Malicious:  stats.Malicious,
					Suspicious: stats.Suspicious,
					Undetected: stats.Undetected,
				}
			}
		}

		if sh := rd.Shodan; sh != nil && sh.Error == "" {
			b.Exposure = &entity.Exposure{
				Ports: sh.Ports,
				Org:   sh.Org,
				OS:    sh.OS,
			}
		}
	}

	if tr := resp.ThreatReport; tr != nil {
		b.ThreatReport = entity.ThreatReport{
			IP:         tr.IP,
			Score:      clampScore(tr.Score),
			Verdict:    entity.Verdict(tr.Verdict),
			Categories: tr.Categories,
			ReportText: tr.ReportText,
		}
	}

	return b
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// clampScore rounds the upstream float score to the nearest integer and pins
// it to the documented 0-100 range.
func clampScore(score float64) int {
	n := int(math.Round(score))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
