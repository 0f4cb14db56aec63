package vendors

import "encoding/json"

// Typed structures for the upstream scan aggregator. These model the
// documented envelope only; the normalize package handles the drifting
// parts of the schema, so nothing here is required to be exhaustive.

type ScanRequest struct {
	URL string `json:"url"`
}

// ScanEnvelope is the best-documented of the aggregator's response
// shapes: a list of per-source verdict buckets.
type ScanEnvelope struct {
	Categories []ScanCategory `json:"categories,omitempty"`
	Results    []ScanTarget   `json:"results,omitempty"`
	Count      int            `json:"count,omitempty"`
}

type ScanCategory struct {
	Verdict        string          `json:"verdict,omitempty"`
	RiskScore      int             `json:"risk_score,omitempty"`
	Confidence     string          `json:"confidence,omitempty"`
	MaliciousCount int             `json:"malicious_count,omitempty"`
	TotalEngines   int             `json:"total_engines,omitempty"`
	Detections     []ScanDetection `json:"detections,omitempty"`
	Results        []ScanTarget    `json:"results,omitempty"`
	Count          int             `json:"count,omitempty"`
}

type ScanDetection struct {
	Engine     string `json:"engine"`
	Result     string `json:"result"`
	ThreatType string `json:"threat_type,omitempty"`
}

// ScanTarget carries one scanned host. The whois/dns/ssl sub-objects are
// left untyped: their layout varies per underlying provider.
type ScanTarget struct {
	InputURL      string         `json:"input_url,omitempty"`
	Domain        string         `json:"domain,omitempty"`
	IP            string         `json:"ip,omitempty"`
	Whois         map[string]any `json:"whois,omitempty"`
	DNS           map[string]any `json:"dns,omitempty"`
	SSL           map[string]any `json:"ssl,omitempty"`
	FaviconURL    string         `json:"favicon_url,omitempty"`
	ScreenshotURL string         `json:"screenshot_url,omitempty"`
}

// EngineStats mirrors the antivirus-aggregator tallies some sources
// attach to a category.
type EngineStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
	Timeout    int `json:"timeout"`
}

func UnmarshalScanEnvelope(data []byte) (ScanEnvelope, error) {
	var e ScanEnvelope
	err := json.Unmarshal(data, &e)
	return e, err
}

func (e *ScanEnvelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
