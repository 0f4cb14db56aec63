package normalize

// Verdict literals as the aggregator emits them. Severity only ever
// escalates through rank comparison, never downgrades.
const (
	VerdictClean      = "CLEAN"
	VerdictSuspicious = "SUSPICIOUS"
	VerdictMalicious  = "MALICIOUS"
	VerdictUnknown    = "UNKNOWN"
)

var verdictRank = map[string]int{
	VerdictClean:      1,
	VerdictSuspicious: 2,
	VerdictMalicious:  3,
}

// VerdictRank returns the ordinal severity of a verdict literal. Unknown
// or unrecognized literals rank 0 and so never win an escalation merge.
func VerdictRank(v string) int {
	return verdictRank[v]
}

const (
	ConfidenceLow    = "Low"
	ConfidenceMedium = "Medium"
	ConfidenceHigh   = "High"
	ConfidenceNA     = "N/A"
)

// ConfidenceFromScore derives a confidence label from a 0-100 risk score.
// Only used when the source did not supply its own label.
func ConfidenceFromScore(score int) string {
	switch {
	case score > 70:
		return ConfidenceHigh
	case score > 30:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Detection is one engine's judgment inside an aggregated antivirus-style
// source.
type Detection struct {
	Engine     string `json:"engine"`
	Result     string `json:"result"`
	ThreatType string `json:"threat_type"`
}

// ScanResult is one scanned target's collected metadata. The upstream
// field set is not contractually fixed, so the original keys are kept
// as-is with the canonical favicon_src/screenshot_src keys layered on top.
type ScanResult map[string]any

func (r ScanResult) InputURL() string      { return stringVal(r["input_url"]) }
func (r ScanResult) Domain() string        { return stringVal(r["domain"]) }
func (r ScanResult) IP() string            { return stringVal(r["ip"]) }
func (r ScanResult) FaviconSrc() string    { return stringVal(r["favicon_src"]) }
func (r ScanResult) ScreenshotSrc() string { return stringVal(r["screenshot_src"]) }

// Whois returns the raw registry sub-object, if any. Feed it to
// HasWhoisData / ParseWhoisData on demand.
func (r ScanResult) Whois() map[string]any {
	m, _ := asMap(r["whois"])
	return m
}

func (r ScanResult) DNS() map[string]any {
	m, _ := asMap(r["dns"])
	return m
}

func (r ScanResult) SSL() map[string]any {
	m, _ := asMap(r["ssl"])
	return m
}

// Category is one verdict bucket contributed by one logical upstream data
// source. Raw keeps the original payload untouched; the decision engine
// consults it to tell explicit upstream values apart from defaults.
type Category struct {
	Verdict        string         `json:"verdict"`
	RiskScore      int            `json:"risk_score"`
	Confidence     string         `json:"confidence"`
	MaliciousCount int            `json:"malicious_count"`
	TotalEngines   int            `json:"total_engines"`
	Detections     []Detection    `json:"detections"`
	Results        []ScanResult   `json:"results"`
	Count          int            `json:"count"`
	Raw            map[string]any `json:"_raw,omitempty"`
}

// VTVerdict is the consolidated antivirus-style sub-verdict. Count is
// always 1: one consolidated judgment regardless of contributing engines.
type VTVerdict struct {
	Verdict        string      `json:"verdict"`
	RiskScore      int         `json:"risk_score"`
	Confidence     string      `json:"confidence"`
	MaliciousCount int         `json:"malicious_count"`
	TotalEngines   int         `json:"total_engines"`
	Detections     []Detection `json:"detections"`
	Count          int         `json:"count"`
}
