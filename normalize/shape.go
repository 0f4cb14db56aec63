package normalize

import "strings"

// The aggregator fans out to independent reputation sources and its
// response schema drifts with them. Normalize classifies a payload into
// canonical categories by trying the known shapes in a fixed priority
// order, most specific first. Unrecognized shapes yield an empty slice,
// never an error.
//
// Priority order (first match wins):
//  1. the payload is itself a sequence of categories
//  2. payload.categories is a sequence of categories
//  3. payload.results is a sequence whose first element carries a verdict,
//     meaning results are categories rather than scan targets
//  4. the payload carries a category marker (verdict/risk_score/results)
//     and is wrapped into one synthetic category
//  5. the payload carries a scan-result marker (input_url/domain/ip) and
//     becomes the single result of one synthetic category
//  6. anything else normalizes to nothing
func Normalize(raw any) []Category {
	if raw == nil {
		return []Category{}
	}
	if seq, ok := asSlice(raw); ok {
		return categoriesFrom(seq)
	}
	m, ok := asMap(raw)
	if !ok {
		return []Category{}
	}
	if seq, ok := asSlice(m["categories"]); ok {
		return categoriesFrom(seq)
	}
	if seq, ok := asSlice(m["results"]); ok && len(seq) > 0 {
		if first, isMap := asMap(seq[0]); isMap {
			if _, hasVerdict := first["verdict"]; hasVerdict {
				return categoriesFrom(seq)
			}
		}
	}
	if hasAnyKey(m, "verdict", "risk_score", "results") {
		return []Category{wrapCategory(m)}
	}
	if hasAnyKey(m, "input_url", "domain", "ip") {
		return []Category{{
			Verdict:        VerdictUnknown,
			Confidence:     ConfidenceNA,
			MaliciousCount: intVal(m["malicious_count"]),
			TotalEngines:   intVal(m["total_engines"]),
			Detections:     parseDetections(m["detections"]),
			Results:        []ScanResult{NormalizeResult(m)},
			Count:          resolveCount(m["count"], 1),
			Raw:            m,
		}}
	}
	return []Category{}
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func categoriesFrom(seq []any) []Category {
	out := make([]Category, 0, len(seq))
	for _, item := range seq {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		out = append(out, asCategory(m))
	}
	return out
}

// asCategory normalizes an element that is already category-shaped. The
// confidence label is taken verbatim when supplied and derived from the
// risk score otherwise.
func asCategory(m map[string]any) Category {
	risk := clampScore(intVal(m["risk_score"]))
	verdict := stringVal(m["verdict"])
	if verdict == "" {
		verdict = VerdictUnknown
	}
	confidence := stringVal(m["confidence"])
	if confidence == "" {
		confidence = ConfidenceFromScore(risk)
	}
	results := normalizeResults(m["results"])
	return Category{
		Verdict:        verdict,
		RiskScore:      risk,
		Confidence:     confidence,
		MaliciousCount: intVal(m["malicious_count"]),
		TotalEngines:   intVal(m["total_engines"]),
		Detections:     parseDetections(m["detections"]),
		Results:        results,
		Count:          resolveCount(m["count"], len(results)),
		Raw:            m,
	}
}

// wrapCategory builds the synthetic category for a bare payload that
// carries category markers but is not a category sequence. Defaults are
// deliberately inert: UNKNOWN, zero scores, N/A confidence. The whole
// original payload rides along in Raw for downstream handling.
func wrapCategory(m map[string]any) Category {
	verdict := stringVal(m["verdict"])
	if verdict == "" {
		verdict = VerdictUnknown
	}
	confidence := stringVal(m["confidence"])
	if confidence == "" {
		confidence = ConfidenceNA
	}
	rawResults := m["results"]
	if _, ok := asSlice(rawResults); !ok {
		rawResults = m["items"]
	}
	results := normalizeResults(rawResults)
	return Category{
		Verdict:        verdict,
		RiskScore:      clampScore(intVal(m["risk_score"])),
		Confidence:     confidence,
		MaliciousCount: intVal(m["malicious_count"]),
		TotalEngines:   intVal(m["total_engines"]),
		Detections:     parseDetections(m["detections"]),
		Results:        results,
		Count:          resolveCount(m["count"], len(results)),
		Raw:            m,
	}
}

// resolveCount: explicit count, else the results length, else 1.
func resolveCount(v any, resultLen int) int {
	if n := intVal(v); n > 0 {
		return n
	}
	if resultLen > 0 {
		return resultLen
	}
	return 1
}

var detectionEngineKeys = []string{"engine", "engine_name", "engineName", "name"}
var detectionResultKeys = []string{"result", "category", "verdict"}
var detectionThreatKeys = []string{"threat_type", "threatType", "type"}

// parseDetections is total: anything that is not a sequence of objects
// becomes an empty, never nil, slice.
func parseDetections(v any) []Detection {
	out := make([]Detection, 0)
	seq, ok := asSlice(v)
	if !ok {
		return out
	}
	for _, item := range seq {
		m, isMap := asMap(item)
		if !isMap {
			continue
		}
		var d Detection
		if val, found := firstDefined(m, detectionEngineKeys); found {
			d.Engine = stringVal(val)
		}
		if val, found := firstDefined(m, detectionResultKeys); found {
			d.Result = stringVal(val)
		}
		if val, found := firstDefined(m, detectionThreatKeys); found {
			d.ThreatType = stringVal(val)
		}
		out = append(out, d)
	}
	return out
}

func normalizeResults(v any) []ScanResult {
	out := make([]ScanResult, 0)
	seq, ok := asSlice(v)
	if !ok {
		return out
	}
	for _, item := range seq {
		if m, isMap := asMap(item); isMap {
			out = append(out, NormalizeResult(m))
		}
	}
	return out
}

// Alias tables for the favicon/screenshot references. Different capture
// services name these differently; new provider shapes are added by
// extending a table, not by new branches.
var (
	faviconURLKeys       = []string{"favicon_src", "favicon_url", "faviconUrl", "faviconSrc", "icon_url", "iconUrl"}
	faviconNestedKeys    = []string{"favicon", "icon"}
	faviconDataKeys      = []string{"favicon_base64", "faviconBase64", "favicon_data", "icon_base64"}
	screenshotURLKeys    = []string{"screenshot_src", "screenshot_url", "screenshotUrl", "screenshotSrc", "screenshotURL"}
	screenshotNestedKeys = []string{"screenshot", "capture"}
	screenshotDataKeys   = []string{"screenshot_base64", "screenshotBase64", "screenshot_data"}
)

var nestedURLKeys = []string{"url", "src", "link", "href"}
var nestedDataKeys = []string{"base64", "data", "content"}

// NormalizeResult resolves the canonical favicon_src and screenshot_src
// references for one scan target. It layers the canonical keys on top of
// a shallow copy of the input; no original field is dropped or altered.
// Non-object input has nothing to canonicalize and yields nil.
func NormalizeResult(r any) ScanResult {
	m, ok := asMap(r)
	if !ok {
		return nil
	}
	out := make(ScanResult, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	if src := resolveArtifact(m, faviconURLKeys, faviconNestedKeys, faviconDataKeys); src != "" {
		out["favicon_src"] = src
	}
	if src := resolveArtifact(m, screenshotURLKeys, screenshotNestedKeys, screenshotDataKeys); src != "" {
		out["screenshot_src"] = src
	}
	return out
}

// resolveArtifact tries, in order: a direct remote-URL alias, a nested
// capture-service object, then an embedded base64 payload. The base64
// form is only wrapped into a data URI when no URL alias resolved.
func resolveArtifact(m map[string]any, urlKeys, nestedKeys, dataKeys []string) string {
	for _, k := range urlKeys {
		if s := stringVal(m[k]); isRemoteRef(s) {
			return s
		}
	}
	var embedded string
	for _, k := range nestedKeys {
		switch v := m[k].(type) {
		case string:
			if isRemoteRef(v) {
				return v
			}
			if embedded == "" {
				embedded = v
			}
		case map[string]any:
			for _, nk := range nestedURLKeys {
				if s := stringVal(v[nk]); isRemoteRef(s) {
					return s
				}
			}
			if embedded == "" {
				for _, nk := range nestedDataKeys {
					if s := stringVal(v[nk]); s != "" {
						embedded = s
						break
					}
				}
			}
		}
	}
	if embedded == "" {
		for _, k := range dataKeys {
			if s := stringVal(m[k]); s != "" {
				embedded = s
				break
			}
		}
	}
	if embedded == "" {
		return ""
	}
	if strings.HasPrefix(embedded, "data:") {
		return embedded
	}
	return "data:image/png;base64," + embedded
}

func isRemoteRef(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "//") ||
		strings.HasPrefix(s, "data:")
}
