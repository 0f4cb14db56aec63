package normalize

// ParseVTResult extracts the nested antivirus-style sub-verdict a
// category may carry in its raw payload. Total and defensive: non-object
// input yields the all-default verdict, numeric coercion falls back to
// zero, and detections default to empty. Count is always forced to 1 —
// this sub-verdict is one consolidated judgment no matter how many
// engines contributed to it.
func ParseVTResult(payload any) VTVerdict {
	out := VTVerdict{
		Verdict:    VerdictUnknown,
		Confidence: ConfidenceFromScore(0),
		Detections: []Detection{},
		Count:      1,
	}
	m, ok := asMap(payload)
	if !ok {
		return out
	}
	if v := stringVal(m["verdict"]); v != "" {
		out.Verdict = v
	}
	out.RiskScore = clampScore(intVal(m["risk_score"]))
	out.MaliciousCount = intVal(m["malicious_count"])
	out.TotalEngines = intVal(m["total_engines"])
	if c := stringVal(m["confidence"]); c != "" {
		out.Confidence = c
	} else {
		out.Confidence = ConfidenceFromScore(out.RiskScore)
	}
	out.Detections = parseDetections(m["detections"])
	return out
}

// IsMalicious reports whether a sub-verdict payload flags the target:
// either the verdict literal is MALICIOUS (case-sensitive) or at least
// one engine judged it malicious. Absent input is never malicious.
func IsMalicious(payload any) bool {
	m, ok := asMap(payload)
	if !ok {
		return false
	}
	if stringVal(m["verdict"]) == VerdictMalicious {
		return true
	}
	return intVal(m["malicious_count"]) > 0
}
