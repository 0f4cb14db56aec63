package normalize

import "math"

// assumedEnginePool is the default engine pool size assumed for
// antivirus-aggregator sources that report detections without saying how
// many engines ran.
const assumedEnginePool = 70

// Classification thresholds. A category is malicious on a high score or
// broad engine consensus, suspicious on a moderate one.
const (
	maliciousScoreThreshold  = 70
	maliciousCountThreshold  = 10
	suspiciousScoreThreshold = 40
	suspiciousCountThreshold = 3
)

// DecideVerdict reconciles each category's signals into a final verdict.
// Pure and total: input categories are not mutated, every numeric
// operation has a defined fallback, and nil passes through unchanged.
//
// Per category:
//  1. count results whose own risk score exceeds 50
//  2. add the detection count; detections imply an aggregator source, so
//     the engine pool is assumed to be at least 70
//  3. explicit upstream malicious_count/total_engines override the
//     derived values entirely — real counts beat weaker signals
//  4. risk score is recomputed from the counts when the pool is known,
//     else the pre-existing score stands
//  5. classify, then merge with any verdict the source already supplied;
//     the merge only ever escalates severity
func DecideVerdict(categories []Category) []Category {
	if categories == nil {
		return nil
	}
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, decideOne(c))
	}
	return out
}

func decideOne(c Category) Category {
	malicious := 0
	for _, r := range c.Results {
		if intVal(r["risk_score"]) > 50 {
			malicious++
		}
	}

	engines := c.TotalEngines
	if len(c.Detections) > 0 {
		malicious += len(c.Detections)
		if engines < assumedEnginePool {
			engines = assumedEnginePool
		}
	}

	if v, ok := explicitInt(c.Raw, "malicious_count"); ok {
		malicious = v
	}
	if v, ok := explicitInt(c.Raw, "total_engines"); ok {
		engines = v
	}

	risk := c.RiskScore
	if engines > 0 {
		risk = int(math.Round(float64(malicious) / float64(engines) * 100))
	}
	risk = clampScore(risk)

	verdict := classify(risk, malicious)
	if VerdictRank(c.Verdict) > VerdictRank(verdict) {
		verdict = c.Verdict
	}

	if engines < 1 {
		engines = 1
	}

	out := c
	out.Verdict = verdict
	out.RiskScore = risk
	out.MaliciousCount = malicious
	out.TotalEngines = engines
	return out
}

func classify(risk, malicious int) string {
	switch {
	case risk >= maliciousScoreThreshold || malicious >= maliciousCountThreshold:
		return VerdictMalicious
	case risk >= suspiciousScoreThreshold || malicious >= suspiciousCountThreshold:
		return VerdictSuspicious
	default:
		return VerdictClean
	}
}

// explicitInt reports a value only when the source genuinely supplied the
// key; the typed Category alone cannot tell an explicit zero from a
// defaulted one.
func explicitInt(raw map[string]any, key string) (int, bool) {
	if raw == nil {
		return 0, false
	}
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	return intVal(v), true
}
