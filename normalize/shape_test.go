package normalize

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestNormalizeEmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"nil input", nil},
		{"empty array", []any{}},
		{"empty object", map[string]any{}},
		{"scalar", "not a payload"},
		{"number", 42.0},
		{"no markers", map[string]any{"unrelated": "field"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if got == nil {
				t.Fatal("Normalize returned nil, want empty slice")
			}
			if len(got) != 0 {
				t.Errorf("Normalize(%v) returned %d categories, want 0", tt.raw, len(got))
			}
		})
	}
}

func TestNormalizeBareVerdictMarker(t *testing.T) {
	got := Normalize(decode(t, `{"verdict":"X"}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
	c := got[0]
	if c.Verdict != "X" {
		t.Errorf("verdict = %s, want X", c.Verdict)
	}
	if c.RiskScore != 0 {
		t.Errorf("risk_score = %d, want 0", c.RiskScore)
	}
	if c.Confidence != ConfidenceNA {
		t.Errorf("confidence = %s, want N/A", c.Confidence)
	}
	if c.MaliciousCount != 0 || c.TotalEngines != 0 {
		t.Errorf("counts = %d/%d, want 0/0", c.MaliciousCount, c.TotalEngines)
	}
	if c.Count != 1 {
		t.Errorf("count = %d, want 1", c.Count)
	}
	if c.Detections == nil || len(c.Detections) != 0 {
		t.Errorf("detections = %v, want empty non-nil", c.Detections)
	}
	if c.Raw == nil {
		t.Error("raw payload not preserved")
	}
}

func TestNormalizeShapePriority(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     int
		verdicts []string
	}{
		{
			name:     "top-level array of categories",
			raw:      `[{"verdict":"CLEAN"},{"verdict":"MALICIOUS"}]`,
			want:     2,
			verdicts: []string{"CLEAN", "MALICIOUS"},
		},
		{
			name:     "categories field",
			raw:      `{"categories":[{"verdict":"SUSPICIOUS","risk_score":45}]}`,
			want:     1,
			verdicts: []string{"SUSPICIOUS"},
		},
		{
			name:     "results carrying verdicts are categories",
			raw:      `{"results":[{"verdict":"CLEAN"},{"verdict":"SUSPICIOUS"}]}`,
			want:     2,
			verdicts: []string{"CLEAN", "SUSPICIOUS"},
		},
		{
			name:     "results without verdicts wrap into one category",
			raw:      `{"results":[{"domain":"example.com"},{"domain":"example.org"}]}`,
			want:     1,
			verdicts: []string{"UNKNOWN"},
		},
		{
			name:     "categories wins over results-of-categories",
			raw:      `{"categories":[{"verdict":"CLEAN"}],"results":[{"verdict":"MALICIOUS"},{"verdict":"MALICIOUS"}]}`,
			want:     1,
			verdicts: []string{"CLEAN"},
		},
		{
			name:     "single scan result payload",
			raw:      `{"domain":"example.com","ip":"93.184.216.34"}`,
			want:     1,
			verdicts: []string{"UNKNOWN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(decode(t, tt.raw))
			if len(got) != tt.want {
				t.Fatalf("got %d categories, want %d", len(got), tt.want)
			}
			for i, v := range tt.verdicts {
				if got[i].Verdict != v {
					t.Errorf("category %d verdict = %s, want %s", i, got[i].Verdict, v)
				}
			}
		})
	}
}

func TestNormalizeWrapsItemsAndCount(t *testing.T) {
	got := Normalize(decode(t, `{"verdict":"CLEAN","items":[{"domain":"a.com"},{"domain":"b.com"}]}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
	if len(got[0].Results) != 2 {
		t.Errorf("results = %d, want 2 (sourced from items)", len(got[0].Results))
	}
	if got[0].Count != 2 {
		t.Errorf("count = %d, want 2 (results length)", got[0].Count)
	}

	explicit := Normalize(decode(t, `{"verdict":"CLEAN","count":7}`))
	if explicit[0].Count != 7 {
		t.Errorf("explicit count = %d, want 7", explicit[0].Count)
	}
}

func TestNormalizeScanResultWrap(t *testing.T) {
	got := Normalize(decode(t, `{"input_url":"https://example.com","domain":"example.com","whois":{"registrar":"GoDaddy.com, LLC"}}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
	c := got[0]
	if len(c.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(c.Results))
	}
	r := c.Results[0]
	if r.Domain() != "example.com" {
		t.Errorf("domain = %s, want example.com", r.Domain())
	}
	if r.Whois() == nil {
		t.Error("whois sub-object not preserved")
	}
	if c.Count != 1 {
		t.Errorf("count = %d, want 1", c.Count)
	}
}

func TestNormalizeScanResultWrapKeepsDefaults(t *testing.T) {
	got := Normalize(decode(t, `{"domain":"example.com","count":5,"detections":[
		{"engine":"ESET","result":"phishing"}
	]}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
	c := got[0]
	if c.Count != 5 {
		t.Errorf("count = %d, want explicit 5", c.Count)
	}
	if len(c.Detections) != 1 || c.Detections[0].Engine != "ESET" {
		t.Errorf("detections = %+v, want the ESET detection carried over", c.Detections)
	}
}

func TestNormalizeDetections(t *testing.T) {
	got := Normalize(decode(t, `{"verdict":"MALICIOUS","detections":[
		{"engine":"Fortinet","result":"phishing","threat_type":"phishing"},
		{"engine_name":"BitDefender","category":"malware","type":"malware"},
		"not an object"
	]}`))
	if len(got) != 1 {
		t.Fatalf("expected 1 category, got %d", len(got))
	}
	d := got[0].Detections
	if len(d) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(d))
	}
	if d[0].Engine != "Fortinet" || d[0].Result != "phishing" {
		t.Errorf("detection 0 = %+v", d[0])
	}
	if d[1].Engine != "BitDefender" || d[1].ThreatType != "malware" {
		t.Errorf("aliased detection 1 = %+v", d[1])
	}
}

func TestNormalizeResultArtifacts(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantFavicon    string
		wantScreenshot string
	}{
		{
			name:        "direct url alias wins",
			raw:         `{"favicon_url":"https://cdn.example.com/fav.ico","favicon_base64":"aGVsbG8="}`,
			wantFavicon: "https://cdn.example.com/fav.ico",
		},
		{
			name:        "nested capture service url",
			raw:         `{"favicon":{"url":"https://shots.example.com/fav.png"}}`,
			wantFavicon: "https://shots.example.com/fav.png",
		},
		{
			name:        "base64 wrapped only when no url alias",
			raw:         `{"favicon_base64":"aGVsbG8="}`,
			wantFavicon: "data:image/png;base64,aGVsbG8=",
		},
		{
			name:        "existing data uri passes through",
			raw:         `{"favicon":"data:image/png;base64,aGVsbG8="}`,
			wantFavicon: "data:image/png;base64,aGVsbG8=",
		},
		{
			name:           "screenshot url field",
			raw:            `{"screenshotURL":"https://shots.example.com/page.png"}`,
			wantScreenshot: "https://shots.example.com/page.png",
		},
		{
			name:           "screenshot nested base64",
			raw:            `{"screenshot":{"data":"c2hvdA=="}}`,
			wantScreenshot: "data:image/png;base64,c2hvdA==",
		},
		{
			name: "nothing to resolve",
			raw:  `{"domain":"example.com"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NormalizeResult(decode(t, tt.raw))
			if r.FaviconSrc() != tt.wantFavicon {
				t.Errorf("favicon_src = %q, want %q", r.FaviconSrc(), tt.wantFavicon)
			}
			if r.ScreenshotSrc() != tt.wantScreenshot {
				t.Errorf("screenshot_src = %q, want %q", r.ScreenshotSrc(), tt.wantScreenshot)
			}
		})
	}
}

func TestNormalizeResultPreservesInput(t *testing.T) {
	in := map[string]any{
		"domain":      "example.com",
		"favicon_url": "https://cdn.example.com/fav.ico",
		"dns":         map[string]any{"a": []any{"93.184.216.34"}},
	}
	out := NormalizeResult(in)

	if _, mutated := in["favicon_src"]; mutated {
		t.Error("input map was mutated")
	}
	for k := range in {
		if _, kept := out[k]; !kept {
			t.Errorf("original field %q dropped", k)
		}
	}
	if out.FaviconSrc() != "https://cdn.example.com/fav.ico" {
		t.Errorf("favicon_src = %q", out.FaviconSrc())
	}

	if got := NormalizeResult("not an object"); got != nil {
		t.Errorf("non-object input = %v, want nil", got)
	}
}
