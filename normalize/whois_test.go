package normalize

import (
	"testing"
	"time"
)

func TestHasWhoisData(t *testing.T) {
	tests := []struct {
		name string
		w    map[string]any
		want bool
	}{
		{"nil record", nil, false},
		{"empty record", map[string]any{}, false},
		{"registrar only", map[string]any{"registrar": "GoDaddy.com, LLC"}, true},
		{"aliased creation date", map[string]any{"creationDate": "2020-01-01"}, true},
		{"name servers", map[string]any{"name_servers": []any{"ns1.example.com"}}, true},
		{"only noise", map[string]any{"raw_text": "...", "query_time": "now"}, false},
		{"empty strings do not count", map[string]any{"registrar": ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasWhoisData(tt.w); got != tt.want {
				t.Errorf("HasWhoisData = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseWhoisDataAliases(t *testing.T) {
	w := map[string]any{
		"domainName":              "example.com",
		"registrar_name":          "Namecheap, Inc.",
		"registrant_organization": "Example Org",
		"registrantCountry":       "US",
		"region":                  "CA",
		"city":                    "San Francisco",
		"registrant_name":         "Jane Admin",
		"emails":                  []any{"admin@example.com", "abuse@example.com"},
		"creation_date":           []any{"2020-01-01", "1995-08-13"},
		"registry_expiry_date":    "2030-01-01",
		"nameServers":             []any{"ns1.example.com", "ns2.example.com"},
		"domain_status":           "clientTransferProhibited",
		"dnssec":                  "unsigned",
	}

	rec := ParseWhoisData(w)
	if rec == nil {
		t.Fatal("ParseWhoisData returned nil")
	}
	if rec.Domain != "example.com" {
		t.Errorf("domain = %s", rec.Domain)
	}
	if rec.Registrar != "Namecheap, Inc." {
		t.Errorf("registrar = %s", rec.Registrar)
	}
	if rec.Registrant.Organization != "Example Org" {
		t.Errorf("organization = %s", rec.Registrant.Organization)
	}
	if rec.Registrant.Email != "admin@example.com" {
		t.Errorf("email = %s, want first of list", rec.Registrant.Email)
	}
	if rec.Registrant.Country != "US" || rec.Registrant.State != "CA" || rec.Registrant.City != "San Francisco" {
		t.Errorf("registrant location = %+v", rec.Registrant)
	}
	// first element of a date sequence is authoritative
	if rec.Dates.Created != "Jan 1, 2020" {
		t.Errorf("created display = %s", rec.Dates.Created)
	}
	if len(rec.NameServers) != 2 {
		t.Errorf("name servers = %v", rec.NameServers)
	}
	if len(rec.Status) != 1 || rec.Status[0] != "clientTransferProhibited" {
		t.Errorf("status = %v", rec.Status)
	}
	if rec.AgeYears == nil || rec.AgeDays == nil || rec.DaysToExpiry == nil {
		t.Fatal("derived metrics missing for parseable dates")
	}
	if rec.IsExpired {
		t.Error("2030 expiry flagged as expired")
	}
}

func TestParseWhoisDataNilForEmpty(t *testing.T) {
	if rec := ParseWhoisData(map[string]any{"unrelated": true}); rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
}

func TestParseWhoisDataMalformedDate(t *testing.T) {
	w := map[string]any{
		"registrar":     "Obscure Registry Ltd",
		"creation_date": "before the epoch, probably",
	}
	rec := ParseWhoisData(w)
	if rec == nil {
		t.Fatal("ParseWhoisData returned nil")
	}
	// display keeps the original text, metrics stay nil
	if rec.Dates.Created != "before the epoch, probably" {
		t.Errorf("created display = %q, want original string", rec.Dates.Created)
	}
	if rec.AgeYears != nil || rec.AgeDays != nil {
		t.Error("derived metrics computed from an unparseable date")
	}
}

func TestParseWhoisDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		ok   bool
	}{
		{"rfc3339", "2020-01-01T00:00:00Z", true},
		{"date only", "2020-01-01", true},
		{"registry format", "13-Aug-1995", true},
		{"dotted", "2020.01.02", true},
		{"epoch seconds", 1577836800.0, true},
		{"epoch millis", 1577836800000.0, true},
		{"sequence takes first", []any{"2020-01-01", "garbage"}, true},
		{"empty sequence", []any{}, false},
		{"garbage", "not a date", false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseWhoisDate(tt.in); ok != tt.ok {
				t.Errorf("ParseWhoisDate(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			}
		})
	}
}

func TestDomainAgeMetrics(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	age := DomainAge(created, now)
	if age < 0.9 || age > 1.1 {
		t.Errorf("DomainAge = %v, want ~1.0", age)
	}
	days := DomainAgeDays(created, now)
	if days != 366 { // 2024 is a leap year
		t.Errorf("DomainAgeDays = %d, want 366", days)
	}
}

func TestDaysUntilExpiration(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	past := DaysUntilExpiration(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), now)
	if past >= 0 {
		t.Errorf("past expiry = %d, want negative", past)
	}
	if !IsDomainExpired(past) {
		t.Error("negative days-to-expiry not flagged expired")
	}

	soon := DaysUntilExpiration(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), now)
	if !IsExpiringSoon(soon) {
		t.Errorf("expiry in %d days not flagged as expiring soon", soon)
	}
	if IsExpiringSoon(past) {
		t.Error("expired domain flagged as expiring soon")
	}
	far := DaysUntilExpiration(time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC), now)
	if IsExpiringSoon(far) {
		t.Errorf("expiry in %d days flagged as expiring soon", far)
	}
}

func TestAgeRiskBucket(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }

	tests := []struct {
		name  string
		age   *float64
		level string
		label string
	}{
		{"unknown", nil, "Unknown", "Unknown Age"},
		{"very new", ptr(0.2), "High", "Very New"},
		{"new", ptr(0.7), "Medium", "New"},
		{"established", ptr(2.0), "Low", "Established"},
		{"well established", ptr(10.0), "Minimal", "Well Established"},
		{"boundary three years", ptr(3.0), "Minimal", "Well Established"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AgeRiskBucket(tt.age)
			if got.Level != tt.level || got.Label != tt.label {
				t.Errorf("AgeRiskBucket = %+v, want %s/%s", got, tt.level, tt.label)
			}
			if got.Color == "" {
				t.Error("bucket missing color token")
			}
		})
	}
}

func TestIsKnownRegistrar(t *testing.T) {
	tests := []struct {
		registrar string
		want      bool
	}{
		{"GoDaddy.com, LLC", true},
		{"NAMECHEAP INC", true},
		{"Cloudflare, Inc.", true},
		{"MarkMonitor Inc.", true},
		{"Obscure Registry Ltd", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsKnownRegistrar(tt.registrar); got != tt.want {
			t.Errorf("IsKnownRegistrar(%q) = %v, want %v", tt.registrar, got, tt.want)
		}
	}
}

func TestFormatWhoisDate(t *testing.T) {
	if got := FormatWhoisDate("2020-01-01"); got != "Jan 1, 2020" {
		t.Errorf("FormatWhoisDate = %q", got)
	}
	if got := FormatWhoisDate("whenever"); got != "whenever" {
		t.Errorf("unparseable date = %q, want original text", got)
	}
	if got := FormatWhoisDate(nil); got != "" {
		t.Errorf("nil date = %q, want empty", got)
	}
}
