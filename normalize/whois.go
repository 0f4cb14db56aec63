package normalize

import (
	"math"
	"strings"
	"time"
)

// WHOIS registries and the aggregator's whois providers disagree on field
// names, so every canonical field resolves through an ordered alias list,
// first-defined-wins. Extending support for a new provider means adding a
// key to a table here.
var (
	whoisDomainKeys    = []string{"domain_name", "domainName", "domain", "ldhName"}
	whoisRegistrarKeys = []string{"registrar", "registrar_name", "registrarName"}
	whoisNameKeys      = []string{"registrant_name", "registrantName", "name"}
	whoisOrgKeys       = []string{"org", "organization", "registrant_organization", "registrantOrganization"}
	whoisEmailKeys     = []string{"registrant_email", "registrantEmail", "emails", "email"}
	whoisCountryKeys   = []string{"country", "registrant_country", "registrantCountry"}
	whoisStateKeys     = []string{"state", "region", "registrant_state", "registrantState"}
	whoisCityKeys      = []string{"city", "registrant_city", "registrantCity"}
	whoisCreatedKeys   = []string{"creation_date", "creationDate", "created", "createdDate", "create_date", "registered"}
	whoisUpdatedKeys   = []string{"updated_date", "updatedDate", "updated", "last_updated", "modified"}
	whoisExpiresKeys   = []string{"expiration_date", "expirationDate", "expires", "expiry_date", "expiryDate", "registry_expiry_date", "paid_till"}
	whoisNSKeys        = []string{"name_servers", "nameServers", "nameserver", "nserver"}
	whoisStatusKeys    = []string{"status", "domain_status", "domainStatus"}
	whoisDNSSECKeys    = []string{"dnssec", "dnsSec"}
)

// meaningfulWhoisFields gates whether WHOIS data is surfaced at all: one
// resolvable field is enough.
var meaningfulWhoisFields = [][]string{
	whoisDomainKeys,
	whoisRegistrarKeys,
	whoisOrgKeys,
	whoisEmailKeys,
	whoisCountryKeys,
	whoisCreatedKeys,
	whoisUpdatedKeys,
	whoisExpiresKeys,
	whoisNSKeys,
	whoisStatusKeys,
}

type Registrant struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Email        string `json:"email"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
}

// WhoisDates keeps both the display string and the raw value for each
// date, so an unparseable registry date stays visible instead of being
// silently dropped.
type WhoisDates struct {
	Created    string `json:"created"`
	Updated    string `json:"updated"`
	Expires    string `json:"expires"`
	CreatedRaw any    `json:"created_raw,omitempty"`
	UpdatedRaw any    `json:"updated_raw,omitempty"`
	ExpiresRaw any    `json:"expires_raw,omitempty"`
}

// WhoisRecord is the canonicalized registry record plus derived metrics.
// The derived numeric metrics are nil, not zero, when the underlying date
// could not be parsed.
type WhoisRecord struct {
	Domain         string     `json:"domain"`
	Registrar      string     `json:"registrar"`
	Registrant     Registrant `json:"registrant"`
	Dates          WhoisDates `json:"dates"`
	AgeYears       *float64   `json:"age_years"`
	AgeDays        *int       `json:"age_days"`
	DaysToExpiry   *int       `json:"days_to_expiry"`
	IsExpired      bool       `json:"is_expired"`
	IsExpiringSoon bool       `json:"is_expiring_soon"`
	NameServers    []string   `json:"nameServers"`
	Status         []string   `json:"status"`
	DNSSEC         string     `json:"dnssec"`
}

// HasWhoisData reports whether the record carries at least one
// semantically meaningful registry field under any of its aliases.
func HasWhoisData(w map[string]any) bool {
	if len(w) == 0 {
		return false
	}
	for _, aliases := range meaningfulWhoisFields {
		if _, ok := firstDefined(w, aliases); ok {
			return true
		}
	}
	return false
}

// ParseWhoisData canonicalizes a registry record and computes its derived
// age/expiry metrics against the current time. Returns nil when the
// record carries nothing meaningful.
func ParseWhoisData(w map[string]any) *WhoisRecord {
	if !HasWhoisData(w) {
		return nil
	}
	now := time.Now()

	rec := &WhoisRecord{
		Domain:    resolveString(w, whoisDomainKeys),
		Registrar: resolveString(w, whoisRegistrarKeys),
		Registrant: Registrant{
			Name:         resolveString(w, whoisNameKeys),
			Organization: resolveString(w, whoisOrgKeys),
			Email:        resolveEmail(w),
			Country:      resolveString(w, whoisCountryKeys),
			State:        resolveString(w, whoisStateKeys),
			City:         resolveString(w, whoisCityKeys),
		},
		NameServers: resolveList(w, whoisNSKeys),
		Status:      resolveList(w, whoisStatusKeys),
		DNSSEC:      resolveString(w, whoisDNSSECKeys),
	}

	created, _ := firstDefined(w, whoisCreatedKeys)
	updated, _ := firstDefined(w, whoisUpdatedKeys)
	expires, _ := firstDefined(w, whoisExpiresKeys)
	rec.Dates = WhoisDates{
		Created:    FormatWhoisDate(created),
		Updated:    FormatWhoisDate(updated),
		Expires:    FormatWhoisDate(expires),
		CreatedRaw: created,
		UpdatedRaw: updated,
		ExpiresRaw: expires,
	}

	if t, ok := ParseWhoisDate(created); ok {
		age := DomainAge(t, now)
		days := DomainAgeDays(t, now)
		rec.AgeYears = &age
		rec.AgeDays = &days
	}
	if t, ok := ParseWhoisDate(expires); ok {
		days := DaysUntilExpiration(t, now)
		rec.DaysToExpiry = &days
		rec.IsExpired = IsDomainExpired(days)
		rec.IsExpiringSoon = IsExpiringSoon(days)
	}
	return rec
}

func resolveString(w map[string]any, aliases []string) string {
	v, ok := firstDefined(w, aliases)
	if !ok {
		return ""
	}
	if s := stringVal(firstScalar(v)); s != "" {
		return s
	}
	return ""
}

func resolveList(w map[string]any, aliases []string) []string {
	v, ok := firstDefined(w, aliases)
	if !ok {
		return []string{}
	}
	return stringSlice(v)
}

// Registries commonly report emails as a list; the first one is the
// registrant contact.
func resolveEmail(w map[string]any) string {
	v, ok := firstDefined(w, whoisEmailKeys)
	if !ok {
		return ""
	}
	return stringVal(firstScalar(v))
}

// firstScalar collapses an array-or-scalar registry value into a single
// value. Registries return historical values as arrays; the first element
// is authoritative.
func firstScalar(v any) any {
	if seq, ok := asSlice(v); ok {
		if len(seq) == 0 {
			return nil
		}
		return seq[0]
	}
	return v
}

var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"January 2, 2006",
}

// ParseWhoisDate interprets an array-or-scalar date field. The boolean is
// false for anything machine-unreadable; callers decide between keeping
// the display text and nil-ing the derived metric.
func ParseWhoisDate(v any) (time.Time, bool) {
	v = firstScalar(v)
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return d, true
	case float64, int, int64:
		n := numVal(d)
		if n <= 0 {
			return time.Time{}, false
		}
		// epoch millis vs seconds
		if n > 1e12 {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range whoisDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

// FormatWhoisDate renders a date for display. Unparseable values come
// back as their original text so the information is never lost.
func FormatWhoisDate(v any) string {
	v = firstScalar(v)
	if v == nil {
		return ""
	}
	if t, ok := ParseWhoisDate(v); ok {
		return t.Format("Jan 2, 2006")
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

const daysPerYear = 365.25

// DomainAge is the domain's age in years, rounded to one decimal.
func DomainAge(created, now time.Time) float64 {
	days := now.Sub(created).Hours() / 24
	return math.Round(days/daysPerYear*10) / 10
}

// DomainAgeDays is the whole number of days since registration.
func DomainAgeDays(created, now time.Time) int {
	return int(math.Floor(now.Sub(created).Hours() / 24))
}

// DaysUntilExpiration is negative once the expiry date has passed.
func DaysUntilExpiration(expires, now time.Time) int {
	return int(math.Floor(expires.Sub(now).Hours() / 24))
}

func IsDomainExpired(daysToExpiry int) bool {
	return daysToExpiry < 0
}

func IsExpiringSoon(daysToExpiry int) bool {
	return daysToExpiry >= 0 && daysToExpiry <= 30
}

// AgeRisk is the qualitative bucket for a domain's age: a level key, a
// display color token and a label. Newly registered domains are a strong
// phishing signal.
type AgeRisk struct {
	Level string `json:"level"`
	Color string `json:"color"`
	Label string `json:"label"`
}

func AgeRiskBucket(ageYears *float64) AgeRisk {
	if ageYears == nil {
		return AgeRisk{Level: "Unknown", Color: "is-light", Label: "Unknown Age"}
	}
	switch age := *ageYears; {
	case age < 0.5:
		return AgeRisk{Level: "High", Color: "is-danger", Label: "Very New"}
	case age < 1:
		return AgeRisk{Level: "Medium", Color: "is-warning", Label: "New"}
	case age < 3:
		return AgeRisk{Level: "Low", Color: "is-info", Label: "Established"}
	default:
		return AgeRisk{Level: "Minimal", Color: "is-success", Label: "Well Established"}
	}
}

// knownRegistrars holds lowercase fragments of common registrar names.
// An auxiliary trust signal only; it never feeds verdict computation.
var knownRegistrars = []string{
	"godaddy",
	"namecheap",
	"cloudflare",
	"google",
	"gandi",
	"tucows",
	"enom",
	"network solutions",
	"name.com",
	"porkbun",
	"ionos",
	"ovh",
	"hover",
	"dynadot",
	"markmonitor",
	"squarespace",
	"amazon",
	"alibaba",
	"hostinger",
}

// IsKnownRegistrar does a case-insensitive substring match against the
// registrar allow-list.
func IsKnownRegistrar(registrar string) bool {
	if registrar == "" {
		return false
	}
	lower := strings.ToLower(registrar)
	for _, fragment := range knownRegistrars {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
