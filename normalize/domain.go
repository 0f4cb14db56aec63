package normalize

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain folds a scan-target host onto its eTLD+1, so
// sub.example.co.uk and example.co.uk land in the same history entries.
func RegistrableDomain(host string) (string, error) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return publicsuffix.EffectiveTLDPlusOne(host)
}
