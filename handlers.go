package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/rexlx/sitevet/normalize"
)

type ScanRequest struct {
	URL string `json:"url"`
}

type ScanResponse struct {
	ID         string               `json:"id"`
	URL        string               `json:"url"`
	Domain     string               `json:"domain,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
	Result     []normalize.Category `json:"result"`
	Enrichment *ScanEnrichment      `json:"enrichment,omitempty"`
}

// ScanEnrichment layers the registry- and reputation-derived extras on
// top of the raw verdict when the caller asks for them.
type ScanEnrichment struct {
	Whois          *normalize.WhoisRecord `json:"whois,omitempty"`
	AgeRisk        normalize.AgeRisk      `json:"age_risk"`
	KnownRegistrar bool                   `json:"known_registrar"`
	VT             normalize.VTVerdict    `json:"vt"`
	Malicious      bool                   `json:"malicious"`
}

func (s *Server) ScanHandler(w http.ResponseWriter, r *http.Request) {
	defer s.addStat("scan_requests", 1)
	defer func(start time.Time) {
		s.Log.Println("ScanHandler took", time.Since(start))
	}(time.Now())

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "missing 'url' field", http.StatusBadRequest)
		return
	}

	raw, err := s.Aggregator.Scan(r.Context(), req.URL)
	if err != nil {
		var se *ScanError
		if errors.As(err, &se) {
			s.Log.Printf("aggregator refused %s: %v", req.URL, se)
			http.Error(w, se.Error(), http.StatusBadGateway)
			return
		}
		s.Log.Printf("aggregator unreachable for %s: %v", req.URL, err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	start := time.Now()
	result := normalize.DecideVerdict(normalize.Normalize(raw))
	s.EngineDuration.WithLabelValues("decide").Observe(time.Since(start).Seconds())

	resp := ScanResponse{
		ID:        uuid.New().String(),
		URL:       req.URL,
		Domain:    registrableHost(req.URL),
		Timestamp: time.Now(),
		Result:    result,
	}
	if r.URL.Query().Get("enrich") == "true" {
		resp.Enrichment = enrich(raw, result)
	}

	if err := s.DB.AddHistory(HistoryRecord{URL: req.URL, Timestamp: resp.Timestamp, Result: result}); err != nil {
		s.Log.Println("could not record history:", err)
	}

	verdict, risk := topVerdict(result)
	s.ScanVerdicts.WithLabelValues(verdict).Inc()
	s.Hub.Broadcast(ScanEvent{URL: req.URL, Domain: resp.Domain, Verdict: verdict, RiskScore: risk, Time: resp.Timestamp})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// registrableHost folds a scan target onto its registrable domain so two
// targets on the same site group together in the feed. Hosts without a
// public suffix (bare IPs, localhost) pass through as-is.
func registrableHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if d, err := normalize.RegistrableDomain(host); err == nil {
		return d
	}
	return host
}

// topVerdict reduces a result set to the single worst signal for the
// dashboard feed.
func topVerdict(result []normalize.Category) (string, int) {
	verdict := normalize.VerdictClean
	risk := 0
	for _, c := range result {
		if normalize.VerdictRank(c.Verdict) > normalize.VerdictRank(verdict) {
			verdict = c.Verdict
		}
		if c.RiskScore > risk {
			risk = c.RiskScore
		}
	}
	if len(result) == 0 {
		verdict = normalize.VerdictUnknown
	}
	return verdict, risk
}

func enrich(raw any, result []normalize.Category) *ScanEnrichment {
	e := &ScanEnrichment{
		VT:        normalize.ParseVTResult(raw),
		Malicious: normalize.IsMalicious(raw),
	}
	for _, c := range result {
		for _, res := range c.Results {
			w := res.Whois()
			if !normalize.HasWhoisData(w) {
				continue
			}
			e.Whois = normalize.ParseWhoisData(w)
			if e.Whois != nil {
				e.AgeRisk = normalize.AgeRiskBucket(e.Whois.AgeYears)
				e.KnownRegistrar = normalize.IsKnownRegistrar(e.Whois.Registrar)
				return e
			}
		}
	}
	e.AgeRisk = normalize.AgeRiskBucket(nil)
	return e
}

func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	defer s.addStat("history_requests", 1)
	history, err := s.DB.GetHistory()
	if err != nil {
		// history is advisory, an unreadable store shows as empty
		s.Log.Println("could not read history:", err)
		history = []HistoryRecord{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

func (s *Server) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	defer s.addStat("chart_requests", 1)
	s.Memory.RLock()
	defer s.Memory.RUnlock()
	w.Header().Set("Content-Type", "text/html")
	w.Write(s.Cache.Charts)
}

type AddUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

func (s *Server) AddUserHandler(w http.ResponseWriter, r *http.Request) {
	defer s.addStat("user_saves", 1)
	var req AddUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "missing 'email' or 'password' field", http.StatusBadRequest)
		return
	}
	u, err := NewUser(req.Email, req.Password, req.Admin)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.DB.AddUser(*u); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": u.ID, "email": u.Email})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	defer s.addStat("login_requests", 1)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, err := s.DB.GetUserByEmail(req.Email)
	if err != nil || user.Email == "" || !user.CheckPassword(req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := s.Session.RenewToken(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.Session.Put(r.Context(), "email", user.Email)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"email": user.Email})
}

func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	s.Memory.RLock()
	defer s.Memory.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Details)
}
