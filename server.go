package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Version = "2026AUG01"

type Server struct {
	Session        *scs.SessionManager      `json:"-"`
	StopCh         chan bool                `json:"-"`
	Cache          *Cache                   `json:"-"`
	DB             Database                 `json:"-"`
	Hub            *Hub                     `json:"-"`
	Gateway        *http.ServeMux           `json:"-"`
	Log            *log.Logger              `json:"-"`
	Memory         *sync.RWMutex            `json:"-"`
	Aggregator     *Endpoint                `json:"-"`
	ID             string                   `json:"id"`
	Details        Details                  `json:"details"`
	ScanVerdicts   *prometheus.CounterVec   `json:"-"`
	EngineDuration *prometheus.HistogramVec `json:"-"`
}

type Details struct {
	CorsOrigins   []string           `json:"cors_origins"`
	FirstUserMode bool               `json:"first_user_mode"`
	FQDN          string             `json:"fqdn"`
	Address       string             `json:"address"`
	StartTime     time.Time          `json:"start_time"`
	Stats         map[string]float64 `json:"stats"`
}

type Cache struct {
	Charts []byte `json:"charts"`
}

func NewServer(cfg Configuration, logger *log.Logger) (*Server, error) {
	var database Database
	switch cfg.DBMode {
	case "bbolt":
		db, err := NewBboltDB(cfg.DBLocation)
		if err != nil {
			return nil, fmt.Errorf("bbolt could not open database: %v", err)
		}
		database = db
	case "postgres":
		db, err := NewPostgresDB(cfg.DBLocation)
		if err != nil {
			return nil, fmt.Errorf("postgres could not open database: %v", err)
		}
		database = db
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBMode)
	}

	sessionMgr := scs.New()
	sessionMgr.Lifetime = 24 * time.Hour
	sessionMgr.IdleTimeout = 1 * time.Hour
	sessionMgr.Cookie.Persist = true
	sessionMgr.Cookie.Name = "token"
	sessionMgr.Cookie.SameSite = http.SameSiteLaxMode
	sessionMgr.Cookie.HttpOnly = true
	if cfg.SessionTokenTTL > 0 {
		sessionMgr.Lifetime = time.Duration(cfg.SessionTokenTTL) * time.Hour
	}

	id := cfg.ServerID
	if id == "" {
		id = fmt.Sprintf("%v-%v-%v", time.Now().Unix(), Version, "non-prod")
	}

	auth := AuthFromConfig(cfg.AggregatorAuth, cfg.AggregatorKey)

	svr := &Server{
		Session:    sessionMgr,
		StopCh:     make(chan bool),
		Cache:      &Cache{Charts: []byte("<p>no data yet</p>")},
		DB:         database,
		Hub:        NewHub(),
		Gateway:    http.NewServeMux(),
		Log:        logger,
		Memory:     &sync.RWMutex{},
		Aggregator: NewEndpoint(cfg.AggregatorURL, auth, cfg.Insecure, cfg.AggregatorRPS, cfg.AggregatorBurst),
		ID:         id,
		Details: Details{
			CorsOrigins:   cfg.CorsOrigins,
			FirstUserMode: cfg.FirstUserMode,
			FQDN:          cfg.FQDN,
			Address:       ":" + cfg.HTTPPort,
			StartTime:     time.Now(),
			Stats:         make(map[string]float64),
		},
	}
	if len(svr.Details.CorsOrigins) == 0 {
		svr.Details.CorsOrigins = []string{cfg.FQDN}
	}

	svr.ScanVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_verdicts_total",
			Help: "Scans grouped by their final verdict",
		},
		[]string{"verdict"},
	)
	svr.EngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_duration_seconds",
			Help:    "Duration of normalization and verdict decisions",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"stage"},
	)
	prometheus.MustRegister(svr.ScanVerdicts)
	prometheus.MustRegister(svr.EngineDuration)

	svr.registerRoutes()
	logger.Println("server initialized with ID:", svr.ID)
	return svr, nil
}

func (s *Server) registerRoutes() {
	s.Gateway.Handle("/login", s.RateLimit(http.HandlerFunc(s.LoginHandler)))
	s.Gateway.Handle("/scan", http.HandlerFunc(s.ValidateSessionToken(s.ScanHandler)))
	s.Gateway.Handle("/history", http.HandlerFunc(s.ValidateSessionToken(s.HistoryHandler)))
	s.Gateway.Handle("/charts", http.HandlerFunc(s.ValidateSessionToken(s.ChartsHandler)))
	s.Gateway.Handle("/stats", http.HandlerFunc(s.ValidateSessionToken(s.StatsHandler)))
	s.Gateway.Handle("/ws", http.HandlerFunc(s.ServeWs))
	s.Gateway.Handle("/metrics", promhttp.Handler())
	// first user mode leaves registration open so the instance can be
	// bootstrapped, after that it takes a session
	if s.Details.FirstUserMode {
		s.Gateway.Handle("/adduser", s.RateLimit(http.HandlerFunc(s.AddUserHandler)))
	} else {
		s.Gateway.Handle("/adduser", http.HandlerFunc(s.ValidateSessionToken(s.AddUserHandler)))
	}
}

func (s *Server) addStat(key string, value float64) {
	s.Memory.Lock()
	defer s.Memory.Unlock()
	s.Details.Stats[key] += value
}
