package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type Configuration struct {
	ServerID        string   `json:"server_id"`
	FirstUserMode   bool     `json:"first_user_mode"`
	FQDN            string   `json:"fqdn"`
	HTTPPort        string   `json:"http_port"`
	AggregatorURL   string   `json:"aggregator_url"`
	AggregatorKey   string   `json:"aggregator_key"`
	AggregatorAuth  string   `json:"aggregator_auth"`
	AggregatorRPS   float64  `json:"aggregator_rps"`
	AggregatorBurst int      `json:"aggregator_burst"`
	Insecure        bool     `json:"insecure"`
	DBMode          string   `json:"db_mode"`
	DBLocation      string   `json:"db_location"`
	SessionTokenTTL int      `json:"session_token_ttl"`
	ChartTickRate   int      `json:"chart_tick_rate"`
	CorsOrigins     []string `json:"cors_origins"`
}

func (c *Configuration) PopulateFromJSONFile(fh string) error {
	if !FileExists(fh) {
		return fmt.Errorf("file does not exist: %s", fh)
	}
	file, err := os.Open(fh)
	if err != nil {
		return fmt.Errorf("could not open file: %v", err)
	}
	defer file.Close()
	d := json.NewDecoder(file)
	if err := d.Decode(c); err != nil {
		return fmt.Errorf("could not decode file: %v", err)
	}
	return nil
}

func FileExists(fh string) bool {
	info, err := os.Stat(fh)
	if os.IsNotExist(err) {
		return false
	}
	return info.Mode().IsRegular()
}
