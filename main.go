package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var configPath = flag.String("config", "config.json", "path to the JSON configuration file")

func main() {
	flag.Parse()
	logger := log.New(os.Stdout, "sitevet ", log.LstdFlags|log.Lshortfile)

	var cfg Configuration
	if err := cfg.PopulateFromJSONFile(*configPath); err != nil {
		logger.Fatal(err)
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8081"
	}
	if cfg.ChartTickRate < 1 {
		cfg.ChartTickRate = 30
	}

	s, err := NewServer(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer s.DB.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	go s.Hub.Run()

	ticker := time.NewTicker(time.Duration(cfg.ChartTickRate) * time.Second)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.UpdateCharts()
			case <-sigs:
				s.Log.Println("shutting down")
				ticker.Stop()
				s.DB.Close()
				os.Exit(0)
			case <-s.StopCh:
				s.Log.Println("shutting down")
				ticker.Stop()
				s.DB.Close()
				os.Exit(0)
			}
		}
	}()

	svr := &http.Server{
		Addr:    s.Details.Address,
		Handler: s.CORSMiddleware(s.Session.LoadAndSave(s.Gateway)),
	}
	s.Log.Println("server started at", s.Details.Address)
	log.Fatal(svr.ListenAndServe())
}
