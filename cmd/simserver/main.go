// Command simserver serves a grid world simulator over a websocket, so
// that environments in other processes can connect to it as a remote
// simulator.
//
// Usage:
//
//	simserver [flags]
//
// Flags:
//
//	-addr    Listen address (default: localhost:8765)
//	-config  Path to environment YAML; its environment and scene file
//	         settings are used
//	-scenes  Path to a scene YAML file, overriding the config
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samuelfneumann/navlearn/environment/envconfig"
	"github.com/samuelfneumann/navlearn/environment/robothor/gridsim"
	"github.com/samuelfneumann/navlearn/environment/robothor/remote"
	"gopkg.in/yaml.v3"
)

func main() {
	addr := flag.String("addr", "localhost:8765", "Listen address")
	configPath := flag.String("config", "", "Path to environment YAML")
	scenePath := flag.String("scenes", "", "Path to scene YAML")
	flag.Parse()

	logger := log.New(os.Stderr, "simserver: ", log.LstdFlags)

	c := envconfig.Default()
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			logger.Fatalf("Failed to read config: %v", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			logger.Fatalf("Failed to parse config: %v", err)
		}
	}
	if *scenePath != "" {
		c.Simulator.SceneFile = *scenePath
	}

	scenes := gridsim.DemoScenes()
	if c.Simulator.SceneFile != "" {
		var err error
		if scenes, err = gridsim.LoadScenes(c.Simulator.SceneFile); err != nil {
			logger.Fatalf("Failed to load scenes: %v", err)
		}
	}
	sim, err := gridsim.New(c.Environment, scenes...)
	if err != nil {
		logger.Fatalf("Failed to create simulator: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", remote.NewServer(sim, logger).Handler())
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("Serving %v scenes on %s", len(scenes), *addr)
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Printf("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("Shutdown: %v", err)
	}
	sim.Stop()
}
