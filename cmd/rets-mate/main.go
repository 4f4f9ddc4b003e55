/*
 * This file is part of the rets-mate distribution (https://github.com/mlipscombe/rets-mate).
 * Copyright (c) 2024-2026 Mark Lipscombe.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, version 3.
 *
 * This program is distributed in the hope that it will be useful, but
 * WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	healthz "github.com/klyve/go-healthz"
	"github.com/mlipscombe/rets-mate/config"
	"github.com/mlipscombe/rets-mate/monitor"
	"github.com/mlipscombe/rets-mate/rets"
	"github.com/mlipscombe/rets-mate/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// record is one changed listing, written to stdout as an NDJSON line.
type record struct {
	Resource string                 `json:"resource"`
	Class    string                 `json:"class"`
	Key      string                 `json:"key"`
	Fields   map[string]interface{} `json:"fields"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}
	cfg.SetupLogging()

	if cfg.Bind != "false" {
		go func(listenAddress string) {
			log.Infof("Starting metrics server on %s", listenAddress)
			instance := healthz.Instance{
				Logger:   log.New(),
				Detailed: true,
			}

			http.Handle("/metrics", promhttp.Handler())
			http.Handle("/healthz", instance.Healthz())
			http.Handle("/liveness", instance.Liveness())

			if err := http.ListenAndServe(listenAddress, nil); err != nil {
				log.Errorf("HTTP server error: %v", err)
			}
		}(cfg.Bind)
	}

	client := rets.NewClient(rets.Config{
		LoginURL:          cfg.LoginURL,
		Username:          cfg.Username,
		Password:          cfg.Password,
		UserAgent:         cfg.UserAgent,
		UserAgentPassword: cfg.UserAgentPassword,
		Version:           cfg.RetsVersion,
	}, transport.NewClient(cfg.Timeout))

	if err := client.Login(); err != nil {
		log.Fatalf("Failed to login to %s: %s", cfg.LoginURL, err)
	}
	log.Infof("Connected to %s (session %q)", cfg.LoginURL, client.SessionID())

	if len(cfg.Watches) == 0 {
		log.Warn("No watches configured, nothing to poll")
	}

	encoder := json.NewEncoder(os.Stdout)
	var encoderMutex sync.Mutex

	// Start a monitor per watch and collect ready channels
	var watchesReady []chan bool
	for _, watch := range cfg.Watches {
		ready := monitor.StartSearchMonitor(client, monitor.Watch{
			Resource: watch.Resource,
			Class:    watch.Class,
			Query:    watch.Query,
			KeyField: watch.KeyField,
			Interval: watch.Interval,
			Limit:    watch.Limit,
			Flatten:  watch.Flatten,
		}, func(key string, fields map[string]interface{}) {
			encoderMutex.Lock()
			defer encoderMutex.Unlock()
			if err := encoder.Encode(record{
				Resource: watch.Resource,
				Class:    watch.Class,
				Key:      key,
				Fields:   fields,
			}); err != nil {
				log.Errorf("Failed to write record: %s", err)
			}
		})
		watchesReady = append(watchesReady, ready)
	}

	go func() {
		for _, ready := range watchesReady {
			<-ready
		}
		log.Infof("All %d watches primed", len(watchesReady))
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	if _, err := client.Logout(); err != nil {
		log.Errorf("Failed to logout: %s", err)
	}
}
