package main

import (
	"log"
	"os"
	"os/signal"
	"pongrank/internal/back"
	"pongrank/internal/config"
	"pongrank/internal/web"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

func serve(conf *config.Config) error {
	if !conf.AuthEnabled() {
		log.Print("warning: no API token configured, anyone can submit tournaments")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	b, err := back.New("sqlite3", conf.DBPath, conf, reg)
	if err != nil {
		return err
	}
	defer b.Close()

	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	done := make(chan struct{})
	server := web.NewServer(b, conf, reg)
	wg.Add(1)
	go server.Serve(&wg, done)

	sig := <-signaled
	log.Printf("info: received signal %d", sig)
	close(done)
	wg.Wait()

	log.Print("info: shutdown complete")

	return nil
}
