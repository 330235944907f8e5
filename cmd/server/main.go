package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
)

// global, so that we can inject it at build time
var (
	gitCommit      string
	buildTime      string
	buildGoVersion string
)

func main() {
	expose := flag.Bool("expose", false, "expose the server on the network, do not run it just locally")
	portHTTP := flag.Int("port-http", 8822, "port to listen on for http traffic")
	version := flag.Bool("version", false, "print the binary's version")
	flag.Parse()

	if *version {
		fmt.Printf("build commit: %v\nbuild time: %v\ngo version: %v\n", gitCommit, buildTime, buildGoVersion)
		os.Exit(0)
	}

	log.Printf("starting up process %v", os.Getpid())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		defer signal.Stop(signals)

		select {
		case s := <-signals:
			log.Printf("signal %v received, aborting", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, *portHTTP, *expose); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, portHTTP int, expose bool) error {
	host := "localhost"
	if expose {
		host = ""
	}
	address := net.JoinHostPort(host, strconv.Itoa(portHTTP))

	srv := &http.Server{
		Addr:    address,
		Handler: setupRoutes(),
	}

	errs := make(chan error, 1)
	log.Printf("listening on http://%v", address)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("http webserver shutting down")
		return srv.Shutdown(context.Background())
	}
}
