// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The pushd command runs a push notification server for testing XMPP push
// clients.
//
// Clients connect over XMPP, authenticate with any credentials, and subscribe
// to notifications.
// Notifications are sent by making HTTP requests to the control interface:
//
//	curl 'http://localhost:8080/sendnotification?channel=test&data=hello'
//
// For more information try running:
//
//	pushd --help
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"mellium.im/pushd/control"
	"mellium.im/pushd/server"
)

const envConfig = "PUSHD_CONFIG"

func main() {
	// Setup logging and a verbose logger that's disabled by default.
	logger := log.New(os.Stderr, "", log.LstdFlags)
	debug := log.New(io.Discard, "DEBUG ", log.LstdFlags)

	if err := run(os.Args[1:], logger, debug); err != nil {
		logger.Fatal(err)
	}
}

func run(args []string, logger, debug *log.Logger) error {
	cfg, verbose, err := parseFlags(args)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return nil
	case err != nil:
		return err
	}

	// Enable verbose logging if the flag was set.
	if verbose {
		debug.SetOutput(os.Stderr)
	}

	opts, err := cfg.options()
	if err != nil {
		return err
	}
	opts = append(opts, server.Logger(logger), server.Debug(debug))
	srv := server.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	go func() {
		logger.Printf("listening for XMPP clients on %s", cfg.Addr)
		errs <- srv.ListenAndServe()
	}()

	var httpSrv *http.Server
	if cfg.ControlAddr != "" {
		httpSrv = &http.Server{
			Addr:    cfg.ControlAddr,
			Handler: control.Handler(srv, logger),
		}
		go func() {
			logger.Printf("serving control interface on %s", cfg.ControlAddr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("control interface: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Print("shutting down")
	case err = <-errs:
	}

	if httpSrv != nil {
		/* #nosec */
		httpSrv.Close()
	}
	if cerr := srv.Close(); err == nil {
		err = cerr
	}
	return err
}

// parseFlags builds the configuration from the config file (if any) and the
// command line flags, which take precedence.
func parseFlags(args []string) (cfg config, verbose bool, err error) {
	var (
		configPath  = os.Getenv(envConfig)
		addr        string
		controlAddr string
		lang        string
		noAuth      bool
	)
	flags := pflag.NewFlagSet("pushd", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", flags.Name())
		fmt.Fprintf(os.Stderr, "\n  $%s: The YAML config file to load\n\n", envConfig)
		flags.PrintDefaults()
	}
	defaults := defaultConfig()
	flags.StringVar(&configPath, "config", configPath, "path to a YAML config file")
	flags.StringVarP(&addr, "addr", "a", defaults.Addr, "address to listen on for XMPP clients")
	flags.StringVar(&controlAddr, "control-addr", defaults.ControlAddr, "address of the HTTP control interface, empty to disable")
	flags.StringVar(&lang, "lang", "", "default xml:lang of stream headers")
	flags.BoolVar(&noAuth, "no-auth", false, "refuse authentication so that clients never subscribe")
	flags.BoolVarP(&verbose, "verbose", "v", false, "turns on verbose debug and XML logging")

	if err = flags.Parse(args); err != nil {
		return cfg, verbose, err
	}

	cfg = defaults
	if configPath != "" {
		cfg, err = loadConfig(configPath)
		if err != nil {
			return cfg, verbose, err
		}
	}
	if flags.Changed("addr") {
		cfg.Addr = addr
	}
	if flags.Changed("control-addr") {
		cfg.ControlAddr = controlAddr
	}
	if flags.Changed("lang") {
		cfg.Lang = lang
	}
	if flags.Changed("no-auth") {
		cfg.RequireAuth = !noAuth
	}
	return cfg, verbose, nil
}
