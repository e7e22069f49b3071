package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bluelink-community/vehicle-connect/internal/log"
	"github.com/bluelink-community/vehicle-connect/pkg/cli"
	"github.com/bluelink-community/vehicle-connect/pkg/server"
)

const defaultPort = 8080

const (
	EnvHost         = "BLUELINK_HTTP_HOST"
	EnvPort         = "PORT"
	EnvTimeout      = "BLUELINK_HTTP_TIMEOUT"
	EnvLogLevel     = "BLUELINK_LOG_LEVEL"
	EnvAlertWebhook = "BLUELINK_ALERT_WEBHOOK"
)

const nonLocalhostWarning = `
Do not listen on a network interface without adding client authentication. Unauthorized clients can
drain your vehicle's 12V battery through forced status refreshes and may get your account blocked
by the vendor's rate limiting.`

type httpServerConfig struct {
	host         string
	port         int
	timeout      time.Duration
	logLevel     string
	alertWebhook string
}

var httpConfig = &httpServerConfig{}

func init() {
	flag.StringVar(&httpConfig.host, "host", "localhost", "Server `hostname`")
	flag.IntVar(&httpConfig.port, "port", defaultPort, "`Port` to listen on")
	flag.DurationVar(&httpConfig.timeout, "timeout", server.DefaultTimeout, "Timeout interval for upstream operations")
	flag.StringVar(&httpConfig.logLevel, "log-level", "", "Log `level`: none, error, warn, info or debug")
	flag.StringVar(&httpConfig.alertWebhook, "alert-webhook", "", "Webhook `URL` notified after every control command")
}

func Usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [OPTION...]\n", os.Args[0])
	fmt.Fprintf(out, "\nA server that exposes a REST API for a Bluelink-connected vehicle")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, nonLocalhostWarning)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
}

func main() {
	config, err := cli.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credential configuration: %s\n", err)
		os.Exit(1)
	}

	defer func() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}()

	flag.Usage = Usage
	config.RegisterCommandLineFlags()
	flag.Parse()
	if err = readFromEnvironment(); err != nil {
		return
	}
	if err = config.ReadFromEnvironment(); err != nil {
		return
	}

	if httpConfig.logLevel != "" {
		var level log.Level
		if level, err = log.LevelFromName(httpConfig.logLevel); err != nil {
			return
		}
		log.SetLevel(level)
	}

	if httpConfig.host != "localhost" {
		fmt.Fprintln(os.Stderr, nonLocalhostWarning)
	}

	if err = config.LoadCredentials(); err != nil {
		return
	}

	vm, err := config.Manager()
	if err != nil {
		return
	}

	// The server is not useful without a working session, so fail fast on startup.
	log.Info("Performing initial login and cache fill...")
	startupCtx, cancel := context.WithTimeout(context.Background(), httpConfig.timeout)
	err = vm.Login(startupCtx)
	if err == nil {
		err = vm.UpdateAllVehiclesWithCachedState(startupCtx)
	}
	cancel()
	if err != nil {
		err = fmt.Errorf("initial login failed, server cannot start: %w", err)
		return
	}

	handler := server.New(vm, config.VIN)
	handler.Timeout = httpConfig.timeout
	if httpConfig.alertWebhook != "" {
		handler.Notifier = server.NewNotifier(httpConfig.alertWebhook)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		if exportErr := config.SaveCache(vm); exportErr != nil {
			log.Error("Failed to export status cache: %s", exportErr)
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf("%s:%d", httpConfig.host, httpConfig.port)
	log.Info("Listening on %s", addr)
	log.Error("Server stopped: %s", http.ListenAndServe(addr, handler))
}

// readFromEnvironment applies configuration from environment variables.
// Values set on the command line are not overwritten.
func readFromEnvironment() error {
	if httpConfig.host == "localhost" {
		if host, ok := os.LookupEnv(EnvHost); ok {
			httpConfig.host = host
		}
	}

	if httpConfig.logLevel == "" {
		httpConfig.logLevel = os.Getenv(EnvLogLevel)
	}

	if httpConfig.alertWebhook == "" {
		httpConfig.alertWebhook = os.Getenv(EnvAlertWebhook)
	}

	var err error
	if httpConfig.port == defaultPort {
		if port, ok := os.LookupEnv(EnvPort); ok {
			httpConfig.port, err = strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid port: %s", port)
			}
		}
	}

	if httpConfig.timeout == server.DefaultTimeout {
		if timeoutEnv, ok := os.LookupEnv(EnvTimeout); ok {
			httpConfig.timeout, err = time.ParseDuration(timeoutEnv)
			if err != nil {
				return fmt.Errorf("invalid timeout: %s", timeoutEnv)
			}
		}
	}

	return nil
}
