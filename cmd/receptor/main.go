// Command receptor is the terminal board for a reception module. It logs
// in as an attendant, shows the module's room queue and follows it live.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"qms/shift-service/internal/client"
	"qms/shift-service/internal/feed"
	"qms/shift-service/internal/logging"
	"qms/shift-service/internal/receptor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "receptor:", err)
		os.Exit(1)
	}
}

type options struct {
	apiURL   string
	moduleIP string
	email    string
	password string
	logLevel string
}

// parseFlags reads the console options. Flags default to RECEPTOR_* variables.
func parseFlags(args []string) (options, bool, error) {
	var opts options
	flagSet := pflag.NewFlagSet("receptor", pflag.ContinueOnError)
	flagSet.StringVar(&opts.apiURL, "api-url", envOr("RECEPTOR_API_URL", "http://localhost:8080"), "shift-service base URL")
	flagSet.StringVar(&opts.moduleIP, "module-ip", os.Getenv("RECEPTOR_MODULE_IP"), "IP address registered for this module")
	flagSet.StringVar(&opts.email, "email", os.Getenv("RECEPTOR_EMAIL"), "attendant email")
	flagSet.StringVar(&opts.password, "password", os.Getenv("RECEPTOR_PASSWORD"), "attendant password")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return opts, false, nil
		}
		return opts, false, err
	}
	if opts.moduleIP == "" || opts.email == "" || opts.password == "" {
		return opts, false, errors.New("--module-ip, --email and --password are required")
	}
	return opts, true, nil
}

func run() error {
	_ = godotenv.Load()

	opts, ok, err := parseFlags(os.Args[1:])
	if err != nil || !ok {
		return err
	}
	apiURL, moduleIP := opts.apiURL, opts.moduleIP

	logger := logging.New(opts.logLevel, "text", "receptor")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	authService := client.NewAuthService(httpClient, apiURL, moduleIP)
	token, err := authService.Login(ctx, opts.email, opts.password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := authService.Logout(logoutCtx, token); err != nil {
			logger.Warn("logout", "error", err)
		}
	}()

	realtimeURL, err := feed.RealtimeURL(apiURL)
	if err != nil {
		return err
	}
	api := client.New(httpClient, apiURL, moduleIP).WithToken(token)
	board := receptor.NewBoard(api, feed.NewSubscriber(realtimeURL, logger), os.Stdout, logger)
	defer board.Close()

	if err := board.Load(ctx); err != nil {
		return err
	}
	logger.Info("receptor ready", "module", board.Module().Name)

	<-ctx.Done()
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
