package cmd

import (
	"strings"

	"github.com/spf13/viper"
)

func settingDefaultConfig() {
	// Enable automatic environment variable binding
	viper.AutomaticEnv()

	// Map environment variables to Viper keys for the orchestrator
	viper.BindEnv("orchestrator.url", "ORCHESTRATOR_URL")
	viper.BindEnv("orchestrator.tenant", "ORCHESTRATOR_TENANT")
	viper.BindEnv("orchestrator.folder_id", "ORCHESTRATOR_FOLDER_ID")
	viper.BindEnv("orchestrator.folder_key", "ORCHESTRATOR_FOLDER_KEY")
	viper.BindEnv("orchestrator.client_id", "CLIENT_ID")
	viper.BindEnv("orchestrator.client_secret", "CLIENT_SECRET")
	viper.BindEnv("orchestrator.scope", "ORCHESTRATOR_SCOPE")
	viper.BindEnv("orchestrator.timeout", "ORCHESTRATOR_TIMEOUT")

	// Per-integration wiring: submission mode, lookup, backoff, budgets
	for _, name := range []string{"availability", "booking"} {
		prefix := name + "."
		env := map[string]string{
			"mode":              "MODE",
			"lookup":            "LOOKUP",
			"release_key":       "RELEASE_KEY",
			"webhook_url":       "WEBHOOK_URL",
			"process_name":      "PROCESS_NAME",
			"backoff":           "BACKOFF",
			"max_attempts":      "MAX_ATTEMPTS",
			"not_found_retries": "NOT_FOUND_RETRIES",
			"initial_delay":     "INITIAL_DELAY",
			"max_delay":         "MAX_DELAY",
			"poll_interval":     "POLL_INTERVAL",
			"max_wait":          "MAX_WAIT",
			"extract_depth":     "EXTRACT_DEPTH",
			"nested_field":      "NESTED_FIELD",
		}
		for key, suffix := range env {
			viper.BindEnv(prefix+key, strings.ToUpper(name)+"_"+suffix)
		}
	}

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Set default values for the orchestrator
	viper.SetDefault("orchestrator.url", "https://cloud.example.com/org")
	viper.SetDefault("orchestrator.tenant", "default")
	viper.SetDefault("orchestrator.scope", "OR.Jobs OR.Jobs.Read")
	viper.SetDefault("orchestrator.timeout", "30s")

	// Availability checks start the release directly and poll by job key
	viper.SetDefault("availability.mode", "start")
	viper.SetDefault("availability.lookup", "key")
	viper.SetDefault("availability.process_name", "check_availability")
	viper.SetDefault("availability.backoff", "exponential")
	viper.SetDefault("availability.max_attempts", 15)
	viper.SetDefault("availability.not_found_retries", 3)
	viper.SetDefault("availability.initial_delay", "1s")
	viper.SetDefault("availability.max_delay", "10s")
	viper.SetDefault("availability.poll_interval", "5s")
	viper.SetDefault("availability.max_wait", "2m")
	viper.SetDefault("availability.extract_depth", 1)
	viper.SetDefault("availability.nested_field", "")

	// Bookings go through the webhook trigger and poll by process recency
	viper.SetDefault("booking.mode", "webhook")
	viper.SetDefault("booking.lookup", "process")
	viper.SetDefault("booking.process_name", "book_appointment")
	viper.SetDefault("booking.backoff", "fixed")
	viper.SetDefault("booking.max_attempts", 15)
	viper.SetDefault("booking.not_found_retries", 3)
	viper.SetDefault("booking.initial_delay", "1s")
	viper.SetDefault("booking.max_delay", "10s")
	viper.SetDefault("booking.poll_interval", "5s")
	viper.SetDefault("booking.max_wait", "2m")
	viper.SetDefault("booking.extract_depth", 1)
	viper.SetDefault("booking.nested_field", "")

	// Set default values for the server
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.shutdown_timeout", "5s")
}
