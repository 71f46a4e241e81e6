package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "rpabridge/handler/http"
	"rpabridge/src/core/jobflow"
	"rpabridge/src/infrastructure/orchestrator"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge server",
	Long:  `The serve command starts the HTTP server that bridges voice-agent tool calls to orchestrator jobs.`,
	Run:   RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	settingDefaultConfig()
}

func RunServer(cmd *cobra.Command, args []string) {
	// Initialize orchestrator client with config from viper
	client := orchestrator.NewClient(orchestrator.Config{
		BaseURL:      viper.GetString("orchestrator.url"),
		Tenant:       viper.GetString("orchestrator.tenant"),
		FolderID:     viper.GetString("orchestrator.folder_id"),
		FolderKey:    viper.GetString("orchestrator.folder_key"),
		ClientID:     viper.GetString("orchestrator.client_id"),
		ClientSecret: viper.GetString("orchestrator.client_secret"),
		Scope:        viper.GetString("orchestrator.scope"),
		Timeout:      viper.GetDuration("orchestrator.timeout"),
	})

	availability, err := buildFlow("availability", client)
	if err != nil {
		log.Fatalf("Failed to configure availability flow: %v", err)
	}
	booking, err := buildFlow("booking", client)
	if err != nil {
		log.Fatalf("Failed to configure booking flow: %v", err)
	}

	handler := httpHdlr.NewHandler(availability, booking)
	r := httpHdlr.NewRouter(handler)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Printf("Invalid shutdown timeout: %v, using default 5s", err)
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// buildFlow assembles one integration's pipeline from its config block.
func buildFlow(name string, client *orchestrator.Client) (*jobflow.Flow, error) {
	prefix := name + "."

	var launch jobflow.LaunchFunc
	switch mode := viper.GetString(prefix + "mode"); mode {
	case "start":
		key := viper.GetString(prefix + "release_key")
		if key == "" {
			return nil, fmt.Errorf("%s: release_key is required in start mode", name)
		}
		launch = jobflow.StartJobLaunch(client, key)
	case "webhook":
		url := viper.GetString(prefix + "webhook_url")
		if url == "" {
			return nil, fmt.Errorf("%s: webhook_url is required in webhook mode", name)
		}
		if viper.GetString(prefix+"lookup") == "process" {
			launch = jobflow.WebhookProcessLaunch(client, url, viper.GetString(prefix+"process_name"))
		} else {
			launch = jobflow.WebhookLaunch(client, url)
		}
	default:
		return nil, fmt.Errorf("%s: unknown mode %q", name, mode)
	}

	var policy jobflow.DelayPolicy
	switch backoff := viper.GetString(prefix + "backoff"); backoff {
	case "fixed":
		policy = jobflow.FixedDelay{Interval: viper.GetDuration(prefix + "poll_interval")}
	case "exponential":
		policy = jobflow.ExponentialBackoff{
			Initial: viper.GetDuration(prefix + "initial_delay"),
			Max:     viper.GetDuration(prefix + "max_delay"),
		}
	default:
		return nil, fmt.Errorf("%s: unknown backoff policy %q", name, backoff)
	}

	budget := jobflow.Budget{
		MaxAttempts:     viper.GetInt(prefix + "max_attempts"),
		NotFoundRetries: viper.GetInt(prefix + "not_found_retries"),
		MaxWait:         viper.GetDuration(prefix + "max_wait"),
	}
	extract := jobflow.Extractor{
		Depth:       viper.GetInt(prefix + "extract_depth"),
		NestedField: viper.GetString(prefix + "nested_field"),
	}

	return jobflow.NewFlow(name, launch, policy, budget, extract), nil
}
