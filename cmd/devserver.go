package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/fakeapi"
	"github.com/theirongolddev/hbudget/internal/model"
)

var (
	flagDevAddr  string
	flagDevToken string
	flagDevSeed  bool
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory budget API for local development",
	Long: "Serve the budget API from memory. Point the client at it with\n" +
		"  hbudget --api-url http://<addr> ...\n" +
		"and log in with the printed token.",
	Args: cobra.NoArgs,
	RunE: runDevServer,
}

func init() {
	devServerCmd.Flags().StringVar(&flagDevAddr, "addr", "127.0.0.1:5000", "HTTP listen address")
	devServerCmd.Flags().StringVar(&flagDevToken, "token", "", "Bearer token to accept (random if empty)")
	devServerCmd.Flags().BoolVar(&flagDevSeed, "seed", true, "Start with a few sample budgets")
	rootCmd.AddCommand(devServerCmd)
}

func runDevServer(_ *cobra.Command, _ []string) error {
	// gin defaults to debug mode; keep release unless GIN_MODE says otherwise.
	if mode, ok := os.LookupEnv("GIN_MODE"); ok {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	token := flagDevToken
	if token == "" {
		token = uuid.NewString()
	}

	fake := fakeapi.New(token)
	fake.BaseURL = "http://" + flagDevAddr
	if flagDevSeed {
		fake.Seed(
			model.Fields{"name": "Rent", "amount": 1200, "category": "Housing"},
			model.Fields{"name": "Groceries", "amount": 450.75, "category": "Food"},
			model.Fields{"name": "Bus pass", "amount": 65, "category": "Transport"},
		)
	}

	server := &http.Server{
		Addr:              flagDevAddr,
		Handler:           fake.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Printf("  Dev API listening on %s\n", fake.BaseURL)
	fmt.Printf("  Token: %s\n", token)
	fmt.Printf("  Try: HBUDGET_TOKEN=%s hbudget --api-url %s list\n", token, fake.BaseURL)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dev server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("dev server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
