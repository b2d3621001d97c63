package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/store"
)

var flagLoginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save the API token used for authenticated requests",
	Long: "Save a bearer token to the local credential database. The token is read from\n" +
		"--token, from a prompt, or from stdin when piped.",
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved API token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect stored credentials",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the token comes from and when it expires",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginToken, "token", "", "Token to save")
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, authCmd)
}

func runLogin(_ *cobra.Command, _ []string) error {
	tok, err := readToken()
	if err != nil {
		return err
	}
	tok, ok := auth.Static(tok).Token()
	if !ok {
		return errors.New("empty token")
	}

	if info, err := auth.Inspect(tok); err != nil {
		fmt.Fprintln(os.Stderr, "  Warning: token is not a JWT; saving it anyway")
	} else if info.Expired(time.Now()) {
		fmt.Fprintf(os.Stderr, "  Warning: token expired %s\n", humanize.Time(info.ExpiresAt))
	}

	kv, err := openKV()
	if err != nil {
		return err
	}
	defer kv.Close()

	if err := kv.Set(auth.TokenKey, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	fmt.Printf("  Saved token %s to %s\n", auth.Mask(tok), flagDBPath)
	return nil
}

func readToken() (string, error) {
	if flagLoginToken != "" {
		return flagLoginToken, nil
	}

	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading token from stdin: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	var tok string
	err := huh.NewInput().
		Title("API token").
		Description("Paste the access token issued by the budget server.").
		EchoMode(huh.EchoModePassword).
		Value(&tok).
		Run()
	return tok, err
}

func runLogout(_ *cobra.Command, _ []string) error {
	kv, err := openKV()
	if err != nil {
		return err
	}
	defer kv.Close()

	if _, err := kv.Get(auth.TokenKey); errors.Is(err, store.ErrNotFound) {
		fmt.Println("  Not logged in")
		return nil
	}
	if err := kv.Delete(auth.TokenKey); err != nil {
		return err
	}
	fmt.Println("  Logged out")
	if os.Getenv(auth.EnvVar) != "" {
		fmt.Printf("  Note: %s is still set in the environment\n", auth.EnvVar)
	}
	return nil
}

func runAuthStatus(_ *cobra.Command, _ []string) error {
	var (
		tok    string
		origin string
	)
	if t, ok := (auth.EnvSource{}).Token(); ok {
		tok, origin = t, auth.EnvVar
	} else if kv, err := openKV(); err == nil {
		defer kv.Close()
		if t, ok := (auth.KVSource{KV: kv}).Token(); ok {
			tok, origin = t, flagDBPath
		}
	}

	fmt.Printf("  API: %s\n", cfg.API.BaseURL)
	if tok == "" {
		fmt.Println("  Token: none (run `hbudget login`)")
		return nil
	}
	fmt.Printf("  Token: %s (from %s)\n", auth.Mask(tok), origin)

	info, err := auth.Inspect(tok)
	if err != nil {
		fmt.Println("  Claims: not a JWT")
		return nil
	}
	if info.Subject != "" {
		fmt.Printf("  Subject: %s\n", info.Subject)
	}
	if !info.IssuedAt.IsZero() {
		fmt.Printf("  Issued: %s\n", humanize.Time(info.IssuedAt))
	}
	switch {
	case info.ExpiresAt.IsZero():
		fmt.Println("  Expires: never")
	case info.Expired(time.Now()):
		fmt.Printf("  Expired: %s\n", humanize.Time(info.ExpiresAt))
	default:
		fmt.Printf("  Expires: %s\n", humanize.Time(info.ExpiresAt))
	}
	return nil
}
