package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/api"
	"github.com/MrEthical07/goGate/internal/mockapi"
	"github.com/spf13/cobra"
)

// MockServerOptions configures the mock-server command.
type MockServerOptions struct {
	Addr     string
	Key      string
	TokenTTL time.Duration
	Users    []string
	Bars     []string
}

func newMockServerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MockServerOptions{}

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local fake of the bar-management API",
		Long: `Serve an in-memory bar-management API for development. Users are
seeded with --user email:password; each --bar is owned by the first user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			srv, err := newMockServer(opts)
			if err != nil {
				return wrapExit(ExitCommandError, "mock-server", err)
			}

			ln, err := net.Listen("tcp", opts.Addr)
			if err != nil {
				return wrapExit(ExitCommandError, "listen", err)
			}
			logger := newLogger(cmd.ErrOrStderr(), "info", rootOpts.Verbose)
			logger.Info("mock api listening", "base_url", "http://"+ln.Addr().String()+mockapi.BasePath)
			fmt.Fprintf(cmd.OutOrStdout(), "http://%s%s\n", ln.Addr().String(), mockapi.BasePath)

			return serveUntilDone(ctx, ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:3026", "listen address")
	cmd.Flags().StringVar(&opts.Key, "key", "", "hex HMAC key for tokens (random when empty)")
	cmd.Flags().DurationVar(&opts.TokenTTL, "token-ttl", time.Hour, "issued token lifetime")
	cmd.Flags().StringArrayVar(&opts.Users, "user", []string{"owner@bar.test:secret-pass"}, "seed user email:password (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Bars, "bar", nil, "seed bar name owned by the first user (repeatable)")
	return cmd
}

func newMockServer(opts *MockServerOptions) (*mockapi.Server, error) {
	var key []byte
	if opts.Key != "" {
		k, err := hex.DecodeString(opts.Key)
		if err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
		key = k
	} else {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}

	srv, err := mockapi.New(key, opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	var first string
	for _, u := range opts.Users {
		email, password, ok := strings.Cut(u, ":")
		if !ok || email == "" {
			return nil, fmt.Errorf("invalid --user %q: want email:password", u)
		}
		if _, err := srv.AddUser(mockapi.User{Email: email, Name: email, Password: password}); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		if first == "" {
			first = email
		}
	}
	for _, name := range opts.Bars {
		if first == "" {
			return nil, errors.New("--bar requires at least one --user")
		}
		if _, err := srv.AddBar(first, api.CreateBarRequest{Name: name}); err != nil {
			return nil, fmt.Errorf("seed bar %s: %w", name, err)
		}
	}
	return srv, nil
}

// serveUntilDone serves h on ln until ctx is cancelled, then shuts down.
func serveUntilDone(ctx context.Context, ln net.Listener, h http.Handler) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
