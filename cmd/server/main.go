package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/MagicTurtle-s/asana-mcp-railway/asana"
	"github.com/MagicTurtle-s/asana-mcp-railway/auth"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/config"
	"github.com/MagicTurtle-s/asana-mcp-railway/internal/metrics"
	"github.com/MagicTurtle-s/asana-mcp-railway/oauth"
	"github.com/MagicTurtle-s/asana-mcp-railway/server"
	"github.com/MagicTurtle-s/asana-mcp-railway/sessions"
	"github.com/MagicTurtle-s/asana-mcp-railway/tools"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	if err := config.Validate(c); err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	registry := prometheus.NewRegistry()
	mx := metrics.New(registry)

	sessionStore := sessions.NewManager(
		sessions.WithMetrics(mx),
		sessions.WithReauthPolicy(c.GetReauthMaxAttempts(), c.GetReauthWindow()),
	)

	exchanger := oauth.NewExchanger(oauth.Config{
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		RedirectURI:  c.GetRedirectURI(),
		AuthURL:      c.GetAuthURL(),
		TokenURL:     c.GetTokenURL(),
		RevokeURL:    c.GetRevokeURL(),
	})

	verifiers := oauth.NewVerifierCache(c.GetVerifierTTL())
	defer verifiers.Stop()

	legacyTokens := oauth.NewTokenCache(exchanger)

	authService, err := auth.NewService(auth.Deps{
		Exchanger: exchanger,
		Sessions:  sessionStore,
		Verifiers: verifiers,
		Legacy:    legacyTokens,
	},
		auth.WithMetrics(mx),
		auth.WithRefreshWait(c.GetRefreshWaitTimeout(), 0),
	)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	limiter := asana.NewRateLimiter(c.GetRateLimitPerMinute())

	toolServer, err := tools.NewServer(c.GetAppName(), authService, limiter,
		tools.WithAPIBaseURL(c.GetAPIBaseURL()),
		tools.WithMetrics(mx),
	)
	if err != nil {
		return fmt.Errorf("tools.NewServer: %w", err)
	}

	srv, err := server.New(c, authService, sessionStore, legacyTokens, limiter, registry, toolServer.Handler())
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		return purgeLoop(ctx, sessionStore, c.GetPurgeInterval(), c.GetSessionMaxAge())
	})
	g.Go(func() error {
		<-ctx.Done()
		return shutdown(httpServer)
	})

	return g.Wait()
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// purgeLoop removes sessions that have been unused for longer than maxAge.
func purgeLoop(ctx context.Context, store *sessions.Manager, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if purged := store.PurgeStale(maxAge); purged > 0 {
				log.Printf("Purged %d stale sessions\n", purged)
			}
		}
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
