// Package server - Debug-Server fuer den Benchmark-Harness
// Beinhaltet: Server-Struct, Router-Registrierung, Middleware, Server-Start
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larch-ml/larch/envconfig"
	"github.com/larch-ml/larch/logutil"
	"github.com/larch-ml/larch/metrics"
	"github.com/larch-ml/larch/store"
	"github.com/larch-ml/larch/version"
)

var mode string = gin.ReleaseMode

func init() {
	if envconfig.LogLevel() <= slog.LevelDebug {
		mode = gin.DebugMode
	}

	gin.SetMode(mode)
}

// Server verwaltet den Debug-HTTP-Server
type Server struct {
	addr    net.Addr
	store   *store.Store
	metrics *metrics.Registry
}

// allowedHostsMiddleware blockiert Anfragen mit fremdem Host-Header,
// solange der Server nur auf Loopback lauscht (DNS-Rebinding-Schutz)
func allowedHostsMiddleware(addr net.Addr) gin.HandlerFunc {
	return func(c *gin.Context) {
		if addr == nil {
			c.Next()
			return
		}

		if a, err := netip.ParseAddrPort(addr.String()); err == nil && !a.Addr().IsLoopback() {
			c.Next()
			return
		}

		host, _, err := net.SplitHostPort(c.Request.Host)
		if err != nil {
			host = c.Request.Host
		}

		if a, err := netip.ParseAddr(host); err == nil {
			if a.IsLoopback() || a.IsPrivate() || a.IsUnspecified() {
				c.Next()
				return
			}
		}

		host = strings.ToLower(host)
		if host == "" || host == "localhost" {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
			return
		}

		if hostname, err := os.Hostname(); err == nil && host == strings.ToLower(hostname) {
			c.Next()
			return
		}

		c.AbortWithStatus(http.StatusForbidden)
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() (http.Handler, error) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	// Eigene Prometheus-Registry, damit der Router mehrfach gebaut werden kann,
	// ohne Kollektoren doppelt zu registrieren
	promRegistry := prometheus.NewRegistry()
	if err := promRegistry.Register(metrics.NewCollector(s.metrics)); err != nil {
		return nil, fmt.Errorf("register prometheus collector: %w", err)
	}

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	// General
	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "Larch is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Larch is running") })
	r.HEAD("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })
	r.GET("/api/version", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"version": version.Version}) })

	// Harness
	r.GET("/api/counters", s.CountersHandler)
	r.GET("/api/runs", s.RunsHandler)
	r.GET("/api/runs/:id", s.RunRowsHandler)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	return r, nil
}

// Serve startet den Debug-Server auf dem Listener
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	s := &Server{
		addr:    ln.Addr(),
		store:   &store.Store{},
		metrics: metrics.Default,
	}
	defer s.store.Close()

	h, err := s.GenerateRoutes()
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{Handler: h}

	ctx, done := context.WithCancel(context.Background())

	// listen for a ctrl+c and shut down
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !slices.Contains([]error{http.ErrServerClosed}, err) {
		return err
	}
	<-ctx.Done()
	return nil
}
