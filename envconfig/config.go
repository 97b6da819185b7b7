// config.go - Haupt-Konfigurationsfunktionen fuer Larch
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host des Debug-Servers zurueck (LARCH_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (LARCH_ORIGINS)
// - Models: Gibt externes Katalog-Verzeichnis zurueck (LARCH_MODELS)
// - HistoryFile: Gibt Pfad der History-Datenbank zurueck (LARCH_HISTORY)
// - LogLevel: Gibt Log-Level zurueck (LARCH_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Feature-Flags fuer Backend und Harness
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host des Debug-Servers zurueck
// Konfigurierbar via LARCH_HOST
// Default: http://127.0.0.1:7134
func Host() *url.URL {
	defaultPort := "7134"

	s := strings.TrimSpace(Var("LARCH_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins fuer den Debug-Server zurueck
// Konfigurierbar via LARCH_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("LARCH_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer localhost
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	return origins
}

// Models gibt das externe Katalog-Verzeichnis zurueck
// Konfigurierbar via LARCH_MODELS
// Leerer String bedeutet: kein externer Katalog
func Models() string {
	return Var("LARCH_MODELS")
}

// HistoryFile gibt den Pfad der History-Datenbank zurueck
// Konfigurierbar via LARCH_HISTORY
// Default: $HOME/.larch/history.db
func HistoryFile() string {
	if s := Var("LARCH_HISTORY"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(home, ".larch", "history.db")
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via LARCH_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("LARCH_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
