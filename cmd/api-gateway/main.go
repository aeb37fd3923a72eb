package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/radieske/live-odds-platform/internal/shared/config"
	"github.com/radieske/live-odds-platform/internal/shared/logger"
	"github.com/radieske/live-odds-platform/internal/shared/metrics"
)

// rp cria um reverse proxy para o serviço de destino
func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	market := rp(cfg.MarketURL)
	wallet := rp(cfg.WalletURL)
	bet := rp(cfg.BetURL)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-ID", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// markets (ex.: /api/markets/v1/events -> market-service)
	r.Handle("/api/markets/*", http.StripPrefix("/api/markets", market))

	// feed WebSocket passa direto pelo proxy (upgrade suportado pelo ReverseProxy)
	r.Handle("/api/ws", http.StripPrefix("/api", market))

	// wallet (ex.: /api/wallet/deposit -> wallet-service)
	r.Handle("/api/wallet/*", http.StripPrefix("/api", wallet))
	r.Handle("/api/wallet", http.StripPrefix("/api", wallet))

	// apostas e bet slip (ex.: /api/betting/place -> bet-service)
	r.Handle("/api/betting/*", http.StripPrefix("/api", bet))

	// metrics/health
	metrics.Start(log, cfg.MetricsPort, nil)

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}
