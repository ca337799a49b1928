package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/makeathera-byte/3layered/internal/checkout"
	"github.com/makeathera-byte/3layered/internal/config"
	"github.com/makeathera-byte/3layered/internal/es"
	"github.com/makeathera-byte/3layered/internal/handlers"
	"github.com/makeathera-byte/3layered/internal/logging"
	"github.com/makeathera-byte/3layered/internal/middleware/csrf"
	loggingmw "github.com/makeathera-byte/3layered/internal/middleware/logging"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/payment"
	"github.com/makeathera-byte/3layered/internal/service"
	"github.com/makeathera-byte/3layered/internal/service/token"
	httpserver "github.com/makeathera-byte/3layered/internal/transport/http"
)

func main() {
	cfg := config.Load()
	cfg.MustValidate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	producer := mykafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	esClient, err := es.NewClient(es.Config{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
	})
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	fees := checkout.FeeSchedule{
		CustomizationFee: cfg.CustomizationFee,
		CODFee:           cfg.CODFee,
	}

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
	}

	orders := &service.OrderService{
		DB: db,
		Gateway:       payment.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL),
		GatewaySecret: []byte(cfg.RazorpayKeySecret),
		Producer:      producer,
		Fees:          fees,
		Currency:      cfg.Currency,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(csrf.Middleware(csrf.Config{
		Secure: true,
		SkipPaths: []string{
			// Verified by gateway signature, not by session.
			"/api/v1/checkout/verify",
		},
	}))

	httpserver.Register(e, &httpserver.Deps{
		ProductHandler: &handlers.ProductHandler{
			DB:       db,
			Producer: producer,
			ES:       esClient,
			ESIndex:  cfg.ESIndex,
		},
		AuthHandler: &handlers.AuthHandler{
			DB:       db,
			Tokens:   tokens,
			Producer: producer,
		},
		CartHandler: &handlers.CartHandler{
			DB:       db,
			Producer: producer,
			Fees:     fees,
		},
		CheckoutHandler: &handlers.CheckoutHandler{
			Orders:        orders,
			RazorpayKeyID: cfg.RazorpayKeyID,
		},
		AdminHandler: &handlers.AdminHandler{
			DB:     db,
			Orders: orders,
		},
		CustomHandler: &handlers.CustomRequestHandler{
			DB:       db,
			Producer: producer,
		},
		SearchHandler: handlers.NewSearchHandler(esClient, cfg.ESIndex),
		Tokens:        tokens,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
