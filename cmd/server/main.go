package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/hallbook/auditorium-booking/internal/config"
	"github.com/hallbook/auditorium-booking/internal/database"
	"github.com/hallbook/auditorium-booking/internal/handler"
	"github.com/hallbook/auditorium-booking/internal/queue"
	"github.com/hallbook/auditorium-booking/internal/repository"
	"github.com/hallbook/auditorium-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}

	bookings := repository.NewBookingRepo(db)
	invoices := repository.NewInvoiceRepo(db)
	links := repository.NewShareLinkRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Booking: handler.NewBookingHandler(cfg, bookings, invoices, links),
		Review:  handler.NewReviewHandler(bookings),
		Payment: handler.NewPaymentHandler(cfg, bookings, invoices),
		Share:   handler.NewShareLinkHandler(cfg, bookings, links),
		Report:  handler.NewReportHandler(bookings, invoices),
	}

	// Audit trail consumer; reconnects on its own if the broker drops.
	go func() {
		if err := queue.StartWorkflowConsumer(); err != nil {
			log.Printf("workflow consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
