// Package main BookByte API.
//
// @title           BookByte Circulation API
// @version         1.0
// @description     library circulation service (catalog, loans, renewals, fines, notifications).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prabin319/BookByte-sub000/app/echoServer"
	authctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/auth"
	bookctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/book"
	loanctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/loan"
	notifyctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/notify"
	reservationctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/reservation"
	"github.com/prabin319/BookByte-sub000/app/echoServer/validation"
	"github.com/prabin319/BookByte-sub000/config"
	authrepo "github.com/prabin319/BookByte-sub000/repository/auth"
	bookrepo "github.com/prabin319/BookByte-sub000/repository/book"
	finerepo "github.com/prabin319/BookByte-sub000/repository/fine"
	loanrepo "github.com/prabin319/BookByte-sub000/repository/loan"
	notificationrepo "github.com/prabin319/BookByte-sub000/repository/notification"
	reservationrepo "github.com/prabin319/BookByte-sub000/repository/reservation"
	userrepo "github.com/prabin319/BookByte-sub000/repository/user"
	webhookrepo "github.com/prabin319/BookByte-sub000/repository/webhook"
	authsvc "github.com/prabin319/BookByte-sub000/service/auth"
	booksvc "github.com/prabin319/BookByte-sub000/service/book"
	"github.com/prabin319/BookByte-sub000/service/circulation"
	notificationsvc "github.com/prabin319/BookByte-sub000/service/notification"
	remindersvc "github.com/prabin319/BookByte-sub000/service/reminder"
	"github.com/prabin319/BookByte-sub000/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ar := authrepo.New(db.SQL)
	ur := userrepo.New(db.SQL)
	br := bookrepo.New(db.SQL)
	lr := loanrepo.New(db.SQL)
	rr := reservationrepo.New(db.SQL)
	fr := finerepo.New(db.SQL)
	nr := notificationrepo.New(db.SQL)

	dispatcher := webhookrepo.NewNoop()
	if cfg.WebhookURL != "" {
		dispatcher = webhookrepo.NewHTTP(cfg.WebhookURL)
	}

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	bs := booksvc.New(br)
	ns := notificationsvc.New(nr, dispatcher, log)
	cs := circulation.New(circulation.Deps{
		DB:            db,
		Inventory:     br,
		Loans:         lr,
		Reservations:  rr,
		Users:         ur,
		Fines:         fr,
		Notifier:      ns,
		DailyFineRate: cfg.DailyFineRate,
		Log:           log,
	})
	rs := remindersvc.New(lr, ns, cfg.DailyFineRate, nil, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: cs, V: v, Log: log}
	reservationC := &reservationctrl.Controller{Repo: rr, V: v, Log: log}
	notifyC := &notifyctrl.Controller{Svc: ns, Reminder: rs, Fines: fr, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		Book:        bookC,
		Loan:        loanC,
		Reservation: reservationC,
		Notify:      notifyC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
