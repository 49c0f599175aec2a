// Package main BookRider API.
//
// @title           BookRider API
// @version         1.0
// @description     Book delivery brokering: quotes, cart, checkout, rentals, returns.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookrider/app/echoServer"
	authctrl "bookrider/app/echoServer/controller/auth"
	bookctrl "bookrider/app/echoServer/controller/book"
	cartctrl "bookrider/app/echoServer/controller/cart"
	checkoutctrl "bookrider/app/echoServer/controller/checkout"
	orderctrl "bookrider/app/echoServer/controller/order"
	quotectrl "bookrider/app/echoServer/controller/quote"
	rentalctrl "bookrider/app/echoServer/controller/rental"
	returnctrl "bookrider/app/echoServer/controller/rentalreturn"
	walletctrl "bookrider/app/echoServer/controller/wallet"
	"bookrider/app/echoServer/validation"
	"bookrider/config"
	addressrepo "bookrider/repository/address"
	cartrepo "bookrider/repository/cart"
	catalogrepo "bookrider/repository/catalog"
	distancerepo "bookrider/repository/distance"
	orderrepo "bookrider/repository/order"
	quoterepo "bookrider/repository/quote"
	rentalrepo "bookrider/repository/rental"
	returnrepo "bookrider/repository/rentalreturn"
	routingrepo "bookrider/repository/routing"
	userrepo "bookrider/repository/user"
	walletrepo "bookrider/repository/wallet"
	authsvc "bookrider/service/auth"
	cartsvc "bookrider/service/cart"
	checkoutsvc "bookrider/service/checkout"
	distancesvc "bookrider/service/distance"
	ordersvc "bookrider/service/order"
	pricingsvc "bookrider/service/pricing"
	quotesvc "bookrider/service/quote"
	rentalsvc "bookrider/service/rental"
	returnsvc "bookrider/service/rentalreturn"
	walletsvc "bookrider/service/wallet"
	"bookrider/util/database"
)

func main() {
	cfg := config.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, "migrations"); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	ur := userrepo.New(db)
	adr := addressrepo.New(db)
	ctr := catalogrepo.New(db)
	dr := distancerepo.New(db)
	qr := quoterepo.New(db)
	car := cartrepo.New(db)
	or := orderrepo.New(db)
	rr := rentalrepo.New(db)
	rrr := returnrepo.New(db)
	wr := walletrepo.New(db)
	provider := routingrepo.NewHTTP(cfg.RoutingBaseURL, cfg.GeocoderBaseURL)

	// services
	pricing := pricingsvc.New(cfg.DailyLateFee)
	dist := distancesvc.New(dr, provider)
	as := authsvc.New(ur, cfg.JWTSecret)
	qs := quotesvc.New(ctr, ur, adr, car, qr, dist, pricing)
	cs := cartsvc.New(db, car, qr, adr, ur, provider, pricing)
	ws := walletsvc.New(db, wr, ur, or)
	chs := checkoutsvc.New(db, car, ur, ctr, or, ws)
	rs := rentalsvc.New(rr, or, cfg.ReturnDeadlineDays)
	os_ := ordersvc.New(db, or, rs)
	rets := returnsvc.New(db, rr, rrr, or, ctr, ur, adr, dist, pricing, ws, rs)

	// controllers
	v := validator.New()
	ctrls := echoServer.C{
		Auth:     &authctrl.Controller{Svc: as, V: v, Log: log},
		Book:     &bookctrl.Controller{Catalog: ctr, Log: log},
		Quote:    &quotectrl.Controller{Svc: qs, V: v, Log: log},
		Cart:     &cartctrl.Controller{Svc: cs, V: v, Log: log},
		Checkout: &checkoutctrl.Controller{Svc: chs, Log: log},
		Order:    &orderctrl.Controller{Svc: os_, Payouts: ws, Log: log},
		Wallet:   &walletctrl.Controller{Svc: ws, V: v, Log: log},
		Rental:   &rentalctrl.Controller{Svc: rs, Log: log},
		Return:   &returnctrl.Controller{Svc: rets, V: v, Log: log},

		JWTSecret: cfg.JWTSecret,
	}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, ctrls)

	log.Info("starting server", "port", cfg.Port, "env", cfg.Env)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
