package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	authctrl "bookrider/app/echoServer/controller/auth"
	bookctrl "bookrider/app/echoServer/controller/book"
	cartctrl "bookrider/app/echoServer/controller/cart"
	checkoutctrl "bookrider/app/echoServer/controller/checkout"
	orderctrl "bookrider/app/echoServer/controller/order"
	quotectrl "bookrider/app/echoServer/controller/quote"
	rentalctrl "bookrider/app/echoServer/controller/rental"
	returnctrl "bookrider/app/echoServer/controller/rentalreturn"
	walletctrl "bookrider/app/echoServer/controller/wallet"
	"bookrider/app/echoServer/jwtx"
)

type C struct {
	Auth     *authctrl.Controller
	Book     *bookctrl.Controller
	Quote    *quotectrl.Controller
	Cart     *cartctrl.Controller
	Checkout *checkoutctrl.Controller
	Order    *orderctrl.Controller
	Wallet   *walletctrl.Controller
	Rental   *rentalctrl.Controller
	Return   *returnctrl.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	auth.Use(extractIdentity)

	auth.GET("/books/:id", c.Book.Detail)

	auth.POST("/quotes", c.Quote.Generate)

	auth.POST("/cart/options", c.Cart.AddOption)
	auth.GET("/cart", c.Cart.Get)
	auth.DELETE("/cart/sub-items/:id", c.Cart.RemoveSubItem)
	auth.PUT("/cart/address", c.Cart.SetAddress)

	auth.POST("/checkout", c.Checkout.Checkout)

	auth.GET("/orders/my", c.Order.My)

	auth.POST("/wallet/deposits", c.Wallet.Deposit)
	auth.GET("/wallet/ledger", c.Wallet.Ledger)

	auth.GET("/rentals/my", c.Rental.My)

	auth.POST("/rental-returns", c.Return.CreateCourier)
	auth.POST("/rental-returns/in-person", c.Return.CreateInPerson)
	auth.POST("/rental-returns/price", c.Return.PriceCourier)
	auth.POST("/rental-returns/in-person/price", c.Return.PriceInPerson)
	auth.GET("/rental-returns/my", c.Return.My)

	// Driver-only
	drv := auth.Group("", jwtx.RequireDriver)
	drv.GET("/orders/available", c.Order.Available)
	drv.POST("/orders/:id/accept", c.Order.Accept)
	drv.POST("/orders/:id/pickup", c.Order.Pickup)
	drv.POST("/orders/:id/handover", c.Order.Pickup)
	drv.POST("/orders/:id/deliver", c.Order.Deliver)
	drv.POST("/orders/:id/payout", c.Order.Payout)
	drv.POST("/rental-returns/:id/complete", c.Return.Complete)
}

// extractIdentity copies sub and role out of the verified token.
func extractIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok, ok := c.Get("user").(*jwt.Token)
		if !ok || tok == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		sub, ok := claims["sub"].(float64)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
		}
		c.Set("user_id", int64(sub))
		if role, ok := claims["role"].(string); ok {
			c.Set("user_role", role)
		}
		return next(c)
	}
}
