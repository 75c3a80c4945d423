package echoServer

import (
	"net/http"

	authctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/auth"
	bookctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/book"
	loanctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/loan"
	notifyctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/notify"
	reservationctrl "github.com/prabin319/BookByte-sub000/app/echoServer/controller/reservation"
	"github.com/prabin319/BookByte-sub000/app/echoServer/jwtx"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth        *authctrl.Controller
	Book        *bookctrl.Controller
	Loan        *loanctrl.Controller
	Reservation *reservationctrl.Controller
	Notify      *notifyctrl.Controller
	JWTSecret   string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),
	}))
	// identity extraction: user_id and role land in the echo context so
	// controllers never touch raw claims
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			if role, err := jwtx.RoleFromContext(ctx); err == nil {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	})

	// Books
	auth.GET("/books", c.Book.List)
	auth.GET("/books/:id", c.Book.Detail)
	// Admin endpoints
	auth.POST("/books", c.Book.Create)
	auth.POST("/books/:id/copies", c.Book.AddCopies)

	// Circulation
	auth.POST("/loans/borrow", c.Loan.Borrow)
	auth.POST("/loans/:id/return", c.Loan.Return)
	auth.POST("/loans/:id/renew", c.Loan.Renew)
	auth.GET("/loans/active", c.Loan.Active)
	auth.GET("/loans/my", c.Loan.MyHistory)

	// Reservations
	auth.POST("/reservations", c.Reservation.Place)
	auth.DELETE("/reservations/:id", c.Reservation.Cancel)
	auth.GET("/reservations/my", c.Reservation.My)

	// Notifications & fines
	auth.GET("/notifications/my", c.Notify.My)
	auth.GET("/fines/my", c.Notify.MyFines)
	auth.POST("/admin/reminders/run", c.Notify.RunReminders)
}
