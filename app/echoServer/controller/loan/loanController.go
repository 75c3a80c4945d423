package loan

import (
	"log/slog"
	"net/http"
	"strconv"

	cs "github.com/prabin319/BookByte-sub000/service/circulation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc cs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/loans/borrow
func (h *Controller) Borrow(c echo.Context) error {
	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	l, err := h.Svc.Borrow(c.Request().Context(), uid, req.BookID)
	if err != nil {
		h.Log.Error("borrow", "err", err, "user_id", uid, "book_id", req.BookID)
		switch cs.Code(err) {
		case cs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case cs.ErrUserNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		case cs.ErrNoCopies:
			return c.JSON(http.StatusConflict, echo.Map{"message": "no copies available"})
		case cs.ErrDuplicateLoan:
			return c.JSON(http.StatusConflict, echo.Map{"message": "you already have this book on loan"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, l)
}

// POST /v1/loans/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	res, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("return", "err", err, "loan_id", id)
		switch cs.Code(err) {
		case cs.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case cs.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "loan already returned"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, res)
}

// POST /v1/loans/:id/renew
func (h *Controller) Renew(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	l, err := h.Svc.Renew(c.Request().Context(), uid, id)
	if err != nil {
		h.Log.Error("renew", "err", err, "loan_id", id, "user_id", uid)
		switch cs.Code(err) {
		case cs.ErrLoanNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "loan not found"})
		case cs.ErrAlreadyReturned:
			return c.JSON(http.StatusConflict, echo.Map{"message": "loan already returned"})
		case cs.ErrRenewalLimit:
			return c.JSON(http.StatusConflict, echo.Map{"message": "renewal limit reached"})
		case cs.ErrOverdueRenewal:
			return c.JSON(http.StatusConflict, echo.Map{"message": "overdue loans must be returned, not renewed"})
		case cs.ErrReservedByOthers:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book is reserved by another member"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, l)
}

// GET /v1/loans/active
func (h *Controller) Active(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ActiveLoans(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("active loans", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/loans/my
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.History(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
