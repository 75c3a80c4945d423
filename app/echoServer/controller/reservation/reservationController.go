package reservation

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	reservationrepo "github.com/prabin319/BookByte-sub000/repository/reservation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type PlaceReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

type Controller struct {
	Repo reservationrepo.Repo
	V    *validator.Validate
	Log  *slog.Logger
}

// POST /v1/reservations
func (h *Controller) Place(c echo.Context) error {
	var req PlaceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	id, err := h.Repo.Place(c.Request().Context(), uid, req.BookID)
	if err != nil {
		h.Log.Error("reservation place", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// DELETE /v1/reservations/:id
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	if err := h.Repo.Cancel(c.Request().Context(), uid, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
		}
		h.Log.Error("reservation cancel", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "canceled"})
}

// GET /v1/reservations/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Repo.ListByUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("reservation list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
