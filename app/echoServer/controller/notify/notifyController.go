package notify

import (
	"log/slog"
	"net/http"

	finerepo "github.com/prabin319/BookByte-sub000/repository/fine"
	notificationsvc "github.com/prabin319/BookByte-sub000/service/notification"
	remindersvc "github.com/prabin319/BookByte-sub000/service/reminder"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc      notificationsvc.Service
	Reminder remindersvc.Service
	Fines    finerepo.Repo
	Log      *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}

// GET /v1/notifications/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ListForUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("notifications list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/fines/my
func (h *Controller) MyFines(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Fines.ListByUser(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("fines list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/reminders/run  (admin)
func (h *Controller) RunReminders(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	res, err := h.Reminder.Run(c.Request().Context())
	if err != nil {
		h.Log.Error("reminder run", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, res)
}
