// model/reservation.go
package model

import "time"

type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "PENDING"
	ReservationCanceled ReservationStatus = "CANCELED"
)

type Reservation struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	BookID    int64             `json:"book_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}
