// model/book.go
package model

type BookStatus string

const (
	BookAvailable   BookStatus = "AVAILABLE"
	BookUnavailable BookStatus = "UNAVAILABLE"
)

// StatusFor derives the display status from the available count.
// available_copies is the source of truth; status is never read back
// by the circulation engine.
func StatusFor(availableCopies int64) BookStatus {
	if availableCopies > 0 {
		return BookAvailable
	}
	return BookUnavailable
}

type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Category        string     `json:"category"`
	TotalCopies     int64      `json:"total_copies"`
	AvailableCopies int64      `json:"available_copies"`
	Status          BookStatus `json:"status"`
}
