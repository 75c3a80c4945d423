package book

type CreateBookReq struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author"`
	Category    string `json:"category" validate:"required"`
	TotalCopies int64  `json:"total_copies" validate:"gte=0"`
}

type AddCopiesReq struct {
	Count int64 `json:"count" validate:"required,gt=0"`
}
