package dto

// MessageResponse is the generic success envelope for operations that
// return no resource.
type MessageResponse struct {
	Message string `json:"message"`
}

type ListQuery struct {
	Page    int `form:"page" validate:"omitempty,min=1"`
	PerPage int `form:"per_page" validate:"omitempty,min=1,max=100"`
}

func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	if q.PerPage > 100 {
		q.PerPage = 100
	}
}

func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}
