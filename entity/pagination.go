package entity

const (
	DefaultHistoryLimit = 50
	DefaultTicketLimit  = 20
	MaxPageLimit        = 100
)

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Skip is the number of records before the page.
func (p Pagination) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return int64((p.Page - 1) * p.Limit)
}
