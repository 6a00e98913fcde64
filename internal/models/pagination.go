package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count,omitempty"`
}

// PageRequest carries pagination parameters forwarded to the upstream API.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize applies the defaults the reference client sends (page 1, 50 rows).
func (p PageRequest) Normalize(defaultSize int) PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		if defaultSize > 0 {
			p.PageSize = defaultSize
		} else {
			p.PageSize = 50
		}
	}
	return p
}
