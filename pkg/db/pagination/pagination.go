package pagination

const (
	DefaultPerPage = 12
	MinPerPage     = 6
	MaxPerPage     = 36
)

// Page is a 1-based page request as submitted by list views.
type Page struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

type PageInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// Normalize clamps per_page into [MinPerPage, MaxPerPage] and page to >= 1.
// A missing per_page uses DefaultPerPage.
func (p Page) Normalize() Page {
	if p.PerPage == 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage < MinPerPage {
		p.PerPage = MinPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PerPage
}

func (p Page) Limit() int {
	return p.Normalize().PerPage
}

func BuildPageInfo(p Page, total int64) PageInfo {
	p = p.Normalize()
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if pages < 1 {
		pages = 1
	}
	return PageInfo{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: pages,
		HasMore:    p.Page < pages,
	}
}
