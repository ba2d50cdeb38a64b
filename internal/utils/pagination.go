package utils

import (
	"net/url"
	"strconv"
)

type Page struct {
	Number int
	IsLink bool
}

// Pagination is the view model of the _pagination.html partial.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []Page
	// Query is appended to every page link, e.g. "category=news&".
	Query string
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// GeneratePagination shows a window of pages around the current one plus the
// first and last page. Number 0 marks an ellipsis.
func GeneratePagination(currentPage, totalPages int, extra url.Values) *Pagination {
	if totalPages <= 1 {
		return nil
	}

	const window = 2
	var pages []Page
	pages = append(pages, Page{Number: 1, IsLink: true})
	if currentPage > window+2 {
		pages = append(pages, Page{})
	}

	start := max(2, currentPage-window)
	end := min(totalPages-1, currentPage+window)
	for i := start; i <= end; i++ {
		pages = append(pages, Page{Number: i, IsLink: true})
	}

	if currentPage < totalPages-(window+1) {
		pages = append(pages, Page{})
	}
	pages = append(pages, Page{Number: totalPages, IsLink: true})

	for i := range pages {
		if pages[i].Number == currentPage {
			pages[i].IsLink = false
		}
	}

	query := ""
	if len(extra) > 0 {
		query = extra.Encode() + "&"
	}

	return &Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
		Pages:       pages,
		Query:       query,
	}
}

// Link returns the URL of page n under base, keeping the extra query.
func (p *Pagination) Link(base string, n int) string {
	return base + "?" + p.Query + "page=" + strconv.Itoa(n)
}
