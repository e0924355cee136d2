package handlers

import (
	"net/http"
	"strconv"

	"github.com/crucial707/microblog/internal/models"
)

type Pagination struct {
	Page    int
	PrevURL string
	NextURL string
}

const maxPage = 100000

// pageNumber reads ?page=N; anything missing or invalid is page 1.
func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, maxPage)
}

// paginate trims a page fetched with limit perPage+1 and builds the
// prev/next links relative to base.
func paginate(posts []models.Post, page, perPage int, base string) ([]models.Post, Pagination) {
	p := Pagination{Page: page}
	if len(posts) > perPage {
		posts = posts[:perPage]
		p.NextURL = base + "?page=" + strconv.Itoa(page+1)
	}
	if page > 1 {
		p.PrevURL = base + "?page=" + strconv.Itoa(page-1)
	}
	return posts, p
}
