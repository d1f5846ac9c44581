package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPerPage = 24
	maxPerPage     = 100
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page    int
	PerPage int
	Offset  int
}

// ParsePagination reads page and perPage query params. Pages are 1-indexed,
// perPage defaults to 24 and is capped at 100.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	perPage := parseInt(c.Query("perPage", strconv.Itoa(defaultPerPage)), defaultPerPage)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// TotalPages computes ceil(total/perPage) with a floor of 1.
func (p Pagination) TotalPages(total int64) int {
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// HasMore reports whether pages beyond this one hold any of total items.
func (p Pagination) HasMore(returned int, total int64) bool {
	return int64(p.Offset+returned) < total
}

// Envelope produces the pagination block attached to list responses.
func (p Pagination) Envelope(returned int, total int64) fiber.Map {
	return fiber.Map{
		"page":       p.Page,
		"perPage":    p.PerPage,
		"total":      total,
		"totalPages": p.TotalPages(total),
		"hasMore":    p.HasMore(returned, total),
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
