package utils

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// PaginationParams represents pagination query parameters
type PaginationParams struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Search string `json:"search"`
	SortBy string `json:"sort_by"`
}

// PaginationMeta contains pagination metadata
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
	HasMore     bool  `json:"has_more"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

var limitOptions = []int{10, 25, 50, 100}

// GetPaginationParams extracts pagination parameters from the query string.
// Both "limit" and "page_size" are accepted.
func GetPaginationParams(c *fiber.Ctx) PaginationParams {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limitStr := c.Query("limit")
	if limitStr == "" {
		limitStr = c.Query("page_size", "25")
	}
	limit, _ := strconv.Atoi(limitStr)

	if page < 1 {
		page = 1
	}
	if !isValidLimit(limit) {
		limit = 25
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search", ""),
		SortBy: c.Query("sort_by", ""),
	}
}

func isValidLimit(limit int) bool {
	for _, valid := range limitOptions {
		if limit == valid {
			return true
		}
	}
	return false
}

// CalculatePagination calculates pagination metadata
func CalculatePagination(page, limit int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}

	lastPage := int(math.Ceil(float64(total) / float64(limit)))
	from := (page-1)*limit + 1
	to := page * limit

	if total == 0 {
		from = 0
		to = 0
	} else if to > int(total) {
		to = int(total)
	}
	if from > int(total) {
		from = 0
		to = 0
	}

	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		LastPage:    lastPage,
		From:        from,
		To:          to,
		HasMore:     page < lastPage,
	}
}

// PaginatedResponseBuilder creates a paginated response
func PaginatedResponseBuilder(c *fiber.Ctx, message string, data interface{}, pagination PaginationMeta) error {
	return c.JSON(PaginatedResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	})
}

// GetOffset calculates offset for SQL queries
func GetOffset(page, limit int) int {
	return (page - 1) * limit
}

// PaginateSlice pages an already fetched slice the same way SQL LIMIT/OFFSET would.
func PaginateSlice[T any](items []T, page, limit int) ([]T, PaginationMeta) {
	meta := CalculatePagination(page, limit, int64(len(items)))
	if meta.From == 0 {
		return []T{}, meta
	}
	return items[meta.From-1 : meta.To], meta
}
