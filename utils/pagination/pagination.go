package pagination

import (
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Params are the paging inputs plus every other query argument as a filter.
type Params struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Filters  map[string]string `json:"filters"`
}

type Meta struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
}

type Response struct {
	Items      interface{} `json:"items"`
	Pagination Meta        `json:"pagination"`
}

func ParseParams(c *fiber.Ctx) (Params, error) {
	params := Params{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", defaultPageSize),
		Filters:  make(map[string]string),
	}

	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if k != "page" && k != "page_size" && len(value) > 0 {
			params.Filters[k] = string(value)
		}
	})

	if params.Page < 1 {
		return params, fmt.Errorf("page must be greater than 0")
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return params, fmt.Errorf("page size must be between 1 and %d", maxPageSize)
	}
	return params, nil
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func NewResponse(items interface{}, totalItems int64, params Params) Response {
	return Response{
		Items: items,
		Pagination: Meta{
			CurrentPage: params.Page,
			PageSize:    params.PageSize,
			TotalPages:  int(math.Ceil(float64(totalItems) / float64(params.PageSize))),
			TotalItems:  totalItems,
		},
	}
}
