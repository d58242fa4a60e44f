package domain

import (
	"fmt"
	"math"
	"strconv"
)

// ============================================================================
// Value Objects
// ============================================================================

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// maxOffset bounds page*page_size so the offset never overflows
	maxOffset = math.MaxInt32
)

// PageRequest is a validated 1-based page request
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest parses raw page and page_size query values.
// Empty values fall back to page 1 and DefaultPageSize.
func NewPageRequest(rawPage, rawPageSize string) (PageRequest, error) {
	req := PageRequest{Page: 1, PageSize: DefaultPageSize}

	if rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return PageRequest{}, NewValidationError(fmt.Sprintf("invalid page %q", rawPage), err)
		}
		req.Page = page
	}

	if rawPageSize != "" {
		size, err := strconv.Atoi(rawPageSize)
		if err != nil || size < 1 {
			return PageRequest{}, NewValidationError(fmt.Sprintf("invalid page_size %q", rawPageSize), err)
		}
		if size > MaxPageSize {
			size = MaxPageSize
		}
		req.PageSize = size
	}

	if req.Page > maxOffset/req.PageSize {
		return PageRequest{}, NewValidationError(fmt.Sprintf("page %d is out of range", req.Page), nil)
	}

	return req, nil
}

// Offset returns the number of items preceding the page
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of a listing in the shape the frontend expects
type Page[T any] struct {
	Results     []T  `json:"results"`
	Count       int  `json:"count"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPage wraps items fetched for req out of total matching items
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}
	return Page[T]{
		Results:     items,
		Count:       total,
		Page:        req.Page,
		PageSize:    req.PageSize,
		TotalPages:  totalPages,
		HasNext:     req.Page*req.PageSize < total,
		HasPrevious: req.Page > 1,
	}
}
