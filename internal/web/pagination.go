// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package web

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest carries the clamped pagination and sort inputs for a list
// endpoint. Page starts at 1; Limit is bounded to 1..100.
type PageRequest struct {
	Page  int
	Limit int
	Sort  string
	Desc  bool
}

// Offset returns the SQL offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage extracts page/limit/sort/order query parameters, clamping them
// to sane bounds. sortFields maps allowed API sort keys to column names;
// defaultSort is used when the key is absent or unknown.
func ParsePage(r *http.Request, sortFields map[string]string, defaultSort string) PageRequest {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	sort, ok := sortFields[q.Get("sort")]
	if !ok {
		sort = defaultSort
	}

	return PageRequest{
		Page:  page,
		Limit: limit,
		Sort:  sort,
		Desc:  !strings.EqualFold(q.Get("order"), "asc"),
	}
}

// Pagination is the metadata block attached to every list response.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// NewPagination computes the metadata block for a page of total records.
func NewPagination(req PageRequest, total int) Pagination {
	pages := total / req.Limit
	if total%req.Limit != 0 {
		pages++
	}
	return Pagination{
		Page:    req.Page,
		Limit:   req.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: req.Page < pages,
		HasPrev: req.Page > 1 && total > 0,
	}
}
