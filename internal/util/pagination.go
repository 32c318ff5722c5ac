package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MaxPage keeps (page-1)*size inside an int32 offset.
const MaxPage = math.MaxInt32 / MaxPageSize

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}
