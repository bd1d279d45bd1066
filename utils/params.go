package utils

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

func ParseFloat(s string) float64 {
	val, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return val
}

func ParseInt(s string) int {
	val, _ := strconv.Atoi(strings.TrimSpace(s))
	return val
}

// ParseOptionalFloat returns nil when s is empty or not a number.
func ParseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &val
}

// ParseOptionalBool accepts "true"/"false" and returns nil otherwise.
func ParseOptionalBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// MaxPage bounds the page number so (page-1)*limit stays a sane $skip.
const MaxPage = 100000

// ParsePage reads page/limit with defaults; limit is capped at maxLimit
// and page at MaxPage.
func ParsePage(q url.Values, defaultLimit, maxLimit int) (page, limit int) {
	page = ParseInt(q.Get("page"))
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	limit = ParseInt(q.Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
