package products

import (
	"net/url"
	"strings"

	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

var sortFields = map[string]bool{"createdAt": true, "price": true, "name": true, "quantity": true}

// Query is a parsed catalog request.
type Query struct {
	Category  string
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	Organic   *bool
	InStock   bool
	FarmerID  primitive.ObjectID
	Page      int
	Limit     int
	SortBy    string
	SortOrder int
}

func (q Query) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// ParseQuery reads catalog filters; unknown sort keys fall back to createdAt desc.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Category: strings.TrimSpace(v.Get("category")),
		Search:   strings.TrimSpace(v.Get("search")),
		MinPrice: utils.ParseOptionalFloat(v.Get("minPrice")),
		MaxPrice: utils.ParseOptionalFloat(v.Get("maxPrice")),
		Organic:  utils.ParseOptionalBool(v.Get("organic")),
		SortBy:   "createdAt",
	}
	if in := utils.ParseOptionalBool(v.Get("inStock")); in != nil {
		q.InStock = *in
	}
	if f := v.Get("farmerId"); f != "" {
		id, err := primitive.ObjectIDFromHex(f)
		if err != nil {
			return q, utils.Invalid("Invalid farmer ID")
		}
		q.FarmerID = id
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, utils.Invalid("minPrice cannot exceed maxPrice")
	}

	q.Page, q.Limit = utils.ParsePage(v, DefaultLimit, MaxLimit)
	if s := v.Get("sortBy"); sortFields[s] {
		q.SortBy = s
	}
	q.SortOrder = -1
	if strings.EqualFold(v.Get("sortOrder"), "asc") {
		q.SortOrder = 1
	}
	return q, nil
}

// Filter translates the query into a MongoDB filter.
func (q Query) Filter() bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		re := utils.ContainsFold(q.Search)
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}
	if q.Organic != nil {
		filter["organic"] = *q.Organic
	}
	if q.InStock {
		filter["quantity"] = bson.M{"$gt": 0}
	}
	if !q.FarmerID.IsZero() {
		filter["farmerId"] = q.FarmerID
	}
	return filter
}

// Sort orders by the requested field with _id as tiebreaker so pages are stable.
func (q Query) Sort() bson.D {
	return bson.D{{Key: q.SortBy, Value: q.SortOrder}, {Key: "_id", Value: q.SortOrder}}
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	Limit         int   `json:"limit"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		Limit:         limit,
		HasNextPage:   page < totalPages,
		HasPrevPage:   page > 1,
	}
}
