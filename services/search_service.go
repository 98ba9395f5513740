package services

import (
	"strings"

	"gorm.io/gorm"
)

// CourseFilters holds the parsed catalog search parameters. Searching is
// pure query translation over the relational store, no indexing engine.
type CourseFilters struct {
	Query    string
	Category string
	Level    string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
}

var courseSortColumns = map[string]string{
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
	"popular":    "enrollment_count DESC",
	"title":      "title ASC",
}

// CourseSortExpr maps a sort key onto a whitelisted ORDER BY expression.
// Unknown keys fall back to newest-first.
func CourseSortExpr(sort string) string {
	if expr, ok := courseSortColumns[strings.ToLower(strings.TrimSpace(sort))]; ok {
		return expr
	}
	return courseSortColumns["newest"]
}

// ApplyCourseFilters translates the filters into a chained query over
// published courses.
func ApplyCourseFilters(db *gorm.DB, f CourseFilters) *gorm.DB {
	q := db.Where("is_published = ?", true)

	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := "%" + term + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	return q.Order(CourseSortExpr(f.Sort))
}
