package normalize

import "jobmonitor/internal/domain"

// FieldMap says where each canonical field lives in a raw record. Paths are
// dot separated; numeric segments index into arrays ("departments.0.name").
// An empty path means the source never carries that field.
type FieldMap struct {
	ID          string
	Title       string
	Location    string
	URL         string
	Department  string
	Description string
	Posted      string

	// DescriptionHTML marks a description that arrives as (entity-escaped)
	// HTML and must be reduced to text.
	DescriptionHTML bool
}

var fieldTables = map[domain.SourceKind]FieldMap{
	domain.SourceGreenhouse: {
		ID:              "id",
		Title:           "title",
		Location:        "location.name",
		URL:             "absolute_url",
		Department:      "departments.0.name",
		Description:     "content",
		Posted:          "updated_at",
		DescriptionHTML: true,
	},
	domain.SourceLever: {
		ID:          "id",
		Title:       "text",
		Location:    "categories.location",
		URL:         "hostedUrl",
		Department:  "categories.team",
		Description: "descriptionPlain",
		Posted:      "createdAt",
	},
	domain.SourceSmartRecruiters: {
		ID:         "id",
		Title:      "name",
		Location:   "location.city",
		URL:        "postingUrl",
		Department: "department.label",
		Posted:     "releasedDate",
	},
	domain.SourceGeneric: {
		Title:    "title",
		Location: "location",
		URL:      "url",
	},
}

// Fields returns the table for kind.
func Fields(kind domain.SourceKind) (FieldMap, bool) {
	fm, ok := fieldTables[kind]
	return fm, ok
}
