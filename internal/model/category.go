package model

import (
	"fmt"
	"strconv"
)

// Category classifies a product. The set is closed; anything the catalog
// cannot place stays UNKNOWN.
type Category int

const (
	Unknown Category = iota
	Cloths
	Food
	Housewares
	Automotive
	Tools
)

var categoryNames = map[Category]string{
	Unknown:    "UNKNOWN",
	Cloths:     "CLOTHS",
	Food:       "FOOD",
	Housewares: "HOUSEWARES",
	Automotive: "AUTOMOTIVE",
	Tools:      "TOOLS",
}

var categoriesByName = map[string]Category{
	"UNKNOWN":    Unknown,
	"CLOTHS":     Cloths,
	"FOOD":       Food,
	"HOUSEWARES": Housewares,
	"AUTOMOTIVE": Automotive,
	"TOOLS":      Tools,
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether c is a member of the closed set.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// CategoryFromName resolves an enum name such as "CLOTHS".
// The match is exact; names are uppercase.
func CategoryFromName(name string) (Category, error) {
	if c, ok := categoriesByName[name]; ok {
		return c, nil
	}
	return Unknown, fmt.Errorf("invalid category: %s", name)
}

// ParseCategory accepts either the integer ordinal ("1") or the enum
// name ("CLOTHS") of a category.
func ParseCategory(value string) (Category, error) {
	if ordinal, err := strconv.Atoi(value); err == nil {
		c := Category(ordinal)
		if !c.Valid() {
			return Unknown, fmt.Errorf("invalid category: %s", value)
		}
		return c, nil
	}
	return CategoryFromName(value)
}
