package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ValidationError reports a payload that cannot populate a Product.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Product represents a catalog item. The database row is the source of
// truth; an ID of zero means the product has not been persisted yet.
type Product struct {
	ID          uint            `gorm:"primarykey"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available   bool            `gorm:"not null"`
	Category    Category        `gorm:"not null;default:0"`
}

func (p *Product) String() string {
	if p.ID == 0 {
		return fmt.Sprintf("<Product %s id=[None]>", p.Name)
	}
	return fmt.Sprintf("<Product %s id=[%d]>", p.Name, p.ID)
}

// Create inserts the product as a new row and assigns its id.
// Any id set beforehand is discarded; the store owns id assignment.
func (p *Product) Create(db *gorm.DB) error {
	p.ID = 0
	return db.Create(p).Error
}

// Update persists the current field values to the row matching the id.
func (p *Product) Update(db *gorm.DB) error {
	if p.ID == 0 {
		return validationErrorf("update called with empty id field")
	}
	return db.Save(p).Error
}

// Delete removes the row matching the id. Callers are expected to check
// existence first; deleting an unknown id is not guarded here.
func (p *Product) Delete(db *gorm.DB) error {
	return db.Delete(p).Error
}

// Serialize produces the wire representation of the product. The id is
// null until the product is persisted, the price is a decimal string and
// the category is its enum name.
func (p *Product) Serialize() map[string]any {
	var id any
	if p.ID != 0 {
		id = p.ID
	}
	return map[string]any{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.String(),
		"available":   p.Available,
		"category":    p.Category.String(),
	}
}

// Deserialize populates the product from a decoded JSON object. Each
// failure mode gets its own validation message.
func (p *Product) Deserialize(data map[string]any) error {
	raw, ok := data["name"]
	if !ok {
		return validationErrorf("invalid product: missing name")
	}
	name, ok := raw.(string)
	if !ok {
		return validationErrorf("invalid product: name must be a string")
	}
	p.Name = name

	if raw, ok := data["description"]; ok {
		description, ok := raw.(string)
		if !ok {
			return validationErrorf("invalid product: description must be a string")
		}
		p.Description = description
	} else {
		p.Description = ""
	}

	raw, ok = data["price"]
	if !ok {
		return validationErrorf("invalid product: missing price")
	}
	price, err := parsePrice(raw)
	if err != nil {
		return err
	}
	p.Price = price

	raw, ok = data["available"]
	if !ok {
		return validationErrorf("invalid product: missing available")
	}
	available, ok := raw.(bool)
	if !ok {
		return validationErrorf("invalid type for boolean [available]: %T", raw)
	}
	p.Available = available

	raw, ok = data["category"]
	if !ok {
		return validationErrorf("invalid product: missing category")
	}
	category, err := parseCategoryValue(raw)
	if err != nil {
		return err
	}
	p.Category = category

	return nil
}

// parsePrice accepts a JSON number or a numeric string.
func parsePrice(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, validationErrorf("invalid product: price [%s] is not a number", v)
		}
		return price, nil
	default:
		return decimal.Zero, validationErrorf("invalid type for price [%v]: %T", raw, raw)
	}
}

// parseCategoryValue accepts the enum name or its integer ordinal.
func parseCategoryValue(raw any) (Category, error) {
	switch v := raw.(type) {
	case string:
		category, err := CategoryFromName(v)
		if err != nil {
			return Unknown, validationErrorf("invalid category: %s", v)
		}
		return category, nil
	case float64:
		category := Category(int(v))
		if !category.Valid() {
			return Unknown, validationErrorf("invalid category: %v", v)
		}
		return category, nil
	default:
		return Unknown, validationErrorf("invalid type for category [%v]: %T", raw, raw)
	}
}

// All returns every product, in whatever order the store yields them.
func All(db *gorm.DB) ([]Product, error) {
	var products []Product
	if err := db.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Find returns the product with the given id, or nil when no row matches.
func Find(db *gorm.DB, id uint) (*Product, error) {
	var product Product
	err := db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName returns all products whose name matches exactly.
func FindByName(db *gorm.DB, name string) ([]Product, error) {
	var products []Product
	if err := db.Where("name = ?", name).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByCategory returns all products in the given category.
func FindByCategory(db *gorm.DB, category Category) ([]Product, error) {
	var products []Product
	if err := db.Where("category = ?", int(category)).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByAvailability returns all products with the given availability.
func FindByAvailability(db *gorm.DB, available bool) ([]Product, error) {
	var products []Product
	if err := db.Where("available = ?", available).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByPrice returns all products with exactly the given price.
func FindByPrice(db *gorm.DB, price decimal.Decimal) ([]Product, error) {
	var products []Product
	if err := db.Where("price = ?", price).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByPriceString coerces a price passed as a string, tolerating
// surrounding spaces and quotes, then matches on it exactly.
func FindByPriceString(db *gorm.DB, value string) ([]Product, error) {
	trimmed := strings.Trim(value, ` "`)
	price, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, validationErrorf("invalid price: %s", value)
	}
	return FindByPrice(db, price)
}
