package model

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache memory database so every pooled connection
	// sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}))
	return db
}

var factoryNames = []string{
	"Hat", "Pants", "Shirt", "Apple", "Banana", "Pots",
	"Towels", "Ford", "Chevy", "Hammer", "Wrench",
}

var factoryCategories = []Category{
	Unknown, Cloths, Food, Housewares, Automotive, Tools,
}

// productFactory builds a random unpersisted product.
func productFactory() *Product {
	name := factoryNames[rand.Intn(len(factoryNames))]
	return &Product{
		Name:        name,
		Description: "A test " + name,
		Price:       decimal.New(int64(rand.Intn(99999)+50), -2),
		Available:   rand.Intn(2) == 0,
		Category:    factoryCategories[rand.Intn(len(factoryCategories))],
	}
}

func seedProducts(t *testing.T, db *gorm.DB, count int) []Product {
	t.Helper()
	products := make([]Product, 0, count)
	for i := 0; i < count; i++ {
		product := productFactory()
		require.NoError(t, product.Create(db))
		products = append(products, *product)
	}
	return products
}

func TestCreateProduct(t *testing.T) {
	db := setupTestDB(t)

	product := &Product{
		Name:        "Fedora",
		Description: "A red hat",
		Price:       decimal.RequireFromString("12.50"),
		Available:   true,
		Category:    Cloths,
	}
	assert.Equal(t, "<Product Fedora id=[None]>", product.String())

	require.NoError(t, product.Create(db))
	assert.NotZero(t, product.ID)
	assert.Equal(t, fmt.Sprintf("<Product Fedora id=[%d]>", product.ID), product.String())

	products, err := All(db)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, product.Name, products[0].Name)
	assert.Equal(t, product.Description, products[0].Description)
	assert.True(t, product.Price.Equal(products[0].Price))
	assert.Equal(t, product.Available, products[0].Available)
	assert.Equal(t, product.Category, products[0].Category)
}

func TestCreateDiscardsPresetID(t *testing.T) {
	db := setupTestDB(t)

	product := productFactory()
	product.ID = 99
	require.NoError(t, product.Create(db))
	assert.NotEqual(t, uint(99), product.ID)
}

func TestFindProduct(t *testing.T) {
	db := setupTestDB(t)

	product := productFactory()
	require.NoError(t, product.Create(db))

	found, err := Find(db, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, product.ID, found.ID)
	assert.Equal(t, product.Name, found.Name)
	assert.Equal(t, product.Description, found.Description)
	assert.True(t, product.Price.Equal(found.Price))
	assert.Equal(t, product.Available, found.Available)
	assert.Equal(t, product.Category, found.Category)
}

func TestFindReturnsNilOnMiss(t *testing.T) {
	db := setupTestDB(t)

	found, err := Find(db, 12345)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestUpdateProduct(t *testing.T) {
	db := setupTestDB(t)

	product := productFactory()
	require.NoError(t, product.Create(db))
	id := product.ID

	product.Description = "Some desc"
	require.NoError(t, product.Update(db))
	assert.Equal(t, id, product.ID)

	products, err := All(db)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, id, products[0].ID)
	assert.Equal(t, "Some desc", products[0].Description)
}

func TestUpdateProductWithNoID(t *testing.T) {
	db := setupTestDB(t)

	product := productFactory()
	require.NoError(t, product.Create(db))

	product.ID = 0
	err := product.Update(db)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	// Nothing was persisted
	products, listErr := All(db)
	require.NoError(t, listErr)
	assert.Len(t, products, 1)
}

func TestDeleteProduct(t *testing.T) {
	db := setupTestDB(t)

	product := productFactory()
	require.NoError(t, product.Create(db))

	products, err := All(db)
	require.NoError(t, err)
	require.Len(t, products, 1)

	require.NoError(t, product.Delete(db))

	products, err = All(db)
	require.NoError(t, err)
	assert.Empty(t, products)

	found, err := Find(db, product.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	original := productFactory()
	data := original.Serialize()

	product := &Product{}
	require.NoError(t, product.Deserialize(data))

	assert.Equal(t, original.Name, product.Name)
	assert.Equal(t, original.Description, product.Description)
	assert.True(t, original.Price.Equal(product.Price))
	assert.Equal(t, original.Available, product.Available)
	assert.Equal(t, original.Category, product.Category)
}

func TestSerializeUnpersistedIDIsNull(t *testing.T) {
	product := productFactory()
	data := product.Serialize()
	assert.Nil(t, data["id"])

	db := setupTestDB(t)
	require.NoError(t, product.Create(db))
	data = product.Serialize()
	assert.Equal(t, product.ID, data["id"])
}

func TestDeserializeCategoryOrdinal(t *testing.T) {
	product := &Product{}
	data := productFactory().Serialize()
	// JSON numbers decode as float64
	data["category"] = float64(Cloths)
	require.NoError(t, product.Deserialize(data))
	assert.Equal(t, Cloths, product.Category)
}

func TestDeserializePriceAsString(t *testing.T) {
	product := &Product{}
	data := productFactory().Serialize()
	data["price"] = "12.50"
	require.NoError(t, product.Deserialize(data))
	assert.True(t, decimal.RequireFromString("12.50").Equal(product.Price))
}

func TestDeserializeRejects(t *testing.T) {
	base := productFactory().Serialize()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"available not a boolean", "available", []any{}},
		{"unknown category name", "category", "SPORTS"},
		{"price not numeric", "price", map[string]any{}},
		{"name not a string", "name", 42.0},
		{"category out of range", "category", float64(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{}
			for k, v := range base {
				data[k] = v
			}
			data[tt.key] = tt.value

			product := &Product{}
			err := product.Deserialize(data)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestDeserializeMissingKeys(t *testing.T) {
	base := productFactory().Serialize()

	for _, key := range []string{"name", "price", "available", "category"} {
		t.Run("missing "+key, func(t *testing.T) {
			data := map[string]any{}
			for k, v := range base {
				data[k] = v
			}
			delete(data, key)

			product := &Product{}
			err := product.Deserialize(data)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Message, key)
		})
	}
}

func TestListAllProducts(t *testing.T) {
	db := setupTestDB(t)

	products, err := All(db)
	require.NoError(t, err)
	assert.Empty(t, products)

	seedProducts(t, db, 5)

	products, err = All(db)
	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestFindByName(t *testing.T) {
	db := setupTestDB(t)
	products := seedProducts(t, db, 5)

	name := products[0].Name
	count := 0
	for _, p := range products {
		if p.Name == name {
			count++
		}
	}

	found, err := FindByName(db, name)
	require.NoError(t, err)
	assert.Len(t, found, count)
	for _, p := range found {
		assert.Equal(t, name, p.Name)
	}
}

func TestFindByCategory(t *testing.T) {
	db := setupTestDB(t)
	products := seedProducts(t, db, 10)

	category := products[0].Category
	count := 0
	for _, p := range products {
		if p.Category == category {
			count++
		}
	}

	found, err := FindByCategory(db, category)
	require.NoError(t, err)
	assert.Len(t, found, count)
	for _, p := range found {
		assert.Equal(t, category, p.Category)
	}
}

func TestFindByAvailability(t *testing.T) {
	db := setupTestDB(t)
	products := seedProducts(t, db, 10)

	available := products[0].Available
	count := 0
	for _, p := range products {
		if p.Available == available {
			count++
		}
	}

	found, err := FindByAvailability(db, available)
	require.NoError(t, err)
	assert.Len(t, found, count)
	for _, p := range found {
		assert.Equal(t, available, p.Available)
	}
}

func TestFindByPrice(t *testing.T) {
	db := setupTestDB(t)
	products := seedProducts(t, db, 10)

	price := products[0].Price
	count := 0
	for _, p := range products {
		if p.Price.Equal(price) {
			count++
		}
	}

	found, err := FindByPrice(db, price)
	require.NoError(t, err)
	assert.Len(t, found, count)
	for _, p := range found {
		assert.True(t, price.Equal(p.Price))
	}
}

func TestFindByPriceString(t *testing.T) {
	db := setupTestDB(t)
	products := seedProducts(t, db, 10)

	price := products[0].Price
	count := 0
	for _, p := range products {
		if p.Price.Equal(price) {
			count++
		}
	}

	// Spaces and quotes around the value must be tolerated
	found, err := FindByPriceString(db, fmt.Sprintf(" %q ", price.String()))
	require.NoError(t, err)
	assert.Len(t, found, count)
}

func TestFindByPriceStringInvalid(t *testing.T) {
	db := setupTestDB(t)

	_, err := FindByPriceString(db, "not-a-price")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
