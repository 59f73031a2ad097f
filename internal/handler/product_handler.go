package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reader00/tdd-bdd-final-project/internal/model"
	"github.com/reader00/tdd-bdd-final-project/pkg/logger"
	"github.com/reader00/tdd-bdd-final-project/prometheus"
)

// ProductHandler serves the /products routes over an explicit database
// handle, so nothing reaches for a global session.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler creates a ProductHandler backed by the given database
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// checkContentType verifies the request carries a JSON body. Media type
// parameters such as charset are ignored.
func checkContentType(c echo.Context) bool {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == "" {
		return false
	}
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return mediaType == echo.MIMEApplicationJSON
}

func unsupportedMediaType(c echo.Context) error {
	log := logger.FromContext(c)
	log.Error("Invalid Content-Type",
		zap.String("content_type", c.Request().Header.Get(echo.HeaderContentType)))
	return c.JSON(http.StatusUnsupportedMediaType, echo.Map{
		"message": "Content-Type must be application/json",
	})
}

func notFound(c echo.Context, id string) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"message": fmt.Sprintf("Product with id %s not found.", id),
	})
}

// CreateProduct handles creating a new product
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Request to Create a Product")

	if !checkContentType(c) {
		return unsupportedMediaType(c)
	}

	var data map[string]any
	if err := c.Bind(&data); err != nil {
		log.Error("Invalid request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "body of request contained bad or no data",
		})
	}

	product := &model.Product{}
	if err := product.Deserialize(data); err != nil {
		log.Warn("Product payload failed validation", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	defer prometheus.TrackDBOperation("create")(time.Now())
	if err := product.Create(h.db); err != nil {
		log.Error("Failed to create product",
			zap.String("name", product.Name),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to create product",
		})
	}
	prometheus.RecordProductOperation("create")

	log.Info("Product created successfully",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))

	location := fmt.Sprintf("%s://%s/products/%d", c.Scheme(), c.Request().Host, product.ID)
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.JSON(http.StatusCreated, product.Serialize())
}

// ListProducts handles retrieving all products with optional filtering.
// Filters take precedence in the order name > category > available > price.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Request to List Products")

	defer prometheus.TrackDBOperation("list")(time.Now())

	params := c.QueryParams()
	var (
		products []model.Product
		err      error
	)
	switch {
	case params.Has("name"):
		name := c.QueryParam("name")
		log.Info("Filtering products by name", zap.String("name", name))
		products, err = model.FindByName(h.db, name)
	case params.Has("category"):
		value := c.QueryParam("category")
		category, parseErr := model.ParseCategory(strings.ToUpper(value))
		if parseErr != nil {
			log.Warn("Invalid category parameter", zap.String("category", value))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": fmt.Sprintf("Invalid category: %s", value),
			})
		}
		log.Info("Filtering products by category", zap.Stringer("category", category))
		products, err = model.FindByCategory(h.db, category)
	case params.Has("available"):
		value := c.QueryParam("available")
		available := value == "true" || value == "True"
		log.Info("Filtering products by availability", zap.Bool("available", available))
		products, err = model.FindByAvailability(h.db, available)
	case params.Has("price"):
		value := c.QueryParam("price")
		log.Info("Filtering products by price", zap.String("price", value))
		products, err = model.FindByPriceString(h.db, value)
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			log.Warn("Invalid price parameter", zap.String("price", value))
			return c.JSON(http.StatusBadRequest, echo.Map{"message": validationErr.Message})
		}
	default:
		products, err = model.All(h.db)
	}
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to retrieve products",
		})
	}
	prometheus.RecordProductOperation("list")

	message := make([]map[string]any, 0, len(products))
	for i := range products {
		message = append(message, products[i].Serialize())
	}

	log.Info("Products retrieved successfully", zap.Int("count", len(message)))
	return c.JSON(http.StatusOK, message)
}

// GetProduct handles retrieving a single product by ID
func (h *ProductHandler) GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Request to Read a Product", zap.String("product_id", id))

	product, err := h.findByParam(id)
	if err != nil {
		log.Error("Failed to read product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to retrieve product",
		})
	}
	if product == nil {
		log.Warn("Product not found", zap.String("product_id", id))
		return notFound(c, id)
	}
	prometheus.RecordProductOperation("read")

	return c.JSON(http.StatusOK, product.Serialize())
}

// UpdateProduct handles updating an existing product
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Request to Update a Product", zap.String("product_id", id))

	if !checkContentType(c) {
		return unsupportedMediaType(c)
	}

	product, err := h.findByParam(id)
	if err != nil {
		log.Error("Failed to read product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to retrieve product",
		})
	}
	if product == nil {
		log.Warn("Product not found for update", zap.String("product_id", id))
		return notFound(c, id)
	}

	var data map[string]any
	if err := c.Bind(&data); err != nil {
		log.Error("Invalid request body", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "body of request contained bad or no data",
		})
	}

	if err := product.Deserialize(data); err != nil {
		log.Warn("Product payload failed validation",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := product.Update(h.db); err != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to update product",
		})
	}
	prometheus.RecordProductOperation("update")

	log.Info("Product updated successfully",
		zap.String("product_id", id),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, product.Serialize())
}

// DeleteProduct handles deleting a product
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")
	log.Info("Request to Delete a Product", zap.String("product_id", id))

	product, err := h.findByParam(id)
	if err != nil {
		log.Error("Failed to read product", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to retrieve product",
		})
	}
	if product == nil {
		log.Warn("Product not found for deletion", zap.String("product_id", id))
		return notFound(c, id)
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := product.Delete(h.db); err != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Failed to delete product",
		})
	}
	prometheus.RecordProductOperation("delete")

	log.Info("Product deleted successfully", zap.String("product_id", id))
	return c.NoContent(http.StatusNoContent)
}

// findByParam resolves a path id to a product. A non-numeric id resolves
// to no product, the same as an unknown one.
func (h *ProductHandler) findByParam(id string) (*model.Product, error) {
	parsed, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, nil
	}
	defer prometheus.TrackDBOperation("find")(time.Now())
	return model.Find(h.db, uint(parsed))
}
