package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kityk/wms-order-service/internal/apperr"
	"github.com/kityk/wms-order-service/internal/inventory"
)

type InventoryAPI interface {
	GetProduct(ctx context.Context, productID int64) (inventory.Product, error)
	LockStock(ctx context.Context, items []inventory.LockItem) (inventory.LockResult, error)
}

type productValidator struct {
	logger *slog.Logger
	inv    InventoryAPI
}

func NewProductValidator(logger *slog.Logger, inv InventoryAPI) *productValidator {
	return &productValidator{
		logger: logger.With(slog.String("service", "product_validation")),
		inv:    inv,
	}
}

// ValidateProductsExist checks every product id against the inventory
// service and aggregates all unknown ids into one validation error. Each
// id is checked exactly once, no retries.
func (v *productValidator) ValidateProductsExist(ctx context.Context, productIDs []int64) error {
	if len(productIDs) == 0 {
		v.logger.Warn("empty product list provided for validation")
		return nil
	}

	var invalid []int64
	for _, id := range productIDs {
		if v.isProductInvalid(ctx, id) {
			invalid = append(invalid, id)
		}
	}

	if len(invalid) > 0 {
		detail := fmt.Sprintf("The following products do not exist in inventory: [%s]", joinIDs(invalid))
		v.logger.Error("product validation failed", slog.String("invalid_products", joinIDs(invalid)))
		return apperr.Invalid(detail)
	}

	v.logger.Info("all products validated successfully", slog.Int("count", len(productIDs)))
	return nil
}

// isProductInvalid treats only an explicit not-found as invalid. Other
// failures (network, service down) do not block order creation; they are
// logged and the product passes. This fail-open policy is intentional.
func (v *productValidator) isProductInvalid(ctx context.Context, productID int64) bool {
	_, err := v.inv.GetProduct(ctx, productID)
	switch {
	case err == nil:
		return false
	case errors.Is(err, inventory.ErrProductNotFound):
		v.logger.Warn("product not found in inventory", slog.Int64("product_id", productID))
		return true
	default:
		v.logger.Error("error validating product",
			slog.Int64("product_id", productID), slog.Any("error", err))
		return false
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
