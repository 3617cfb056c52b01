package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kityk/wms-order-service/internal/apperr"
	"github.com/kityk/wms-order-service/internal/inventory"
)

type stockLocker struct {
	logger *slog.Logger
	inv    InventoryAPI
}

func NewStockLocker(logger *slog.Logger, inv InventoryAPI) *stockLocker {
	return &stockLocker{
		logger: logger.With(slog.String("service", "stock_locking")),
		inv:    inv,
	}
}

// LockStockForOrder reserves stock for all items of one order in a single
// bulk call. Failures are classified into three outcomes; the caller
// decides what to do with them. No retries.
func (s *stockLocker) LockStockForOrder(ctx context.Context, items []NewOrderItem) error {
	if len(items) == 0 {
		s.logger.Warn("empty order items list provided for stock locking")
		return nil
	}

	lockItems := make([]inventory.LockItem, 0, len(items))
	for _, item := range items {
		lockItems = append(lockItems, inventory.LockItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	result, err := s.inv.LockStock(ctx, lockItems)
	switch {
	case err == nil && result.Success:
		s.logger.Info("successfully locked stock", slog.Int("items", len(lockItems)))
		return nil

	case err == nil:
		s.logger.Error("stock locking rejected", slog.String("message", result.Message))
		return apperr.New(apperr.KindStockConflict,
			"Stock locking failed: "+result.Message,
			"Check inventory availability and try again")

	case errors.Is(err, inventory.ErrUnprocessable):
		s.logger.Error("insufficient stock for order items", slog.Any("error", err))
		return apperr.Wrap(apperr.KindInsufficientStock,
			"Insufficient stock for order",
			"Reduce quantities or wait for inventory to be restocked",
			err)

	default:
		s.logger.Error("error locking stock", slog.Any("error", err))
		return apperr.Wrap(apperr.KindUnavailable,
			"Error locking stock",
			"The inventory service is currently unavailable. Please try again later.",
			err)
	}
}
