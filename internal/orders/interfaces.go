package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// Repository defines persistence operations for consumer orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.ConsumerOrder) error
	FindByID(ctx context.Context, id int64) (*models.ConsumerOrder, error)
	ListByCycle(ctx context.Context, cycleID int64) ([]models.ConsumerOrder, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error
	FindLine(ctx context.Context, lineID int64) (*models.OrderLine, error)
	FindLineByProduct(ctx context.Context, orderID, productID int64) (*models.OrderLine, error)
	CreateLine(ctx context.Context, line *models.OrderLine) error
	UpdateLine(ctx context.Context, lineID int64, updates map[string]any) error
	DeleteLine(ctx context.Context, lineID int64) (int64, error)
}
