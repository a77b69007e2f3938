package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/resource"
)

// Module defines the contract for a self-registering catalog module.
// Each module registers its API routes, owns its schema and exposes the
// retention side of its service to the purge job.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup)
	AutoMigrate(db *gorm.DB) error
	Purger() resource.Purger
}
