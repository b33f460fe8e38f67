package migrations

import (
	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"
)

func MigrateCourses() {
	utils.MarketplaceDB.AutoMigrate(&models.Course{})
}
