package crops

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
)

// GetCrops returns the full crop catalog, optionally filtered by category
func GetCrops(c *gin.Context) {
	query := utils.MarketplaceDB.Order("name ASC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var crops []models.Crop
	if err := query.Find(&crops).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch crops"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"crops": crops})
}

// GetCropsInSeason returns the crops whose planting window contains the
// given month (defaults to the current month). Wrap-around windows such as
// October to March are handled.
func GetCropsInSeason(c *gin.Context) {
	month := int(time.Now().Month())
	if monthParam := c.Query("month"); monthParam != "" {
		parsed, err := strconv.Atoi(monthParam)
		if err != nil || parsed < 1 || parsed > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Month must be a number between 1 and 12"})
			return
		}
		month = parsed
	}

	var crops []models.Crop
	if err := utils.MarketplaceDB.Order("name ASC").Find(&crops).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch crops"})
		return
	}

	inSeason := make([]models.Crop, 0, len(crops))
	for _, crop := range crops {
		if crop.InSeason(month) {
			inSeason = append(inSeason, crop)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"month": month,
		"crops": inSeason,
	})
}
