package courses

import (
	"net/http"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
)

// GetCourses lists training courses. The category, level and search filters
// are optional and combine.
func GetCourses(c *gin.Context) {
	query := utils.MarketplaceDB.Order("featured DESC, title ASC")

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if level := c.Query("level"); level != "" {
		query = query.Where("level = ?", level)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GetFeaturedCourses returns the courses highlighted on the landing page
func GetFeaturedCourses(c *gin.Context) {
	var courses []models.Course
	if err := utils.MarketplaceDB.Where("featured = ?", true).Order("title ASC").Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch featured courses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}
