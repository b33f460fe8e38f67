package seed

import (
	"errors"
	"log"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"gorm.io/gorm"
)

// SeedCrops loads the crop seasonality catalog if it is not present yet
func SeedCrops() error {
	var existing models.Crop
	err := utils.MarketplaceDB.First(&existing).Error
	if err == nil {
		log.Println("Crop catalog already seeded. Skipping.")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	crops := []models.Crop{
		{Name: "Maize", Category: "Cereals", Region: "Rift Valley", StartMonth: 3, EndMonth: 5, Description: "Long rains planting season for most maize-growing zones."},
		{Name: "Beans", Category: "Legumes", Region: "Central", StartMonth: 3, EndMonth: 6, Description: "Plant with the long rains; intercrops well with maize."},
		{Name: "Irish Potatoes", Category: "Tubers", Region: "Central Highlands", StartMonth: 3, EndMonth: 4, Description: "Highland planting at the onset of the long rains."},
		{Name: "Kales (Sukuma Wiki)", Category: "Vegetables", Region: "Countrywide", StartMonth: 1, EndMonth: 12, Description: "Grown year round under irrigation or rainfall."},
		{Name: "Tomatoes", Category: "Vegetables", Region: "Countrywide", StartMonth: 2, EndMonth: 9, Description: "Open-field planting avoiding the coldest months."},
		{Name: "Wheat", Category: "Cereals", Region: "Narok/Nakuru", StartMonth: 10, EndMonth: 3, Description: "Short rains planting carrying into the new year."},
		{Name: "Green Grams", Category: "Legumes", Region: "Eastern", StartMonth: 10, EndMonth: 12, Description: "Short rains crop for semi-arid zones."},
		{Name: "Sorghum", Category: "Cereals", Region: "Eastern", StartMonth: 10, EndMonth: 1, Description: "Drought-tolerant short rains planting."},
	}

	if err := utils.MarketplaceDB.Create(&crops).Error; err != nil {
		return err
	}

	log.Println("Crop catalog seeded successfully.")
	return nil
}

// SeedCourses loads the training course catalog if it is not present yet
func SeedCourses() error {
	var existing models.Course
	err := utils.MarketplaceDB.First(&existing).Error
	if err == nil {
		log.Println("Course catalog already seeded. Skipping.")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	courses := []models.Course{
		{Title: "Smart Farming Basics", Category: "Crop Production", Level: "beginner", DurationWeeks: 4, Featured: true, Description: "Soil preparation, seed selection and planting calendars."},
		{Title: "Drip Irrigation Setup", Category: "Water Management", Level: "intermediate", DurationWeeks: 3, Description: "Designing and maintaining smallholder drip systems."},
		{Title: "Post-Harvest Handling", Category: "Value Addition", Level: "beginner", DurationWeeks: 2, Featured: true, Description: "Reducing losses between harvest and market."},
		{Title: "Agribusiness Record Keeping", Category: "Business", Level: "beginner", DurationWeeks: 2, Description: "Tracking costs, yields and profit per acre."},
		{Title: "Greenhouse Tomato Production", Category: "Crop Production", Level: "advanced", DurationWeeks: 6, Description: "Intensive production under protected cultivation."},
		{Title: "Marketing Your Produce Online", Category: "Business", Level: "intermediate", DurationWeeks: 3, Description: "Reaching buyers directly through digital marketplaces."},
	}

	if err := utils.MarketplaceDB.Create(&courses).Error; err != nil {
		return err
	}

	log.Println("Course catalog seeded successfully.")
	return nil
}
