package auth

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
)

const otpValidityDuration = 10 * time.Minute

// generateOTP generates a 6-digit OTP
func generateOTP() string {
	source := rand.NewSource(time.Now().UnixNano())
	r := rand.New(source)
	const digits = "0123456789"
	otp := make([]byte, 6)
	for i := range otp {
		otp[i] = digits[r.Intn(len(digits))]
	}
	return string(otp)
}

// sendOTP delivers the OTP via email, and via WhatsApp when the user has a
// phone number on file
func sendOTP(user *models.User, otp string) {
	utils.SendOTPEmail(user.Email, otp)
	if user.PhoneNumber != "" {
		utils.SendOTPWhatsApp(user.PhoneNumber, otp)
	}
}

func SavePushToken(c *gin.Context) {
	var req struct {
		PushToken string `json:"push_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	if err := utils.MarketplaceDB.Model(&user).Update("push_token", req.PushToken).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save push token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Push token saved"})
}
