package auth

import (
	"log"
	"net/http"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a farmer or buyer account and sends an OTP for verification
func Register(c *gin.Context) {
	var input struct {
		FullName    string `json:"full_name"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
		UserType    string `json:"user_type"`
		County      string `json:"county"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please fill in all required fields."})
		return
	}

	if input.FullName == "" || input.Email == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name, email and password are required."})
		return
	}

	if input.UserType != models.UserTypeFarmer && input.UserType != models.UserTypeBuyer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User type must be either farmer or buyer."})
		return
	}

	phoneNumber := ""
	if input.PhoneNumber != "" {
		normalized, err := utils.NormalizePhoneNumber(input.PhoneNumber)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		phoneNumber = normalized
	}

	// Check if a user already exists with this email
	var existingUser models.User
	if err := utils.MarketplaceDB.Where("email = ?", input.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists. Please log in."})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your password. Please try again."})
		return
	}

	otp := generateOTP()
	now := time.Now()

	user := models.User{
		FullName:       input.FullName,
		Email:          input.Email,
		PhoneNumber:    phoneNumber,
		Password:       string(hashedPassword),
		UserType:       input.UserType,
		County:         input.County,
		Verified:       false,
		OTP:            otp,
		OTPGeneratedAt: &now,
	}

	if err := utils.MarketplaceDB.Create(&user).Error; err != nil {
		log.Printf("Failed to create user in the database: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue creating your account. Please try again later."})
		return
	}

	sendOTP(&user, otp)

	c.JSON(http.StatusOK, gin.H{"message": "Account created. An OTP has been sent to verify your account."})
}

// VerifyOTP validates the OTP during registration and marks the account verified
func VerifyOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please ensure all required fields are filled correctly."})
		return
	}

	if input.Email == "" || input.OTP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required."})
		return
	}

	var user models.User
	if err := utils.MarketplaceDB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found. Please check your email address."})
		return
	}

	if user.OTP == "" || user.OTPGeneratedAt == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The OTP is missing or not properly set. Please request a new OTP."})
		return
	}

	if input.OTP != user.OTP {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The OTP is incorrect. Please try again or request a new one."})
		return
	}

	if time.Since(*user.OTPGeneratedAt) > otpValidityDuration {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The OTP has expired. Please request a new OTP."})
		return
	}

	user.Verified = true
	user.OTP = ""
	user.OTPGeneratedAt = nil

	if err := utils.MarketplaceDB.Save(&user).Error; err != nil {
		log.Printf("Failed to verify user in the database: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue processing your request. Please try again later."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account verified successfully. You can now log in."})
}
