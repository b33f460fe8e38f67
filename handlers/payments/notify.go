package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"
)

// notifyPaymentCompleted records an in-app notification and pushes to the
// payer's device once a transaction reaches the completed state.
func notifyPaymentCompleted(tx *models.Transaction) {
	var user models.User
	if err := utils.MarketplaceDB.First(&user, tx.UserID).Error; err != nil {
		log.Printf("Failed to find user %d for payment notification: %v", tx.UserID, err)
		return
	}

	title := "Payment Successful"
	body := fmt.Sprintf("Your payment of KES %d was received. Receipt: %s", tx.Amount, tx.MpesaReceiptNumber)

	notification := models.Notification{
		UserID: user.ID,
		Title:  title,
		Body:   body,
	}
	if err := utils.MarketplaceDB.Create(&notification).Error; err != nil {
		log.Printf("Failed to save payment notification: %v", err)
	}

	if user.PushToken == "" {
		log.Printf("User %d does not have a push token", user.ID)
		return
	}

	sendPushNotification(user.PushToken, title, body)
}

func sendPushNotification(pushToken, title, message string) {
	notification := map[string]interface{}{
		"to":    pushToken,
		"sound": "default",
		"title": title,
		"body":  message,
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Failed to marshal notification payload: %v", err)
		return
	}

	resp, err := http.Post("https://exp.host/--/api/v2/push/send", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Failed to send push notification: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Failed to send push notification, status: %d", resp.StatusCode)
	} else {
		log.Printf("Push notification sent successfully to %s", pushToken)
	}
}
