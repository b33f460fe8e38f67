package payments

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/mpesa"
	"github.com/lewiii254/farm-connect-market-wise-sub001/store"
	"github.com/lewiii254/farm-connect-market-wise-sub001/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentGateway is the slice of the M-Pesa client the handlers need;
// tests substitute a stub.
type PaymentGateway interface {
	STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error)
}

var (
	Store   store.TransactionStore
	Keys    store.IdempotencyStore
	Gateway PaymentGateway

	// Notifier is called after a payment reaches the completed state.
	Notifier func(tx *models.Transaction)
)

// Setup wires the payment handlers to the database and the gateway.
// A missing gateway configuration is not fatal here; initiation calls
// report it instead, so the rest of the marketplace keeps serving.
func Setup(db *gorm.DB) {
	gormStore := store.NewGormStore(db)
	Store = gormStore
	Keys = gormStore
	Notifier = notifyPaymentCompleted

	cfg, err := mpesa.ConfigFromEnv()
	if err != nil {
		log.Printf("M-Pesa gateway not configured: %v", err)
		return
	}
	Gateway = mpesa.NewClient(cfg)
}

type initiatePaymentRequest struct {
	PhoneNumber string `json:"phone_number"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// InitiateMpesaPayment validates the request, pushes an STK prompt to the
// payer's device and persists a pending transaction keyed by the gateway's
// checkout request id. The caller polls that id for completion.
func InitiateMpesaPayment(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	phoneNumber, err := utils.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be greater than zero"})
		return
	}

	if Gateway == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "M-Pesa payments are not configured"})
		return
	}

	// A repeated idempotency key returns the original correlation id
	// without pushing a second prompt to the payer.
	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey != "" {
		checkoutRequestID, err := Keys.LookupKey(user.ID, idempotencyKey)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"message":             "Payment request already initiated.",
				"checkout_request_id": checkoutRequestID,
			})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check idempotency key"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	pushResp, err := Gateway.STKPush(ctx, mpesa.STKPushRequest{
		PhoneNumber:      phoneNumber,
		Amount:           req.Amount,
		AccountReference: "FC-" + uuid.New().String()[:8],
		Description:      req.Description,
	})
	if err != nil {
		var configErr *mpesa.ConfigError
		var gatewayErr *mpesa.GatewayError
		var transientErr *mpesa.TransientError
		switch {
		case errors.As(err, &configErr):
			log.Printf("M-Pesa configuration error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "M-Pesa payments are not configured"})
		case errors.As(err, &gatewayErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": gatewayErr.Description})
		case errors.As(err, &transientErr):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not reach the payment gateway. Please try again."})
		default:
			log.Printf("Failed to initiate M-Pesa payment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate payment"})
		}
		return
	}

	transaction := models.Transaction{
		CheckoutRequestID: pushResp.CheckoutRequestID,
		MerchantRequestID: pushResp.MerchantRequestID,
		UserID:            user.ID,
		PhoneNumber:       phoneNumber,
		Amount:            req.Amount,
		Description:       req.Description,
	}
	if err := Store.InsertPending(&transaction); err != nil {
		log.Printf("Failed to persist pending transaction %s: %v", pushResp.CheckoutRequestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	if idempotencyKey != "" {
		if err := Keys.RecordKey(user.ID, idempotencyKey, pushResp.CheckoutRequestID); err != nil {
			log.Printf("Failed to record idempotency key for %s: %v", pushResp.CheckoutRequestID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             "Payment request sent. Enter your M-Pesa PIN on your phone to complete.",
		"checkout_request_id": pushResp.CheckoutRequestID,
		"customer_message":    pushResp.CustomerMessage,
	})
}

// MpesaCallback receives the gateway's asynchronous payment result and
// moves the matching pending transaction to its terminal state. The update
// is conditioned on the row still being pending, so redelivered callbacks
// are no-ops. The gateway only reads the status code of the response.
func MpesaCallback(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	result, err := mpesa.ParseCallback(body)
	if err != nil {
		log.Printf("Rejected malformed M-Pesa callback: %v", err)
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	fields := map[string]interface{}{
		"status":      models.TransactionStatusFailed,
		"result_desc": result.ResultDesc,
	}
	if result.Success() {
		fields["status"] = models.TransactionStatusCompleted
		if result.ReceiptNumber != "" {
			fields["mpesa_receipt_number"] = result.ReceiptNumber
		}
		if result.TransactionDate != "" {
			fields["transaction_date"] = result.TransactionDate
		}
	}

	updated, err := Store.UpdateIfPending(result.CheckoutRequestID, fields)
	if err != nil {
		log.Printf("Failed to update transaction %s: %v", result.CheckoutRequestID, err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !updated {
		// Orphan callback or a redelivery after the row went terminal.
		// Acknowledge so the gateway stops retrying.
		log.Printf("No pending transaction for callback %s (result code %d)",
			result.CheckoutRequestID, result.ResultCode)
		c.String(http.StatusOK, "OK")
		return
	}

	if result.Success() && Notifier != nil {
		if tx, err := Store.GetByCheckoutRequestID(result.CheckoutRequestID); err == nil {
			Notifier(tx)
		}
	}

	c.String(http.StatusOK, "OK")
}

// GetTransaction lets the client poll a payment by its checkout request id.
func GetTransaction(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	checkoutRequestID := c.Param("checkout_request_id")
	if checkoutRequestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Checkout request ID is required"})
		return
	}

	transaction, err := Store.GetByCheckoutRequestID(checkoutRequestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transaction"})
		return
	}

	if transaction.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// ListTransactions returns the caller's payment attempts, newest first.
func ListTransactions(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	transactions, err := Store.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}
