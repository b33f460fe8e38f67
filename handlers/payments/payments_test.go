package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"
	"github.com/lewiii254/farm-connect-market-wise-sub001/mpesa"
	"github.com/lewiii254/farm-connect-market-wise-sub001/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryStore implements store.TransactionStore and store.IdempotencyStore
// with the same conditional-update semantics as the gorm store.
type memoryStore struct {
	mu           sync.Mutex
	nextID       uint
	transactions map[string]*models.Transaction
	keys         map[string]string
	updates      int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		transactions: make(map[string]*models.Transaction),
		keys:         make(map[string]string),
	}
}

func (s *memoryStore) InsertPending(tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx.ID = s.nextID
	tx.Status = models.TransactionStatusPending
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	copied := *tx
	s.transactions[tx.CheckoutRequestID] = &copied
	return nil
}

func (s *memoryStore) UpdateIfPending(checkoutRequestID string, fields map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[checkoutRequestID]
	if !ok || tx.Status != models.TransactionStatusPending {
		return false, nil
	}
	if status, ok := fields["status"].(string); ok {
		tx.Status = status
	}
	if receipt, ok := fields["mpesa_receipt_number"].(string); ok {
		tx.MpesaReceiptNumber = receipt
	}
	if date, ok := fields["transaction_date"].(string); ok {
		tx.TransactionDate = date
	}
	if desc, ok := fields["result_desc"].(string); ok {
		tx.ResultDesc = desc
	}
	tx.UpdatedAt = time.Now()
	s.updates++
	return true, nil
}

func (s *memoryStore) GetByCheckoutRequestID(checkoutRequestID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[checkoutRequestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (s *memoryStore) ListByUser(userID uint) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []models.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			txs = append(txs, *tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })
	return txs, nil
}

func (s *memoryStore) LookupKey(userID uint, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keys[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return id, nil
}

func (s *memoryStore) RecordKey(userID uint, key, checkoutRequestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = checkoutRequestID
	return nil
}

// stubGateway implements PaymentGateway without network access.
type stubGateway struct {
	mu       sync.Mutex
	calls    int
	response *mpesa.STKPushResponse
	err      error
}

func (g *stubGateway) STKPush(ctx context.Context, req mpesa.STKPushRequest) (*mpesa.STKPushResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.response, nil
}

func setupTest(t *testing.T, gateway PaymentGateway) *memoryStore {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memory := newMemoryStore()
	Store = memory
	Keys = memory
	Gateway = gateway
	Notifier = nil

	return memory
}

func testRouter() *gin.Engine {
	r := gin.New()
	r.POST("/payments/mpesa/callback", MpesaCallback)

	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		c.Set("user", models.User{Model: gorm.Model{ID: 7}, Email: "farmer@example.com"})
	})
	authed.POST("/payments/initiate", InitiateMpesaPayment)
	authed.GET("/payments/:checkout_request_id", GetTransaction)
	authed.GET("/payments", ListTransactions)

	return r
}

func initiateBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"phone_number": "0712345678",
		"amount":       100,
		"description":  "Test",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestInitiatePersistsPendingTransaction(t *testing.T) {
	gateway := &stubGateway{response: &mpesa.STKPushResponse{
		CheckoutRequestID:   "ws_001",
		MerchantRequestID:   "mr_001",
		ResponseCode:        "0",
		ResponseDescription: "Success",
		CustomerMessage:     "Enter your PIN",
	}}
	memory := setupTest(t, gateway)
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", initiateBody(t))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ws_001", resp["checkout_request_id"])

	tx, err := memory.GetByCheckoutRequestID("ws_001")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status)
	assert.Equal(t, "254712345678", tx.PhoneNumber)
	assert.Equal(t, int64(100), tx.Amount)
	assert.Equal(t, uint(7), tx.UserID)
}

func TestInitiateRejectsBadInput(t *testing.T) {
	gateway := &stubGateway{}
	setupTest(t, gateway)
	router := testRouter()

	cases := []map[string]interface{}{
		{"phone_number": "12345", "amount": 100},
		{"phone_number": "", "amount": 100},
		{"phone_number": "0712345678", "amount": 0},
		{"phone_number": "0712345678", "amount": -5},
	}

	for _, payload := range cases {
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/initiate", bytes.NewBuffer(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "payload %v", payload)
	}

	assert.Zero(t, gateway.calls, "gateway must not be contacted for invalid input")
}

func TestInitiateSurfacesGatewayRejection(t *testing.T) {
	gateway := &stubGateway{err: &mpesa.GatewayError{Code: "1", Description: "Insufficient funds"}}
	memory := setupTest(t, gateway)
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", initiateBody(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient funds")
	assert.Empty(t, memory.transactions)
}

func TestInitiateSurfacesTransientFailure(t *testing.T) {
	gateway := &stubGateway{err: &mpesa.TransientError{Err: errors.New("connection refused")}}
	setupTest(t, gateway)
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", initiateBody(t))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInitiateIdempotencyKeyReturnsOriginalCheckoutID(t *testing.T) {
	gateway := &stubGateway{response: &mpesa.STKPushResponse{
		CheckoutRequestID: "ws_001",
		ResponseCode:      "0",
	}}
	setupTest(t, gateway)
	router := testRouter()

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/payments/initiate", initiateBody(t))
		req.Header.Set("Idempotency-Key", "order-42")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ws_001", resp["checkout_request_id"])
	}

	assert.Equal(t, 1, gateway.calls, "repeat key must not reach the gateway")
}

func postCallback(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/mpesa/callback", bytes.NewBufferString(body))
	router.ServeHTTP(w, req)
	return w
}

func successCallback(checkoutRequestID string) string {
	return `{
		"Body": {
			"stkCallback": {
				"CheckoutRequestID": "` + checkoutRequestID + `",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 100},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`
}

func failureCallback(checkoutRequestID string) string {
	return `{
		"Body": {
			"stkCallback": {
				"CheckoutRequestID": "` + checkoutRequestID + `",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user."
			}
		}
	}`
}

func seedPending(t *testing.T, memory *memoryStore, checkoutRequestID string) {
	t.Helper()
	require.NoError(t, memory.InsertPending(&models.Transaction{
		CheckoutRequestID: checkoutRequestID,
		UserID:            7,
		PhoneNumber:       "254712345678",
		Amount:            100,
	}))
}

func TestCallbackCompletesTransaction(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()
	seedPending(t, memory, "ws_001")

	w := postCallback(router, successCallback("ws_001"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	tx, err := memory.GetByCheckoutRequestID("ws_001")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, "NLJ7RT61SV", tx.MpesaReceiptNumber)
	assert.Equal(t, "20191219102115", tx.TransactionDate)
}

func TestCallbackFailsTransactionWithoutReceipt(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()
	seedPending(t, memory, "ws_002")

	w := postCallback(router, failureCallback("ws_002"))
	require.Equal(t, http.StatusOK, w.Code)

	tx, err := memory.GetByCheckoutRequestID("ws_002")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, tx.Status)
	assert.Empty(t, tx.MpesaReceiptNumber)
	assert.Equal(t, "Request cancelled by user.", tx.ResultDesc)
}

func TestCallbackMalformedBodyRejected(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()
	seedPending(t, memory, "ws_003")

	for _, body := range []string{``, `not json`, `{}`, `{"Body": {}}`} {
		w := postCallback(router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}

	tx, err := memory.GetByCheckoutRequestID("ws_003")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, tx.Status, "malformed callbacks must not touch rows")
}

func TestCallbackOrphanAcknowledged(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()

	w := postCallback(router, successCallback("ws_unknown"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, memory.transactions, "orphan callbacks must not create rows")
}

func TestCallbackRedeliveryIsNoOp(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()
	seedPending(t, memory, "ws_004")

	w := postCallback(router, successCallback("ws_004"))
	require.Equal(t, http.StatusOK, w.Code)

	// A late failure delivery must not overwrite the terminal state.
	w = postCallback(router, failureCallback("ws_004"))
	require.Equal(t, http.StatusOK, w.Code)

	tx, err := memory.GetByCheckoutRequestID("ws_004")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.Equal(t, 1, memory.updates)
}

func TestConcurrentCallbacksExactlyOneWins(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()
	seedPending(t, memory, "ws_005")

	var wg sync.WaitGroup
	bodies := []string{successCallback("ws_005"), failureCallback("ws_005")}
	for _, body := range bodies {
		wg.Add(1)
		go func(body string) {
			defer wg.Done()
			w := postCallback(router, body)
			assert.Equal(t, http.StatusOK, w.Code)
		}(body)
	}
	wg.Wait()

	tx, err := memory.GetByCheckoutRequestID("ws_005")
	require.NoError(t, err)
	assert.Equal(t, 1, memory.updates, "exactly one delivery may move the row out of pending")

	switch tx.Status {
	case models.TransactionStatusCompleted:
		assert.Equal(t, "NLJ7RT61SV", tx.MpesaReceiptNumber)
	case models.TransactionStatusFailed:
		assert.Empty(t, tx.MpesaReceiptNumber)
	default:
		t.Fatalf("transaction left in non-terminal state %q", tx.Status)
	}
}

func TestCallbackNotifiesOnCompletion(t *testing.T) {
	memory := setupTest(t, &stubGateway{})

	var notified *models.Transaction
	Notifier = func(tx *models.Transaction) { notified = tx }

	router := testRouter()
	seedPending(t, memory, "ws_006")

	w := postCallback(router, successCallback("ws_006"))
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, notified)
	assert.Equal(t, "ws_006", notified.CheckoutRequestID)
	assert.Equal(t, models.TransactionStatusCompleted, notified.Status)
}

func TestInitiateThenCallbackRoundTrip(t *testing.T) {
	gateway := &stubGateway{response: &mpesa.STKPushResponse{
		CheckoutRequestID: "ws_100",
		ResponseCode:      "0",
	}}
	setupTest(t, gateway)
	router := testRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/initiate", initiateBody(t))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = postCallback(router, successCallback("ws_100"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/payments/ws_100", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transaction models.Transaction `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.TransactionStatusCompleted, resp.Transaction.Status)
	assert.Equal(t, "NLJ7RT61SV", resp.Transaction.MpesaReceiptNumber)
}

func TestGetTransactionOwnershipEnforced(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()

	require.NoError(t, memory.InsertPending(&models.Transaction{
		CheckoutRequestID: "ws_other",
		UserID:            99,
		PhoneNumber:       "254712345678",
		Amount:            100,
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payments/ws_other", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	memory := setupTest(t, &stubGateway{})
	router := testRouter()

	for _, id := range []string{"ws_a", "ws_b", "ws_c"} {
		seedPending(t, memory, id)
		time.Sleep(2 * time.Millisecond)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/payments", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Transactions, 3)
	assert.Equal(t, "ws_c", resp.Transactions[0].CheckoutRequestID)
	assert.Equal(t, "ws_a", resp.Transactions[2].CheckoutRequestID)
}
