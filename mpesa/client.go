package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://sandbox.safaricom.co.ke"

	// timestampLayout is the second-granularity format the gateway expects
	// in both the Timestamp field and the password digest.
	timestampLayout = "20060102150405"

	// tokenExpiryMargin keeps us from reusing a token that is about to expire
	// mid-request.
	tokenExpiryMargin = 30 * time.Second
)

// Config holds the Daraja credentials and endpoints, normally sourced from
// the environment.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	BaseURL        string
}

// ConfigFromEnv reads the gateway configuration from the environment.
// Missing required values produce a *ConfigError naming each one.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		ShortCode:      os.Getenv("MPESA_SHORTCODE"),
		Passkey:        os.Getenv("MPESA_PASSKEY"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		BaseURL:        os.Getenv("MPESA_BASE_URL"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	var missing []string
	if cfg.ConsumerKey == "" {
		missing = append(missing, "MPESA_CONSUMER_KEY")
	}
	if cfg.ConsumerSecret == "" {
		missing = append(missing, "MPESA_CONSUMER_SECRET")
	}
	if cfg.ShortCode == "" {
		missing = append(missing, "MPESA_SHORTCODE")
	}
	if cfg.Passkey == "" {
		missing = append(missing, "MPESA_PASSKEY")
	}
	if cfg.CallbackURL == "" {
		missing = append(missing, "MPESA_CALLBACK_URL")
	}
	if len(missing) > 0 {
		return Config{}, &ConfigError{Missing: missing}
	}

	return cfg, nil
}

// Client talks to the Daraja OAuth and STK push endpoints. The bearer token
// is cached across calls until shortly before its expiry.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// STKPushRequest is the caller-facing initiation request. PhoneNumber must
// already be in wire form (254XXXXXXXXX) and Amount in whole shillings.
type STKPushRequest struct {
	PhoneNumber      string
	Amount           int64
	AccountReference string
	Description      string
}

// STKPushResponse is the gateway's synchronous acknowledgment of a push.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// stkPushPayload is the wire body of the push request.
type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// Password builds the push password: base64 of shortcode, passkey and the
// timestamp concatenated in that order.
func Password(shortCode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format(timestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
	return password, timestamp
}

// accessToken returns a cached bearer token, fetching a fresh one from the
// OAuth endpoint when the cache is empty or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &GatewayError{
			Code:        strconv.Itoa(resp.StatusCode),
			Description: "token endpoint returned status " + resp.Status,
		}
	}

	var tokenResp accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", &GatewayError{Code: "0", Description: "token endpoint returned no access token"}
	}

	expiresIn, err := strconv.Atoi(tokenResp.ExpiresIn)
	if err != nil || expiresIn <= 0 {
		expiresIn = 3600
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(expiresIn) * time.Second)

	return c.token, nil
}

// STKPush submits a CustomerPayBillOnline push to the payer's device and
// returns the gateway acknowledgment. A non-zero ResponseCode surfaces as a
// *GatewayError; network failures as a *TransientError.
func (c *Client) STKPush(ctx context.Context, pushReq STKPushRequest) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.ShortCode, c.cfg.Passkey, time.Now())

	payload := stkPushPayload{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            pushReq.Amount,
		PartyA:            pushReq.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       pushReq.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  pushReq.AccountReference,
		TransactionDesc:   pushReq.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	var pushResp STKPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
		return nil, fmt.Errorf("decoding STK push response: %w", err)
	}

	if pushResp.ResponseCode != "0" {
		description := pushResp.ResponseDescription
		if description == "" {
			description = "push request returned status " + resp.Status
		}
		return nil, &GatewayError{Code: pushResp.ResponseCode, Description: description}
	}

	return &pushResp, nil
}
