package mpesa

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The gateway controls the callback shape, so every field is optional and
// untrusted until extracted.
type callbackEnvelope struct {
	Body struct {
		STKCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *callbackMetadata `json:"CallbackMetadata"`
}

type callbackMetadata struct {
	Item []metadataItem `json:"Item"`
}

type metadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// CallbackResult is the validated outcome extracted from a webhook body.
// Metadata fields are set only when the gateway supplied them.
type CallbackResult struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	ReceiptNumber     string
	TransactionDate   string
	PhoneNumber       string
	Amount            int64
}

// Success reports whether the gateway result code is the success sentinel.
func (r *CallbackResult) Success() bool {
	return r.ResultCode == 0
}

// ParseCallback validates the Body.stkCallback envelope and extracts the
// correlation identifier, result code/description and, on success, the
// name-matched metadata items. A missing envelope or correlation id fails
// closed with ErrMalformedCallback.
func ParseCallback(body []byte) (*CallbackResult, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	callback := envelope.Body.STKCallback
	if callback == nil {
		return nil, fmt.Errorf("%w: missing Body.stkCallback", ErrMalformedCallback)
	}
	if callback.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", ErrMalformedCallback)
	}

	result := &CallbackResult{
		CheckoutRequestID: callback.CheckoutRequestID,
		ResultCode:        callback.ResultCode,
		ResultDesc:        callback.ResultDesc,
	}

	// Metadata only accompanies successful payments. Unknown item names are
	// ignored; missing items leave the corresponding fields unset.
	if result.Success() && callback.CallbackMetadata != nil {
		for _, item := range callback.CallbackMetadata.Item {
			switch item.Name {
			case "MpesaReceiptNumber":
				result.ReceiptNumber = stringValue(item.Value)
			case "TransactionDate":
				result.TransactionDate = stringValue(item.Value)
			case "PhoneNumber":
				result.PhoneNumber = stringValue(item.Value)
			case "Amount":
				result.Amount = int64Value(item.Value)
			}
		}
	}

	return result, nil
}

// stringValue renders a metadata value as a string. The gateway sends
// receipt numbers as strings but dates and phone numbers as JSON numbers.
func stringValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatInt(int64(value), 10)
	default:
		return ""
	}
}

func int64Value(v interface{}) int64 {
	switch value := v.(type) {
	case float64:
		return int64(value)
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
