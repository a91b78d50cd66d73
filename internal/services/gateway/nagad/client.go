package nagad

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tourvista/internal/status"

	"github.com/shopspring/decimal"
)

const (
	apiVersion  = "v-0.2.0"
	clientType  = "PC_WEB"
	currencyBDT = "050"
)

type Config struct {
	BaseURL            string `json:"baseUrl" mapstructure:"base_url"`
	MerchantID         string `json:"merchantId" mapstructure:"merchant_id"`
	MerchantNumber     string `json:"merchantNumber" mapstructure:"merchant_number"`
	PGPublicKey        string `json:"pgPublicKey" mapstructure:"pg_public_key"`
	MerchantPrivateKey string `json:"merchantPrivateKey" mapstructure:"merchant_private_key"`
}

// Client talks to the Nagad merchant checkout API: an initialize call that
// returns an encrypted challenge, a complete call that answers it, and a
// verify call keyed by the gateway's payment reference id.
type Client struct {
	baseURL        string
	merchantID     string
	merchantNumber string

	pgPublicKey *rsa.PublicKey
	merchantKey *rsa.PrivateKey

	hc *http.Client
}

func NewClient(c *Config) (*Client, error) {
	pub, err := parsePublicKey(c.PGPublicKey)
	if err != nil {
		return nil, fmt.Errorf("nagad.NewClient: %w", err)
	}
	priv, err := parsePrivateKey(c.MerchantPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("nagad.NewClient: %w", err)
	}

	return &Client{
		baseURL:        c.BaseURL,
		merchantID:     c.MerchantID,
		merchantNumber: c.MerchantNumber,
		pgPublicKey:    pub,
		merchantKey:    priv,

		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-KM-Api-Version", apiVersion)
	req.Header.Set("X-KM-IP-V4", "127.0.0.1")
	req.Header.Set("X-KM-Client-Type", clientType)
	return req
}

type InitReply struct {
	PaymentReferenceID string `json:"paymentReferenceId"`
	Challenge          string `json:"challenge"`
	AcceptDateTime     string `json:"acceptDateTime"`
}

// InitializePayment performs the first leg of the handshake. The reply's
// sensitiveData is encrypted with the merchant public key; it is decrypted
// here so callers get the payment reference id and challenge in the clear.
func (c *Client) InitializePayment(ctx context.Context, orderID string) (*InitReply, error) {
	dateTime := time.Now().UTC().Format("20060102150405")

	sensitive := map[string]string{
		"merchantId": c.merchantID,
		"datetime":   dateTime,
		"orderId":    orderID,
		"challenge":  randomChallenge(),
	}

	encrypted, err := c.encryptSensitive(sensitive)
	if err != nil {
		return nil, fmt.Errorf("initializePayment: %w", err)
	}
	signature, err := c.sign(sensitive)
	if err != nil {
		return nil, fmt.Errorf("initializePayment: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"accountNumber": c.merchantNumber,
		"dateTime":      dateTime,
		"sensitiveData": encrypted,
		"signature":     signature,
	})
	if err != nil {
		return nil, fmt.Errorf("initializePayment: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/check-out/initialize/%s/%s", _baseURL.String(), c.merchantID, orderID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("initializePayment: http.NewReq: %w", err)
	}
	req = c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("initializePayment: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("initializePayment: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply struct {
		SensitiveData string `json:"sensitiveData"`
		Signature     string `json:"signature"`
		Reason        string `json:"reason"`
		Message       string `json:"message"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("initializePayment: json.Decode: %w", err)
	}
	if reply.SensitiveData == "" {
		return nil, fmt.Errorf("initializePayment: reply.Reason: %v, reply.Message: %v", reply.Reason, reply.Message)
	}

	var init InitReply
	if err := c.decryptSensitive(reply.SensitiveData, &init); err != nil {
		return nil, fmt.Errorf("initializePayment: %w", err)
	}
	if init.PaymentReferenceID == "" || init.Challenge == "" {
		return nil, fmt.Errorf("initializePayment: incomplete challenge payload")
	}

	return &init, nil
}

type CompleteForm struct {
	OrderID            string
	Amount             decimal.Decimal
	PaymentReferenceID string
	Challenge          string
	CallbackURL        string
}

// CompletePayment answers the challenge from InitializePayment and returns
// the hosted checkout URL for the payer.
func (c *Client) CompletePayment(ctx context.Context, f *CompleteForm) (string, error) {
	sensitive := map[string]string{
		"merchantId":   c.merchantID,
		"orderId":      f.OrderID,
		"amount":       f.Amount.StringFixed(2),
		"currencyCode": currencyBDT,
		"challenge":    f.Challenge,
	}

	encrypted, err := c.encryptSensitive(sensitive)
	if err != nil {
		return "", fmt.Errorf("completePayment: %w", err)
	}
	signature, err := c.sign(sensitive)
	if err != nil {
		return "", fmt.Errorf("completePayment: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"sensitiveData":       encrypted,
		"signature":           signature,
		"merchantCallbackURL": f.CallbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("completePayment: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/check-out/complete/%s", _baseURL.String(), f.PaymentReferenceID), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("completePayment: http.NewReq: %w", err)
	}
	req = c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("completePayment: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completePayment: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply struct {
		Status      string `json:"status"`
		Message     string `json:"message"`
		CallBackURL string `json:"callBackUrl"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("completePayment: json.Decode: %w", err)
	}
	if reply.CallBackURL == "" {
		return "", fmt.Errorf("completePayment: reply.Status: %v, reply.Message: %v", reply.Status, reply.Message)
	}

	return reply.CallBackURL, nil
}

type VerifyReply struct {
	Status           string `json:"status"`
	StatusCode       string `json:"statusCode"`
	IssuerPaymentRef string `json:"issuerPaymentRefNo"`
	ClientMobileNo   string `json:"clientMobileNo"`
	Amount           string `json:"amount"`
	OrderID          string `json:"orderId"`
	PaymentRefID     string `json:"paymentRefId"`
	Message          string `json:"message"`
}

// VerifyPayment checks a payment by the reference id delivered in the
// callback. A gateway answer that is not "Success" maps to
// status.ErrFailedPayment so callers can distinguish it from outages.
func (c *Client) VerifyPayment(ctx context.Context, paymentRefID string) (*VerifyReply, error) {
	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/verify/payment/%s", _baseURL.String(), paymentRefID), nil)
	if err != nil {
		return nil, fmt.Errorf("verifyPayment: http.NewReq: %w", err)
	}
	req = c.setHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifyPayment: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("verifyPayment: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply VerifyReply
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("verifyPayment: json.Decode: %w", err)
	}
	if reply.Status != "Success" {
		return &reply, status.ErrFailedPayment
	}

	return &reply, nil
}

func randomChallenge() string {
	b := make([]byte, 20)
	if _, err := crand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
