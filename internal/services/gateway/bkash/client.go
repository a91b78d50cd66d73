package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"tourvista/internal/status"

	"github.com/shopspring/decimal"
)

// tokenExpiryMargin keeps a safety buffer before the advertised grant
// token expiry so an in-flight call never rides an expiring token.
const tokenExpiryMargin = 60 * time.Second

type Config struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	AppKey    string `json:"appKey" mapstructure:"app_key"`
	AppSecret string `json:"appSecret" mapstructure:"app_secret"`
	Username  string `json:"username" mapstructure:"username"`
	Password  string `json:"password" mapstructure:"password"`
}

// Client talks to the bKash tokenized checkout (URL) API. The grant token
// is cached until near-expiry and refreshed on demand under the mutex, so
// concurrent callers never stampede the grant endpoint.
type Client struct {
	baseURL   string
	appKey    string
	appSecret string
	username  string
	password  string

	// mu guards the cached grant token.
	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time

	hc *http.Client
}

func NewClient(c *Config) *Client {
	return &Client{
		baseURL:   c.BaseURL,
		appKey:    c.AppKey,
		appSecret: c.AppSecret,
		username:  c.Username,
		password:  c.Password,

		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// grantToken returns a valid grant token, reusing the cached one while it
// is still comfortably inside its lifetime.
func (c *Client) grantToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiresAt.Add(-tokenExpiryMargin)) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_key":    c.appKey,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("grantToken: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/tokenized/checkout/token/grant"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("grantToken: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("username", c.username)
	req.Header.Set("password", c.password)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("grantToken: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rbody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("grantToken: resp.StatusCode: %d, resp.Body: %s", resp.StatusCode, rbody)
	}

	var reply struct {
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
		IDToken       string `json:"id_token"`
		ExpiresIn     int64  `json:"expires_in"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("grantToken: json.Decode: %w", err)
	}
	if reply.IDToken == "" {
		return "", fmt.Errorf("grantToken: reply.StatusCode: %v, reply.StatusMessage: %v", reply.StatusCode, reply.StatusMessage)
	}

	expiresIn := reply.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	c.token = reply.IDToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)

	return c.token, nil
}

type CreateReply struct {
	PaymentID             string `json:"paymentID"`
	BkashURL              string `json:"bkashURL"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

// CreatePayment opens a checkout and returns the payment id plus the
// hosted URL to redirect the payer to.
func (c *Client) CreatePayment(ctx context.Context, amount decimal.Decimal, invoiceNumber, callbackURL, payerReference string) (*CreateReply, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("createPayment: %w", err)
	}

	if payerReference == "" {
		payerReference = " "
	}
	body, err := json.Marshal(map[string]string{
		"mode":                  "0011",
		"payerReference":        payerReference,
		"callbackURL":           callbackURL,
		"amount":                amount.StringFixed(2),
		"currency":              "BDT",
		"intent":                "sale",
		"merchantInvoiceNumber": invoiceNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("createPayment: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/tokenized/checkout/create"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("createPayment: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", c.appKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createPayment: http.Do: %w", err)
	}
	defer resp.Body.Close()

	// A 401 means the cached token went stale early; drop it so the next
	// call re-grants.
	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
		return nil, fmt.Errorf("createPayment: resp.StatusCode: 401 => Unauthorized")
	}

	var reply struct {
		CreateReply
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("createPayment: json.Decode: %w", err)
	}
	if reply.StatusCode != "0000" {
		return nil, fmt.Errorf("createPayment: reply.StatusCode: %v, reply.StatusMessage: %v", reply.StatusCode, reply.StatusMessage)
	}

	return &reply.CreateReply, nil
}

type ExecuteReply struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	CustomerMsisdn        string `json:"customerMsisdn"`
	PaymentExecuteTime    string `json:"paymentExecuteTime"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

// ExecutePayment finalizes a checkout after the customer completed it on
// the bKash page. A gateway-reported non-completed outcome returns
// status.ErrFailedPayment; transport errors return plain errors.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*ExecuteReply, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("executePayment: %w", err)
	}

	body, err := json.Marshal(map[string]string{"paymentID": paymentID})
	if err != nil {
		return nil, fmt.Errorf("executePayment: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/tokenized/checkout/execute"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("executePayment: http.NewReq: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", c.appKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executePayment: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
		return nil, fmt.Errorf("executePayment: resp.StatusCode: 401 => Unauthorized")
	}

	var reply struct {
		ExecuteReply
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("executePayment: json.Decode: %w", err)
	}
	if reply.StatusCode != "0000" || reply.TransactionStatus != "Completed" {
		return &reply.ExecuteReply, status.ErrFailedPayment
	}

	return &reply.ExecuteReply, nil
}

type QueryReply struct {
	PaymentID         string `json:"paymentID"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	CustomerMsisdn    string `json:"customerMsisdn"`
}

// QueryPayment fetches the current checkout status without executing it.
// A checkout that an earlier callback delivery already finalized answers
// "Completed" here while a repeated execute would decline.
func (c *Client) QueryPayment(ctx context.Context, paymentID string) (*QueryReply, error) {
	token, err := c.grantToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryPayment: %w", err)
	}

	body, err := json.Marshal(map[string]string{"paymentID": paymentID})
	if err != nil {
		return nil, fmt.Errorf("queryPayment: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/tokenized/checkout/payment/status"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("queryPayment: http.NewReq: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-App-Key", c.appKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("queryPayment: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
		return nil, fmt.Errorf("queryPayment: resp.StatusCode: 401 => Unauthorized")
	}

	var reply struct {
		QueryReply
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("queryPayment: json.Decode: %w", err)
	}
	if reply.StatusCode != "0000" {
		return nil, fmt.Errorf("queryPayment: reply.StatusCode: %v, reply.StatusMessage: %v", reply.StatusCode, reply.StatusMessage)
	}

	return &reply.QueryReply, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiresAt = time.Time{}
}
