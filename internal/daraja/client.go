package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
)

// Client issues STK Push requests and status queries against Daraja on
// behalf of a single landlord's merchant credentials, which callers pass
// in per call rather than binding to the Client (a landlord's
// credentials can change between calls).
type Client struct {
	http     *http.Client
	tokens   *tokenCache
	limiter  *outboundLimiter
	baseURL  func(Credentials) string
}

// New builds a Client with the given timeout applied to every outbound
// Daraja request, so a non-responding gateway never hangs the caller
// indefinitely.
func New(timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		http:    httpClient,
		tokens:  newTokenCache(httpClient),
		limiter: newOutboundLimiter(),
		baseURL: Credentials.baseURL,
	}
}

// Credentials is the decrypted, ready-to-use slice of a landlord's
// Daraja configuration a Client call needs. Callers are responsible for
// decrypting DarajaConfig's ciphertext fields via internal/vault before
// constructing one.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	Passkey           string
	BusinessShortCode string
	BusinessType      domain.BusinessType
	Environment       domain.DarajaEnvironment
}

func (c Credentials) baseURL() string {
	if c.Environment == domain.DarajaProduction {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

func (c Credentials) transactionType() string {
	if c.BusinessType == domain.BusinessTill {
		return "CustomerBuyGoodsOnline"
	}
	return "CustomerPayBillOnline"
}

// password derives Daraja's Base64(ShortCode + Passkey + Timestamp)
// STK push password.
func password(shortCode, passkey, timestamp string) string {
	raw := shortCode + passkey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// STKPushParams carries the caller-supplied fields of an STK push beyond
// what Credentials already fixes.
type STKPushParams struct {
	Amount           string
	PhoneNumber      string
	CallbackURL      string
	AccountReference string
	TransactionDesc  string
}

// STKPushResult is the subset of Daraja's synchronous acknowledgement
// the caller needs to create a pending PaymentIntent.
type STKPushResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	CustomerMessage   string
}

// Authenticate requests an OAuth token for creds and discards it,
// reporting only whether the credentials are accepted. This backs the
// credential-test endpoint: testing with a real STK
// push isn't safe since no tenant phone is guaranteed to exist yet, so
// the auth handshake alone stands in for "credentials work".
func (c *Client) Authenticate(ctx context.Context, creds Credentials) error {
	_, err := c.tokens.get(ctx, c.baseURL(creds), creds.ConsumerKey, creds.ConsumerSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDarajaAuthFailed, err)
	}
	return nil
}

// InitiateSTKPush sends an STK push request and returns the correlation
// identifiers Daraja assigns it. A non-"0" ResponseCode, a rate-limit
// rejection, or a transport failure all surface as ErrSTKRejected /
// ErrDarajaTimeout.
func (c *Client) InitiateSTKPush(ctx context.Context, creds Credentials, params STKPushParams) (*STKPushResult, error) {
	if !c.limiter.allow(creds.BusinessShortCode) {
		return nil, fmt.Errorf("%w: outbound rate limit exceeded for short code %s", domain.ErrSTKRejected, creds.BusinessShortCode)
	}

	token, err := c.tokens.get(ctx, c.baseURL(creds), creds.ConsumerKey, creds.ConsumerSecret)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	body := stkPushRequest{
		BusinessShortCode: creds.BusinessShortCode,
		Password:          password(creds.BusinessShortCode, creds.Passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   creds.transactionType(),
		Amount:            params.Amount,
		PartyA:            params.PhoneNumber,
		PartyB:            creds.BusinessShortCode,
		PhoneNumber:       params.PhoneNumber,
		CallBackURL:       params.CallbackURL,
		AccountReference:  params.AccountReference,
		TransactionDesc:   params.TransactionDesc,
	}

	var resp stkPushResponse
	if err := c.post(ctx, c.baseURL(creds)+"/mpesa/stkpush/v1/processrequest", token, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDarajaTimeout, err)
	}

	if resp.ResponseCode != "0" {
		desc := resp.ResponseDescription
		if desc == "" {
			desc = resp.ErrorMessage
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrSTKRejected, desc)
	}

	return &STKPushResult{
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

// QueryResult is the outcome of an STK status query, in the same
// ResultCode/ResultDesc shape a callback carries so both paths can feed
// the same terminal-transition logic.
type QueryResult struct {
	ResultCode int
	ResultDesc string
}

// QueryStatus asks Daraja for the current status of a checkout request.
// It is used to reclaim intents whose callback never arrived before
// IntentTTL elapsed.
func (c *Client) QueryStatus(ctx context.Context, creds Credentials, checkoutRequestID string) (*QueryResult, error) {
	token, err := c.tokens.get(ctx, c.baseURL(creds), creds.ConsumerKey, creds.ConsumerSecret)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format("20060102150405")
	body := stkQueryRequest{
		BusinessShortCode: creds.BusinessShortCode,
		Password:          password(creds.BusinessShortCode, creds.Passkey, timestamp),
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}

	var resp stkQueryResponse
	if err := c.post(ctx, c.baseURL(creds)+"/mpesa/stkpushquery/v1/query", token, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDarajaTimeout, err)
	}

	resultCode := 0
	if resp.ResultCode != "" {
		if _, err := fmt.Sscanf(resp.ResultCode, "%d", &resultCode); err != nil {
			return nil, fmt.Errorf("daraja: parsing result code %q: %w", resp.ResultCode, err)
		}
	}

	return &QueryResult{ResultCode: resultCode, ResultDesc: resp.ResultDesc}, nil
}

func (c *Client) post(ctx context.Context, url, bearerToken string, payload, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response %s: %w", body, err)
	}
	return nil
}

// Stop releases the Client's background cleanup goroutine.
func (c *Client) Stop() {
	c.limiter.stop()
}
