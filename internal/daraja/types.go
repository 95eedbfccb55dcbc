// Package daraja wraps Safaricom's Daraja API: OAuth token acquisition
//, STK Push initiation and status query, and the wire shapes
// for both the synchronous responses and the asynchronous callback
// bodies Daraja posts back to this service.
package daraja

// authTokenResponse is Daraja's OAuth/v1/generate response body.
type authTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// stkPushRequest is the mpesa/stkpush/v1/processrequest request body.
type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// stkPushResponse is Daraja's synchronous acknowledgement of an STK push
// request. ResponseCode "0" means the push was accepted for processing;
// it says nothing about whether the customer will complete it.
type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

// stkQueryRequest is the mpesa/stkpushquery/v1/query request body.
type stkQueryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// stkQueryResponse is Daraja's reply to an STK status query. ResultCode
// is a string here (unlike the callback body, where it is numeric).
type stkQueryResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

// CallbackItem is one Name/Value pair inside a successful callback's
// CallbackMetadata.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// STKCallback is the inner payload Daraja posts to the configured
// callback URL, whether the push succeeded or failed.
type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// STKCallbackBody is the full envelope Daraja wraps STKCallback in.
type STKCallbackBody struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// Amount extracts the CallbackMetadata "Amount" item, if present.
func (c STKCallback) Amount() (float64, bool) {
	return c.numericItem("Amount")
}

// MpesaReceiptNumber extracts the CallbackMetadata "MpesaReceiptNumber"
// item, if present.
func (c STKCallback) MpesaReceiptNumber() (string, bool) {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != "MpesaReceiptNumber" {
			continue
		}
		s, ok := item.Value.(string)
		return s, ok
	}
	return "", false
}

// PhoneNumber extracts the CallbackMetadata "PhoneNumber" item, if
// present.
func (c STKCallback) PhoneNumber() (float64, bool) {
	return c.numericItem("PhoneNumber")
}

func (c STKCallback) numericItem(name string) (float64, bool) {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name != name {
			continue
		}
		f, ok := item.Value.(float64)
		return f, ok
	}
	return 0, false
}
