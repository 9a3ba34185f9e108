package broker

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/opentrade-labs/mobridge/pkg/errors"
)

// Broker API paths.
const (
	pathLogin         = "/rest/login/v3/authdirectapi"
	pathOrderBook     = "/rest/book/v1/getorderbook"
	pathPositions     = "/rest/book/v1/getposition"
	pathHoldings      = "/rest/report/v1/getdpholding"
	pathLTP           = "/rest/report/v1/getltpdata"
	pathMarginSummary = "/rest/report/v1/getreportmarginsummary"
	pathPlaceOrder    = "/rest/trans/v1/placeorder"
	pathModifyOrder   = "/rest/trans/v2/modifyorder"
	pathCancelOrder   = "/rest/trans/v1/cancelorder"
)

// RESTOptions configures a RESTDialer.
type RESTOptions struct {
	BaseURL        string
	SourceID       string
	Browser        string
	BrowserVersion string
	// HTTPClient overrides the default client. Used in tests.
	HTTPClient *http.Client
}

// RESTDialer creates REST clients against the broker's open API.
type RESTDialer struct {
	opts       RESTOptions
	httpClient *http.Client
}

// NewRESTDialer creates a dialer for the broker's REST API.
func NewRESTDialer(opts RESTOptions) *RESTDialer {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 0}
	}

	return &RESTDialer{
		opts:       opts,
		httpClient: httpClient,
	}
}

// Dial returns an unauthenticated client bound to one API key.
func (d *RESTDialer) Dial(apiKey string) Client {
	return &restClient{
		opts:       d.opts,
		httpClient: d.httpClient,
		apiKey:     apiKey,
		authToken:  "",
	}
}

// restClient is the REST realization of the broker capability. One instance
// serves one account; the auth token is set once by Login before the client
// is shared, and only read afterwards.
type restClient struct {
	opts       RESTOptions
	httpClient *http.Client
	apiKey     string
	authToken  string
}

func (c *restClient) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, pathLogin, req, &resp); err != nil {
		return LoginResponse{}, err
	}

	if resp.Success() {
		c.authToken = resp.AuthToken
	}

	return resp, nil
}

func (c *restClient) OrderBook(ctx context.Context, req OrderBookRequest) (OrderBookResponse, error) {
	var resp OrderBookResponse
	if err := c.post(ctx, pathOrderBook, req, &resp); err != nil {
		return OrderBookResponse{}, err
	}

	return resp, nil
}

func (c *restClient) Positions(ctx context.Context, clientCode string) (PositionsResponse, error) {
	var resp PositionsResponse
	if err := c.post(ctx, pathPositions, map[string]string{"clientcode": clientCode}, &resp); err != nil {
		return PositionsResponse{}, err
	}

	return resp, nil
}

// Holdings tries the calling conventions accepted by different broker API
// versions in order: plain client code, a clientcode object, then an empty
// body. The first success wins; the last response is returned otherwise.
func (c *restClient) Holdings(ctx context.Context, clientCode string) (HoldingsResponse, error) {
	bodies := []any{
		clientCode,
		map[string]string{"clientcode": clientCode},
		map[string]string{},
	}

	var (
		resp    HoldingsResponse
		lastErr error
	)

	for _, body := range bodies {
		var attempt HoldingsResponse

		err := c.post(ctx, pathHoldings, body, &attempt)
		if err != nil {
			lastErr = err

			continue
		}

		resp = attempt
		lastErr = nil

		if attempt.Success() {
			break
		}
	}

	if lastErr != nil {
		return HoldingsResponse{}, lastErr
	}

	return resp, nil
}

func (c *restClient) LastTradedPrice(ctx context.Context, req LTPRequest) (LTPResponse, error) {
	var resp LTPResponse
	if err := c.post(ctx, pathLTP, req, &resp); err != nil {
		return LTPResponse{}, err
	}

	return resp, nil
}

func (c *restClient) MarginSummary(ctx context.Context, clientCode string) (MarginResponse, error) {
	var resp MarginResponse
	if err := c.post(ctx, pathMarginSummary, map[string]string{"clientcode": clientCode}, &resp); err != nil {
		return MarginResponse{}, err
	}

	return resp, nil
}

func (c *restClient) PlaceOrder(ctx context.Context, payload OrderPayload) (Result, error) {
	raw, err := c.postRaw(ctx, pathPlaceOrder, payload)
	if err != nil {
		return Result{}, err
	}

	return Normalize(raw, OpPlace), nil
}

func (c *restClient) ModifyOrder(ctx context.Context, payload ModifyPayload) (Result, error) {
	raw, err := c.postRaw(ctx, pathModifyOrder, payload)
	if err != nil {
		return Result{}, err
	}

	return Normalize(raw, OpModify), nil
}

func (c *restClient) CancelOrder(ctx context.Context, orderID, clientCode string) (Result, error) {
	body := map[string]string{
		"clientcode":    clientCode,
		"uniqueorderid": orderID,
	}

	raw, err := c.postRaw(ctx, pathCancelOrder, body)
	if err != nil {
		return Result{}, err
	}

	return Normalize(raw, OpCancel), nil
}

// post issues a request and decodes the reply into a typed response.
func (c *restClient) post(ctx context.Context, path string, body, out any) error {
	data, err := c.do(ctx, path, body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(errors.ErrCodeTransportFailed, "failed to decode broker response", err)
	}

	return nil
}

// postRaw issues a request and decodes the reply into an untyped value for
// normalization. Mutating endpoints respond with unstable shapes.
func (c *restClient) postRaw(ctx context.Context, path string, body any) (any, error) {
	data, err := c.do(ctx, path, body)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransportFailed, "failed to decode broker response", err)
	}

	return raw, nil
}

func (c *restClient) do(ctx context.Context, path string, body any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransportFailed, "failed to encode broker request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransportFailed, "failed to build broker request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("sourceid", c.opts.SourceID)
	req.Header.Set("browsername", c.opts.Browser)
	req.Header.Set("browserversion", c.opts.BrowserVersion)

	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransportFailed, "broker call failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransportFailed, "failed to read broker response", err)
	}

	return data, nil
}

var _ Client = (*restClient)(nil)

var _ Dialer = (*RESTDialer)(nil)
