package kuro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"
)

const sdkUserAgent = "okhttp/3.12.12"

// APIRequest describes one outbound call to a Kuro endpoint. Exactly one of
// Form and JSON may be set; Form is sent urlencoded the way the SDK posts
// signed parameter sets.
type APIRequest struct {
	Method  string
	URL     string
	Query   url.Values
	Form    map[string]any
	JSON    any
	Headers map[string]string
	Cookies map[string]string
}

// Transport sends API requests and returns raw response bodies. The default
// implementation is backed by tls-client; tests substitute a recording stub.
type Transport interface {
	Request(ctx context.Context, req *APIRequest) ([]byte, error)
}

// httpTransport is the production Transport.
type httpTransport struct {
	client tls_client.HttpClient
	logger zerolog.Logger
}

// newHTTPClient builds the underlying tls-client. The Okhttp Android profile
// matches what the game SDK itself ships.
func newHTTPClient(proxyURL string, timeoutSeconds int) (tls_client.HttpClient, error) {
	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Okhttp4Android13),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(jar),
	}

	if proxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(proxyURL))
	}

	return tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
}

func (t *httpTransport) Request(ctx context.Context, apiReq *APIRequest) ([]byte, error) {
	method := apiReq.Method
	if method == "" {
		if apiReq.Form != nil || apiReq.JSON != nil {
			method = http.MethodPost
		} else {
			method = http.MethodGet
		}
	}

	targetURL := apiReq.URL
	if len(apiReq.Query) > 0 {
		targetURL += "?" + apiReq.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case apiReq.Form != nil:
		form := url.Values{}
		for k, v := range apiReq.Form {
			if v == nil {
				continue
			}
			form.Set(k, paramString(v))
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case apiReq.JSON != nil:
		encoded, err := json.Marshal(apiReq.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", sdkUserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range apiReq.Headers {
		req.Header.Set(k, v)
	}
	for name, value := range apiReq.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug().Str("method", method).Str("url", apiReq.URL).Err(err).Msg("request failed")
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("method", method).
		Str("url", apiReq.URL).
		Int("status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Msg("request")

	if resp.StatusCode >= 400 {
		preview := string(respBody)
		if len(preview) > 500 {
			preview = preview[:500]
		}
		return nil, fmt.Errorf("kuro: http %d from %s: %s", resp.StatusCode, apiReq.URL, preview)
	}

	return respBody, nil
}

// readResponseBody decompresses and reads the full response body.
// Caller should defer resp.Body.Close() before calling this.
func readResponseBody(resp *http.Response) ([]byte, error) {
	body := http.DecompressBody(resp)
	defer body.Close()
	return io.ReadAll(body)
}

// =============================================================================
// Response envelope
// =============================================================================

const (
	retSuccess = 0

	// Sentinel codes the provider uses to demand an interactive challenge
	// before the request may be retried.
	retWebChallenge  = 63
	retGameChallenge = -660

	// The record service answers with this while results are still being
	// generated; the call is worth retrying after a short delay.
	retProcessing = 1511
)

func isChallengeCode(code int) bool {
	return code == retWebChallenge || code == retGameChallenge
}

// envelope is the generic response wrapper. The web API uses "code" plus a
// "success" flag, the game SDK uses "codes" where null also means success.
type envelope struct {
	Code    *int            `json:"code"`
	Codes   *int            `json:"codes"`
	Success *bool           `json:"success"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// resultCode returns the provider code of the response. ok is false when the
// response carries neither variant.
func (e *envelope) resultCode() (code int, ok bool) {
	switch {
	case e.Code != nil:
		return *e.Code, true
	case e.Codes != nil:
		return *e.Codes, true
	case e.Success != nil:
		// Older web endpoints carry only the success flag.
		if *e.Success {
			return retSuccess, true
		}
		return -1, true
	default:
		return 0, false
	}
}

// err translates the envelope into the typed error taxonomy, or nil on
// success.
func (e *envelope) err() error {
	code, ok := e.resultCode()
	if !ok {
		return &MalformedResponseError{Reason: "response carries no result code"}
	}
	if code == retSuccess {
		return nil
	}
	if isChallengeCode(code) {
		return &ChallengeRequiredError{Code: code}
	}
	return &APIError{Code: code, Message: e.Msg}
}

// gameErr is err for game SDK responses, where "codes" set to null also
// means success. Callers validate required fields of the typed result to
// catch bodies that are missing both.
func (e *envelope) gameErr() error {
	if e.Codes == nil {
		return nil
	}
	code := *e.Codes
	if code == retSuccess {
		return nil
	}
	if isChallengeCode(code) {
		return &ChallengeRequiredError{Code: code}
	}
	return &APIError{Code: code, Message: e.Msg}
}

func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &MalformedResponseError{Reason: "decoding envelope", Err: err}
	}
	return &env, nil
}

// decodeInto unmarshals raw into out, translating failures into the typed
// malformed-response error.
func decodeInto(raw []byte, out any, what string) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Reason: "decoding " + what, Err: err}
	}
	return nil
}
