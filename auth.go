package kuro

import (
	"context"
	"errors"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

// Fixed identifiers of the overseas game SDK build. client_secret doubles as
// the signing app key for the (wuwa, os) pair.
const (
	gameClientID   = "7rxmydkibzzsf12om5asjnoo"
	gameSecret     = "32gh5r0p35ullmxrzzwk40ly"
	gameProductID  = "A1725"
	gameProductKey = "01433708256c41838cda8ead20b64042"
	gameProjectID  = "G153"
	gameSDKVersion = "1.8.3h"
)

// =============================================================================
// Phone/SMS flow (KuroBBS web API)
// =============================================================================

// Login performs the full phone login flow: request a one-time SMS code,
// solving a geetest challenge in the browser if the provider demands one,
// then collect the code through the local code-entry page and exchange it
// for a session.
//
// Both suspension points (challenge solve, code entry) wait on a human;
// cancel ctx to impose a deadline. Callers that collect the code through
// another channel can use SendSMSCode and WebLogin directly.
func (c *Client) Login(ctx context.Context, number string) (*LoginResult, error) {
	sent, err := c.SendSMSCode(ctx, number, nil)
	if err != nil {
		return nil, err
	}

	if !sent {
		mmt, err := SolveGeetest(ctx, CaptchaIDKurobbs, c.lang, c.geetestPort)
		if err != nil {
			return nil, err
		}
		sent, err = c.SendSMSCode(ctx, number, mmt)
		if err != nil {
			return nil, err
		}
		if !sent {
			// The flow retries the challenge exactly once.
			return nil, &APIError{Code: retWebChallenge, Message: "captcha triggered again after solving"}
		}
	}

	code, err := EnterCode(ctx, c.geetestPort)
	if err != nil {
		return nil, err
	}

	return c.WebLogin(ctx, number, code)
}

// SendSMSCode requests a one-time code for number. The returned bool is true
// when the code was sent; false means the provider triggered a geetest
// challenge instead, whose solution must accompany the retry.
func (c *Client) SendSMSCode(ctx context.Context, number string, mmt *MMTResult) (bool, error) {
	geeTestData := ""
	if mmt != nil {
		geeTestData = mmt.webString()
	}

	body, err := c.transport.Request(ctx, &APIRequest{
		Method: http.MethodPost,
		URL:    getSMSCodeURL,
		Form: map[string]any{
			"mobile":      stripCountryCode(number),
			"geeTestData": geeTestData,
		},
		Cookies: c.cookies,
	})
	if err != nil {
		return false, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return false, err
	}
	if err := env.err(); err != nil {
		return false, err
	}

	var data struct {
		GeeTest bool `json:"geeTest"`
	}
	if err := decodeInto(env.Data, &data, "sms code response"); err != nil {
		return false, err
	}

	return !data.GeeTest, nil
}

// WebLogin exchanges a phone number and one-time code for a session.
func (c *Client) WebLogin(ctx context.Context, number, code string) (*LoginResult, error) {
	body, err := c.transport.Request(ctx, &APIRequest{
		Method: http.MethodPost,
		URL:    webLoginURL,
		Form: map[string]any{
			"mobile": stripCountryCode(number),
			"code":   code,
		},
		Cookies: c.cookies,
	})
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	var result LoginResult
	if err := decodeInto(env.Data, &result, "login result"); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, &MalformedResponseError{Reason: "login result carries no token"}
	}
	return &result, nil
}

// stripCountryCode drops a leading +86 prefix; the web API wants the bare
// number.
func stripCountryCode(number string) string {
	return strings.TrimPrefix(number, "+86")
}

// =============================================================================
// Credential flow (game SDK)
// =============================================================================

// GameLogin logs into a game account with email and password. When the
// provider answers with its challenge sentinel, the geetest challenge is
// solved interactively and the request resubmitted once with the solution
// joining the signed parameter set; a second challenge is a hard failure.
//
// Follow-up calls (GetGameToken, CheckGameToken, GameAutoLogin,
// GenerateOAuthCode) must go through the same Client so they share its
// device identity, or the provider rejects them.
func (c *Client) GameLogin(ctx context.Context, email, password string) (*GameLoginResult, error) {
	if err := c.requireRegion("GameLogin", RegionOverseas); err != nil {
		return nil, err
	}

	params := map[string]any{
		"__e__":         1,
		"email":         email,
		"client_id":     gameClientID,
		"deviceNum":     c.DeviceID(),
		"os":            "iOS",
		"password":      EncodePassword(password),
		"platform":      "iOS",
		"productId":     gameProductID,
		"productKey":    gameProductKey,
		"projectId":     gameProjectID,
		"redirect_uri":  1,
		"response_type": "code",
		"sdkVersion":    gameSDKVersion,
	}

	result, err := c.doGameLogin(ctx, params)
	if err == nil {
		return result, nil
	}
	if !IsChallengeRequired(err) {
		return nil, err
	}

	mmt, gerr := SolveGeetest(ctx, CaptchaIDGame, c.lang, c.geetestPort)
	if gerr != nil {
		return nil, gerr
	}

	// Identical parameters plus the solution fields; the signature is
	// recomputed over the extended set.
	for k, v := range mmt.gameParams() {
		params[k] = v
	}

	result, err = c.doGameLogin(ctx, params)
	if err != nil {
		var ce *ChallengeRequiredError
		if errors.As(err, &ce) {
			return nil, &APIError{Code: ce.Code, Message: "captcha triggered again after solving"}
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) doGameLogin(ctx context.Context, params map[string]any) (*GameLoginResult, error) {
	body, env, err := c.postSigned(ctx, gameLoginURL, params)
	if err != nil {
		return nil, err
	}
	if err := env.gameErr(); err != nil {
		return nil, err
	}

	var result GameLoginResult
	if err := decodeInto(body, &result, "game login result"); err != nil {
		return nil, err
	}
	if result.Code == "" && result.AutoToken == "" {
		return nil, &MalformedResponseError{Reason: "game login result carries no credentials"}
	}
	return &result, nil
}

// GetGameToken exchanges the authorization code from GameLogin for an access
// token.
func (c *Client) GetGameToken(ctx context.Context, code string) (*GameTokenResult, error) {
	if err := c.requireRegion("GetGameToken", RegionOverseas); err != nil {
		return nil, err
	}

	body, env, err := c.postSigned(ctx, gameTokenURL, map[string]any{
		"client_id":     gameClientID,
		"deviceNum":     c.DeviceID(),
		"client_secret": gameSecret,
		"code":          code,
		"productId":     gameProductID,
		"projectId":     gameProjectID,
		"redirect_uri":  1,
		"grant_type":    "authorization_code",
	})
	if err != nil {
		return nil, err
	}
	if err := env.gameErr(); err != nil {
		return nil, err
	}

	var result GameTokenResult
	if err := decodeInto(body, &result, "game token result"); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, &MalformedResponseError{Reason: "token result carries no access token"}
	}
	return &result, nil
}

// CheckGameToken returns the remaining lifetime of an access token in
// seconds.
func (c *Client) CheckGameToken(ctx context.Context, accessToken string) (int, error) {
	if err := c.requireRegion("CheckGameToken", RegionOverseas); err != nil {
		return 0, err
	}

	body, env, err := c.postSigned(ctx, gameTokenCheck, map[string]any{
		"deviceNum":    c.DeviceID(),
		"access_token": accessToken,
		"productId":    gameProductID,
		"projectId":    gameProjectID,
	})
	if err != nil {
		return 0, err
	}
	if err := env.gameErr(); err != nil {
		return 0, err
	}

	var result struct {
		ExpireSec int `json:"expireSec"`
	}
	if err := decodeInto(body, &result, "token check result"); err != nil {
		return 0, err
	}
	return result.ExpireSec, nil
}

// GameAutoLogin re-authenticates with the long-lived auto-login token from a
// previous GameLogin. The device identity must match the one the token was
// issued under.
func (c *Client) GameAutoLogin(ctx context.Context, autoToken string) (*GameLoginResult, error) {
	if err := c.requireRegion("GameAutoLogin", RegionOverseas); err != nil {
		return nil, err
	}

	body, env, err := c.postSigned(ctx, gameAutoLogin, map[string]any{
		"token":         autoToken,
		"client_id":     gameClientID,
		"deviceNum":     c.DeviceID(),
		"productId":     gameProductID,
		"projectId":     gameProjectID,
		"redirect_uri":  1,
		"response_type": "code",
	})
	if err != nil {
		return nil, err
	}
	if err := env.gameErr(); err != nil {
		return nil, err
	}

	var result GameLoginResult
	if err := decodeInto(body, &result, "auto login result"); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateOAuthCode produces a fresh OAuth code from an access token, for
// handing the session to another service.
func (c *Client) GenerateOAuthCode(ctx context.Context, accessToken string) (string, error) {
	if err := c.requireRegion("GenerateOAuthCode", RegionOverseas); err != nil {
		return "", err
	}

	body, env, err := c.postSigned(ctx, gameOAuthCodeURL, map[string]any{
		"access_token":  accessToken,
		"client_id":     gameClientID,
		"deviceNum":     c.DeviceID(),
		"productId":     gameProductID,
		"projectId":     gameProjectID,
		"response_type": "code",
	})
	if err != nil {
		return "", err
	}
	if err := env.gameErr(); err != nil {
		return "", err
	}

	var result struct {
		Code string `json:"code"`
	}
	if err := decodeInto(body, &result, "oauth code result"); err != nil {
		return "", err
	}
	if result.Code == "" {
		return "", &MalformedResponseError{Reason: "oauth result carries no code"}
	}
	return result.Code, nil
}

// postSigned signs params with the client's app key and posts them as a
// form. The signature is computed over the final parameter set, so callers
// must add retry-specific fields before calling.
func (c *Client) postSigned(ctx context.Context, url string, params map[string]any) ([]byte, *envelope, error) {
	signed := make(map[string]any, len(params)+1)
	for k, v := range params {
		signed[k] = v
	}
	signed["sign"] = Sign(signed, c.appKey())

	body, err := c.transport.Request(ctx, &APIRequest{
		Method: http.MethodPost,
		URL:    url,
		Form:   signed,
	})
	if err != nil {
		return nil, nil, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, nil, err
	}
	return body, env, nil
}
