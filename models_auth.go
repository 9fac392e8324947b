package kuro

import "encoding/json"

// MMTResult is the opaque record the geetest widget produces on success.
// The client never interprets it; the fields are forwarded verbatim (with
// provider-specific renames) on the retried request.
type MMTResult struct {
	CaptchaID     string `json:"captcha_id"`
	LotNumber     string `json:"lot_number"`
	PassToken     string `json:"pass_token"`
	GenTime       string `json:"gen_time"`
	CaptchaOutput string `json:"captcha_output"`
}

// webString renders the result the way the web SMS endpoint wants it: a JSON
// blob in the geeTestData field.
func (m *MMTResult) webString() string {
	encoded, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// gameParams returns the solution under the key names the game SDK expects.
// The fields join the signed parameter set of the retried request.
func (m *MMTResult) gameParams() map[string]any {
	return map[string]any{
		"geetestCaptchaOutput": m.CaptchaOutput,
		"geetestGenTime":       m.GenTime,
		"geetestLotNumber":     m.LotNumber,
		"geetestPassToken":     m.PassToken,
	}
}

// LoginResult is the outcome of the phone/SMS login flow. Token is the
// long-lived cookie-style credential for the web API.
type LoginResult struct {
	EnableChildMode bool   `json:"enableChildMode"`
	Gender          int    `json:"gender"`
	Signature       string `json:"signature"`
	AvatarURL       string `json:"headUrl"`
	AvatarCode      string `json:"headCode"`
	UserName        string `json:"userName"`
	UserID          string `json:"userId"`
	IsRegistered    int    `json:"isRegister"`
	IsOfficial      int    `json:"isOfficial"`
	Status          int    `json:"status"`
	Token           string `json:"token"`
}

// GameLoginResult is the outcome of the game SDK credential flow. Code is
// the short-lived authorization code, AutoToken the long-lived auto-login
// credential.
type GameLoginResult struct {
	Username      string `json:"username"`
	SDKUserID     string `json:"sdkuserid"`
	ID            int64  `json:"id"`
	LoginType     int    `json:"loginType"`
	Code          string `json:"code"`
	TempToken     string `json:"tempToken"`
	IDStat        int    `json:"idStat"`
	UserType      int    `json:"userType"`
	CUID          string `json:"cuid"`
	ShowPaw       bool   `json:"showPaw"`
	BindDevStat   bool   `json:"bindDevStat"`
	BindDevSwitch bool   `json:"bindDevSwitch"`
	AutoToken     string `json:"autoToken"`
	FirstLogin    bool   `json:"firstLgn"`
	Email         string `json:"email"`
	Bind          bool   `json:"bind"`
}

// GameTokenResult is the exchanged access token with its validity window in
// seconds.
type GameTokenResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}
