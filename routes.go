package kuro

// All API endpoints in one place.

const (
	kurobbsBaseURL = "https://api.kurobbs.com"

	// KuroBBS web auth.
	getSMSCodeURL = kurobbsBaseURL + "/user/getSmsCodeForH5"
	webLoginURL   = kurobbsBaseURL + "/user/loginForH5"

	// KuroBBS official announcement feed.
	kurobbsAnnouncementListURL = kurobbsBaseURL + "/forum/companyEvent/findEventList"

	// Game SDK auth (overseas deployment only).
	gameSDKBaseURL   = "https://sdkapi-not-cn.kurogame.net/app-sdk"
	gameLoginURL     = gameSDKBaseURL + "/krsdk/login"
	gameTokenURL     = gameSDKBaseURL + "/krsdk/token"
	gameTokenCheck   = gameSDKBaseURL + "/krsdk/checkToken"
	gameAutoLogin    = gameSDKBaseURL + "/krsdk/autoLogin"
	gameOAuthCodeURL = gameSDKBaseURL + "/krsdk/oauthCode"

	// Gacha record service.
	gachaRecordURL = "https://gmserver-api.aki-game2.net/gacha/record/query"

	// Game account lookup.
	gameUserInfoURL = "https://xk-sdk-oversea.aki-game.net/user/info"

	// The third-party geetest widget script relayed by the challenge server.
	geetestScriptURL = "https://static.geetest.com/v4/gt4.js"
)

// gameAnnouncementsURL returns the announcement index for a region.
func gameAnnouncementsURL(region Region) string {
	if region == RegionChinese {
		return "https://aki-gm-resources.aki-game.com/gamenotice/Game.json"
	}
	return "https://aki-gm-resources-oversea.aki-game.net/gamenotice/Game.json"
}

// launcherAnnouncementsURL returns the launcher announcement index for a
// region. The overseas variant is further namespaced per language by the
// caller.
func launcherAnnouncementsURL(region Region) string {
	if region == RegionChinese {
		return "https://prod-cn-alicdn-gamestarter.kurogame.com/launcher/information/zh-Hans.json"
	}
	return "https://prod-alicdn-gamestarter.kurogame.com/launcher/information"
}

const launcherAnnouncementDetailsURL = "https://prod-alicdn-gamestarter.kurogame.com/launcher/article"
