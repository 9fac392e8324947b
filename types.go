package kuro

// Game is a Kuro Games title.
type Game string

const (
	// GamePGR is Punishing: Gray Raven.
	GamePGR Game = "pgr"
	// GameWuWa is Wuthering Waves.
	GameWuWa Game = "wuwa"
)

// Region selects which deployment of the API a client talks to.
type Region string

const (
	RegionOverseas Region = "os"
	RegionChinese  Region = "cn"
)

// Lang is a language supported by the API.
type Lang string

const (
	LangChineseSimplified  Lang = "zh-Hans"
	LangChineseTraditional Lang = "zh-Hant"
	LangEnglish            Lang = "en"
	LangJapanese           Lang = "ja"
	LangKorean             Lang = "ko"
	LangFrench             Lang = "fr"
	LangGerman             Lang = "de"
	LangSpanish            Lang = "es"
)

// CaptchaID identifies which geetest deployment a challenge page should load.
type CaptchaID string

const (
	// CaptchaIDKurobbs is used by the KuroBBS web login flow.
	CaptchaIDKurobbs CaptchaID = "ec4aa4174277d822d73f2442a165a2cd"
	// CaptchaIDGame is used by the game SDK credential flow.
	CaptchaIDGame CaptchaID = "1f4565ff7acc97b1a2fc97b921743aa4"
)

// WuWaServer is a Wuthering Waves game server id.
type WuWaServer string

const (
	ServerAmerica WuWaServer = "591d6af3a3090d8ea00d8f86cf6d7501"
	ServerAsia    WuWaServer = "86d52186155b148b5c138ceb41be9650"
	ServerEurope  WuWaServer = "6eb2a235b30d05efd77bedb5cf60999e"
	ServerHMT     WuWaServer = "919752ae5ea09c1ced910dd668a63ffb"
	ServerSEA     WuWaServer = "10cd7254d57e58ae560b15d51e34b4c8"
)

// WuWaBanner is a Wuthering Waves banner (card pool) type.
type WuWaBanner int

const (
	BannerFeaturedResonator WuWaBanner = 1
	BannerFeaturedWeapon    WuWaBanner = 2
	BannerStandardResonator WuWaBanner = 3
	BannerStandardWeapon    WuWaBanner = 4
	BannerBeginners         WuWaBanner = 5
	BannerBeginnersChoice   WuWaBanner = 6
	BannerGivebackCustom    WuWaBanner = 7
)

// geetestLangs maps API languages to the codes the geetest widget accepts.
var geetestLangs = map[Lang]string{
	LangChineseSimplified:  "zh-Hans",
	LangChineseTraditional: "zh-Hant",
	LangEnglish:            "en",
	LangJapanese:           "ja",
	LangKorean:             "ko",
	LangFrench:             "fr",
	LangGerman:             "de",
	LangSpanish:            "es",
}

// GeetestLang converts an API language to a geetest widget language,
// falling back to English for anything unmapped.
func GeetestLang(lang Lang) string {
	if l, ok := geetestLangs[lang]; ok {
		return l
	}
	return "en"
}

// appKeys holds the shared signing secret per (game, region) pair.
var appKeys = map[Game]map[Region]string{
	GameWuWa: {
		RegionChinese:  "",
		RegionOverseas: "32gh5r0p35ullmxrzzwk40ly",
	},
}

// AppKey returns the signing secret for a (game, region) pair, or "" if
// none is known.
func AppKey(game Game, region Region) string {
	return appKeys[game][region]
}
