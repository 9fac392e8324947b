package kuro

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

// kurobbsGameID is the forum's id for Wuthering Waves.
const kurobbsGameID = 3

// =============================================================================
// Game (in-client) announcements
// =============================================================================

// GameAnnouncementRecord is one entry of the in-game announcement index.
// Red, Channel, Platform and WhiteList decide whether the entry should show
// in the webview; the client surfaces them without interpreting.
type GameAnnouncementRecord struct {
	ContentPrefix []string          `json:"contentPrefix"`
	Red           int               `json:"red"`
	Permanent     int               `json:"permanent"`
	ID            string            `json:"id"`
	StartTimeMs   int64             `json:"startTimeMs"`
	EndTimeMs     int64             `json:"endTimeMs"`
	Platform      []int             `json:"platform"`
	Channel       []any             `json:"channel"`
	WhiteList     []any             `json:"whiteList"`
	Title         map[Lang]string   `json:"tabTitle"`
	Banner        map[Lang][]string `json:"tabBanner"`
}

// DetailsURL joins the content prefix segments into the details base URL.
func (r *GameAnnouncementRecord) DetailsURL() string {
	return strings.Join(r.ContentPrefix, "")
}

// GameAnnouncementResult is the full announcement index.
type GameAnnouncementResult struct {
	Game  []GameAnnouncementRecord `json:"game"`
	Event []GameAnnouncementRecord `json:"activity"`
}

// GameAnnouncementDetails is the localized body of one announcement.
type GameAnnouncementDetails struct {
	AnnouncementID int64  `json:"noticeId"`
	HTMLContent    string `json:"textContent"`
	Title          string `json:"textTitle"`
	Banner         string `json:"banner"`
}

// GetGameAnnouncements fetches the in-game announcement index for the
// client's region.
func (c *Client) GetGameAnnouncements(ctx context.Context) (*GameAnnouncementResult, error) {
	body, err := c.transport.Request(ctx, &APIRequest{URL: gameAnnouncementsURL(c.region)})
	if err != nil {
		return nil, err
	}

	var result GameAnnouncementResult
	if err := decodeInto(body, &result, "game announcements"); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetGameAnnouncementDetails fetches the localized details behind an index
// record, in the client's language.
func (c *Client) GetGameAnnouncementDetails(ctx context.Context, record *GameAnnouncementRecord) (*GameAnnouncementDetails, error) {
	detailsURL := fmt.Sprintf("%s/%s.json", record.DetailsURL(), c.lang)

	body, err := c.transport.Request(ctx, &APIRequest{URL: detailsURL})
	if err != nil {
		return nil, err
	}

	var details GameAnnouncementDetails
	if err := decodeInto(body, &details, "game announcement details"); err != nil {
		return nil, err
	}
	return &details, nil
}

// =============================================================================
// Launcher announcements
// =============================================================================

// LauncherAnnouncement is one launcher box entry.
type LauncherAnnouncement struct {
	Content string `json:"content"`
	JumpURL string `json:"jumpUrl"`
	Time    string `json:"time"`
}

var launcherLangRe = regexp.MustCompile(`/(\w+)/main/news`)

// ID extracts the article id from the jump URL.
func (a *LauncherAnnouncement) ID() (int, error) {
	parts := strings.Split(a.JumpURL, "/")
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, fmt.Errorf("kuro: extracting id from jump url %q: %w", a.JumpURL, err)
	}
	return id, nil
}

// Lang extracts the article language from the jump URL.
func (a *LauncherAnnouncement) Lang() (Lang, error) {
	m := launcherLangRe.FindStringSubmatch(a.JumpURL)
	if m == nil {
		return "", fmt.Errorf("kuro: no language in jump url %q", a.JumpURL)
	}
	return Lang(m[1]), nil
}

// LauncherAnnouncementGroup is one titled section of the launcher feed.
type LauncherAnnouncementGroup struct {
	Contents []LauncherAnnouncement `json:"contents"`
	Title    string                 `json:"title"`
}

// LauncherAnnouncementInner groups the launcher's three sections.
type LauncherAnnouncementInner struct {
	Activity    LauncherAnnouncementGroup `json:"activity"`
	Description string                    `json:"desc"`
	News        LauncherAnnouncementGroup `json:"news"`
	Notice      LauncherAnnouncementGroup `json:"notice"`
}

// LauncherSlideshowItem is one slideshow banner.
type LauncherSlideshowItem struct {
	JumpURL string `json:"jumpUrl"`
	MD5     string `json:"md5"`
	URL     string `json:"url"`
}

// LauncherAnnouncementList is the launcher's full information feed.
type LauncherAnnouncementList struct {
	Guidance  LauncherAnnouncementInner `json:"guidance"`
	Slideshow []LauncherSlideshowItem   `json:"slideshow"`
}

// LauncherAnnouncementDetails is a launcher article body.
type LauncherAnnouncementDetails struct {
	ArticleContent  string `json:"articleContent"`
	ArticleID       int    `json:"articleId"`
	ArticleTitle    string `json:"articleTitle"`
	ArticleType     int    `json:"articleType"`
	ArticleTypeName string `json:"articleTypeName"`
	StartTime       string `json:"startTime"`
}

// GetLauncherAnnouncements fetches the launcher information feed for the
// client's region and language.
func (c *Client) GetLauncherAnnouncements(ctx context.Context) (*LauncherAnnouncementList, error) {
	feedURL := launcherAnnouncementsURL(c.region)
	if c.region == RegionOverseas {
		feedURL = fmt.Sprintf("%s/%s.json", feedURL, c.lang)
	}

	body, err := c.transport.Request(ctx, &APIRequest{URL: feedURL})
	if err != nil {
		return nil, err
	}

	var list LauncherAnnouncementList
	if err := decodeInto(body, &list, "launcher announcements"); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetLauncherAnnouncementDetails fetches one launcher article in the
// client's language. Only the overseas CDN serves article bodies.
func (c *Client) GetLauncherAnnouncementDetails(ctx context.Context, announcementID int) (*LauncherAnnouncementDetails, error) {
	if err := c.requireRegion("GetLauncherAnnouncementDetails", RegionOverseas); err != nil {
		return nil, err
	}

	detailsURL := fmt.Sprintf("%s/%s/article/%d.json", launcherAnnouncementDetailsURL, c.lang, announcementID)

	body, err := c.transport.Request(ctx, &APIRequest{URL: detailsURL})
	if err != nil {
		return nil, err
	}

	var details LauncherAnnouncementDetails
	if err := decodeInto(body, &details, "launcher announcement details"); err != nil {
		return nil, err
	}
	return &details, nil
}

// =============================================================================
// KuroBBS official posts
// =============================================================================

// KuroBBSAnnouncementListItem is one official forum post.
type KuroBBSAnnouncementListItem struct {
	CoverURL         string `json:"coverUrl"`
	EventType        int    `json:"eventType"`
	FirstPublishTime int64  `json:"firstPublishTime"`
	GameID           int    `json:"gameId"`
	InternalID       string `json:"id"`
	PostID           string `json:"postId"`
	PostTitle        string `json:"postTitle"`
	PublishTime      int64  `json:"publishTime"`
	ShelveTime       int64  `json:"shelveTime"`
}

// KuroBBSAnnouncementResult is the paginated official post feed. The API
// only honors the page size; page selection is not available.
type KuroBBSAnnouncementResult struct {
	EndRow           string                        `json:"endRow"`
	HasNextPage      bool                          `json:"hasNextPage"`
	HasPreviousPage  bool                          `json:"hasPreviousPage"`
	IsFirstPage      bool                          `json:"isFirstPage"`
	IsLastPage       bool                          `json:"isLastPage"`
	PostList         []KuroBBSAnnouncementListItem `json:"list"`
	NavigateFirstPag int                           `json:"navigateFirstPage"`
	NavigateLastPage int                           `json:"navigateLastPage"`
	NavigatePages    int                           `json:"navigatePages"`
	NavigatePageNums []int                         `json:"navigatepageNums"`
	NextPage         int                           `json:"nextPage"`
	PageNum          int                           `json:"pageNum"`
	PageSize         int                           `json:"pageSize"`
	Pages            int                           `json:"pages"`
	PrePage          int                           `json:"prePage"`
	Size             int                           `json:"size"`
	StartRow         string                        `json:"startRow"`
	Total            string                        `json:"total"`
}

// GetKuroBBSAnnouncements fetches the official KuroBBS post feed.
func (c *Client) GetKuroBBSAnnouncements(ctx context.Context, pageSize int) (*KuroBBSAnnouncementResult, error) {
	body, err := c.transport.Request(ctx, &APIRequest{
		Method: http.MethodPost,
		URL:    kurobbsAnnouncementListURL,
		Form: map[string]any{
			"gameId":   kurobbsGameID,
			"pageSize": pageSize,
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

	var result KuroBBSAnnouncementResult
	if err := decodeInto(env.Data, &result, "kurobbs announcements"); err != nil {
		return nil, err
	}
	return &result, nil
}
