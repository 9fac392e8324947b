package kuro

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// maxProcessingRetries limits re-polling the account lookup while the
// service is still assembling the answer.
const maxProcessingRetries = 3

// processingRetryDelay is a variable so retry tests can shrink the wait.
var processingRetryDelay = time.Second

// GameAccount is one regional account of a game user.
type GameAccount struct {
	Region         string `json:"Region"`
	Level          int    `json:"Level"`
	LastTimeOnline string `json:"LastTimeOnline"`
}

// GameUser is the player profile returned by the account lookup.
type GameUser struct {
	ID                int64         `json:"UserId"`
	SDKLoginCode      int           `json:"SdkLoginCode"`
	Accounts          []GameAccount `json:"UserInfos"`
	RecommendedRegion string        `json:"RecommendRegion"`
}

// gameUserEnvelope is the lookup service's own response wrapper; it
// capitalizes its code field unlike every other endpoint.
type gameUserEnvelope struct {
	Code int    `json:"Code"`
	Msg  string `json:"Msg"`
}

// GetGameUser fetches game account info for a logged-in user. While the
// service reports it is still processing, the call is retried a fixed small
// number of times; every other non-success code propagates as is.
func (c *Client) GetGameUser(ctx context.Context, userID int64, token, area, username string, loginType int) (*GameUser, error) {
	query := url.Values{}
	query.Set("loginType", strconv.Itoa(loginType))
	query.Set("userId", strconv.FormatInt(userID, 10))
	query.Set("token", token)
	query.Set("area", area)
	query.Set("userName", username)

	var lastErr error
	for attempt := 0; attempt <= maxProcessingRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(processingRetryDelay):
			}
		}

		body, err := c.transport.Request(ctx, &APIRequest{
			URL:   gameUserInfoURL,
			Query: query,
		})
		if err != nil {
			return nil, err
		}

		var env gameUserEnvelope
		if err := decodeInto(body, &env, "game user envelope"); err != nil {
			return nil, err
		}
		if env.Code == retProcessing {
			lastErr = &APIError{Code: env.Code, Message: env.Msg}
			continue
		}
		if env.Code != retSuccess {
			return nil, &APIError{Code: env.Code, Message: env.Msg}
		}

		var user GameUser
		if err := decodeInto(body, &user, "game user"); err != nil {
			return nil, err
		}
		return &user, nil
	}

	return nil, lastErr
}
