package kuro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// shrinkProcessingDelay makes the retry loop fast for tests.
func shrinkProcessingDelay(t *testing.T) {
	t.Helper()
	old := processingRetryDelay
	processingRetryDelay = 10 * time.Millisecond
	t.Cleanup(func() { processingRetryDelay = old })
}

const gameUserSuccess = `{"Code":0,"UserId":981,"SdkLoginCode":0,"RecommendRegion":"Europe","UserInfos":[{"Region":"Europe","Level":54,"LastTimeOnline":"2024-06-01 10:00:00"}]}`

func TestGetGameUser(t *testing.T) {
	stub := &stubTransport{responses: [][]byte{[]byte(gameUserSuccess)}}
	c := newTestClient(t, stub)

	user, err := c.GetGameUser(context.Background(), 981, "token-1", "global", "user@example.com", 1)
	require.NoError(t, err)
	require.Equal(t, int64(981), user.ID)
	require.Equal(t, "Europe", user.RecommendedRegion)
	require.Len(t, user.Accounts, 1)
	require.Equal(t, 54, user.Accounts[0].Level)

	require.Len(t, stub.calls, 1)
	call := stub.calls[0]
	require.Equal(t, gameUserInfoURL, call.URL)
	require.Equal(t, "981", call.Query.Get("userId"))
	require.Equal(t, "token-1", call.Query.Get("token"))
	require.Equal(t, "global", call.Query.Get("area"))
	require.Equal(t, "1", call.Query.Get("loginType"))
}

func TestGetGameUserRetriesWhileProcessing(t *testing.T) {
	shrinkProcessingDelay(t)
	stub := &stubTransport{responses: [][]byte{
		[]byte(`{"Code":1511,"Msg":"processing"}`),
		[]byte(gameUserSuccess),
	}}
	c := newTestClient(t, stub)

	user, err := c.GetGameUser(context.Background(), 981, "token-1", "global", "user@example.com", 1)
	require.NoError(t, err)
	require.Equal(t, int64(981), user.ID)
	require.Len(t, stub.calls, 2)
}

func TestGetGameUserGivesUpAfterProcessing(t *testing.T) {
	shrinkProcessingDelay(t)
	stub := &stubTransport{responses: [][]byte{
		[]byte(`{"Code":1511,"Msg":"processing"}`),
		[]byte(`{"Code":1511,"Msg":"processing"}`),
		[]byte(`{"Code":1511,"Msg":"processing"}`),
		[]byte(`{"Code":1511,"Msg":"processing"}`),
	}}
	c := newTestClient(t, stub)

	_, err := c.GetGameUser(context.Background(), 981, "token-1", "global", "user@example.com", 1)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, retProcessing, ae.Code)
	require.Len(t, stub.calls, maxProcessingRetries+1)
}

func TestGetGameUserHardError(t *testing.T) {
	stub := &stubTransport{responses: [][]byte{
		[]byte(`{"Code":403,"Msg":"token expired"}`),
	}}
	c := newTestClient(t, stub)

	_, err := c.GetGameUser(context.Background(), 981, "stale", "global", "user@example.com", 1)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, 403, ae.Code)
	require.Len(t, stub.calls, 1, "non-processing codes must not be retried")
}
