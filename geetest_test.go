package kuro

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

// waitForServer polls the challenge page until the server answers. Called
// from helper goroutines, so it reports nothing itself: if the server never
// comes up the test's context deadline fails the test.
func waitForServer(port int) {
	url := fmt.Sprintf("http://localhost:%d/", port)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, _, err := fasthttp.GetTimeout(nil, url, time.Second)
		if err == nil && status == fasthttp.StatusOK {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// waitForPage polls until the server answers with a page containing marker.
// Needed when consecutive servers share one port: the marker tells the
// widget page and the code-entry form apart.
func waitForPage(port int, marker string) {
	url := fmt.Sprintf("http://localhost:%d/", port)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, body, err := fasthttp.GetTimeout(nil, url, time.Second)
		if err == nil && status == fasthttp.StatusOK && strings.Contains(string(body), marker) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func postChallengeData(port int, body string) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("http://localhost:%d/send-data", port))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetBodyString(body)

	if err := fasthttp.DoTimeout(req, resp, time.Second); err != nil {
		return 0, err
	}
	return resp.StatusCode(), nil
}

func TestEnterCodeResolvesOnPost(t *testing.T) {
	const port = 51701

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		waitForServer(port)
		postChallengeData(port, `{"code":"123456"}`)
	}()

	code, err := EnterCode(ctx, port)
	require.NoError(t, err)
	require.Equal(t, "123456", code)

	// The listener is torn down before EnterCode returns; the port must be
	// immediately rebindable.
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	require.NoError(t, err)
	ln.Close()
}

func TestSolveGeetestResolvesOnValidatePost(t *testing.T) {
	const port = 51702

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		waitForServer(port)
		postChallengeData(port, `{
			"captcha_id": "cap-1",
			"lot_number": "lot-1",
			"pass_token": "pass-1",
			"gen_time": "1700000000",
			"captcha_output": "out-1"
		}`)
	}()

	mmt, err := SolveGeetest(ctx, CaptchaIDGame, LangEnglish, port)
	require.NoError(t, err)
	require.Equal(t, "cap-1", mmt.CaptchaID)
	require.Equal(t, "lot-1", mmt.LotNumber)
	require.Equal(t, "pass-1", mmt.PassToken)
	require.Equal(t, "1700000000", mmt.GenTime)
	require.Equal(t, "out-1", mmt.CaptchaOutput)
}

func TestEnterCodeRejectsValidatePost(t *testing.T) {
	const port = 51708

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		waitForServer(port)
		postChallengeData(port, `{"captcha_id":"c","lot_number":"l","pass_token":"p","gen_time":"g","captcha_output":"o"}`)
	}()

	_, err := EnterCode(ctx, port)
	var me *MalformedResponseError
	require.ErrorAs(t, err, &me)
}

func TestChallengeServerIgnoresSecondPost(t *testing.T) {
	const port = 51703

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		waitForServer(port)
		postChallengeData(port, `{"code":"first"}`)
		// The server lingers briefly after resolving; a late duplicate must
		// not change the outcome. Errors here are fine: the listener may
		// already be gone.
		postChallengeData(port, `{"code":"second"}`)
	}()

	code, err := EnterCode(ctx, port)
	require.NoError(t, err)
	require.Equal(t, "first", code)
}

func TestChallengeServerRejectsMalformedPost(t *testing.T) {
	const port = 51704

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		waitForServer(port)
		status, err := postChallengeData(port, `not json`)
		if err == nil && status != fasthttp.StatusBadRequest {
			t.Errorf("malformed post got status %d, want %d", status, fasthttp.StatusBadRequest)
		}
		postChallengeData(port, `{"code":"after-bad"}`)
	}()

	code, err := EnterCode(ctx, port)
	require.NoError(t, err)
	require.Equal(t, "after-bad", code)
}

func TestChallengeServerPortInUse(t *testing.T) {
	const port = 51705

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	require.NoError(t, err)
	defer ln.Close()

	_, err = EnterCode(context.Background(), port)
	var pe *PortInUseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, port, pe.Port)
}

func TestChallengeServerContextCancel(t *testing.T) {
	const port = 51706

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		waitForServer(port)
		cancel()
	}()

	_, err := EnterCode(ctx, port)
	require.ErrorIs(t, err, context.Canceled)
}

func TestChallengePageInterpolation(t *testing.T) {
	const port = 51707

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pageCh := make(chan string, 1)
	go func() {
		waitForServer(port)
		_, body, err := fasthttp.GetTimeout(nil, fmt.Sprintf("http://localhost:%d/", port), time.Second)
		if err == nil {
			pageCh <- string(body)
		}
		postChallengeData(port, `{"captcha_id":"x","lot_number":"x","pass_token":"x","gen_time":"x","captcha_output":"x"}`)
	}()

	_, err := SolveGeetest(ctx, CaptchaIDKurobbs, LangJapanese, port)
	require.NoError(t, err)

	page := <-pageCh
	require.Contains(t, page, string(CaptchaIDKurobbs))
	require.Contains(t, page, `language: "ja"`)
	require.NotContains(t, page, "{captcha_id}")
	require.NotContains(t, page, "{lang}")
}

func TestParseChallengePost(t *testing.T) {
	res, err := parseChallengePost([]byte(`{"code":"9999"}`))
	require.NoError(t, err)
	require.Equal(t, "9999", res.code)
	require.Nil(t, res.mmt)

	res, err = parseChallengePost([]byte(`{"captcha_id":"c","lot_number":"l","pass_token":"p","gen_time":"g","captcha_output":"o"}`))
	require.NoError(t, err)
	require.NotNil(t, res.mmt)
	require.Equal(t, "c", res.mmt.CaptchaID)

	_, err = parseChallengePost([]byte(`[]`))
	require.Error(t, err)

	_, err = parseChallengePost([]byte(`{"code":1234}`))
	require.Error(t, err, "numeric code field is not accepted")
}

func TestGeetestLangFallback(t *testing.T) {
	require.Equal(t, "ja", GeetestLang(LangJapanese))
	require.Equal(t, "en", GeetestLang(Lang("tlh")))
}

func TestPortInUseErrorUnwraps(t *testing.T) {
	inner := errors.New("bind: address already in use")
	err := &PortInUseError{Port: 5000, Err: inner}
	require.ErrorIs(t, err, inner)
}
