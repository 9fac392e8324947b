package kuro

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// shutdownGrace is how long the server lingers after the result arrives so
// the browser's final fetch and navigation can complete.
const shutdownGrace = 300 * time.Millisecond

const captchaPage = `<!DOCTYPE html>
<head>
  <meta name="referrer" content="no-referrer"/>
</head>
<html>
  <body></body>
  <script src="./gt.js"></script>
  <script>
      window.initGeetest4(
        {
          captchaId: "{captcha_id}",
          product: "bind",
          language: "{lang}",
        },
        (captcha) => {
          captcha.onReady(() => {
            captcha.showCaptcha();
          });
          captcha.onSuccess(() => {
            fetch("/send-data", {
              method: "POST",
              body: JSON.stringify(captcha.getValidate()),
            }).then(() => window.close());
            document.body.innerHTML = "You may now close this window.";
          });
        }
      )
  </script>
</html>`

const enterCodePage = `<!DOCTYPE html>
<html>
  <body>
    <input id="code" type="number">
    <button id="verify">Send</button>
  </body>
  <script>
    document.getElementById("verify").onclick = () => {
      fetch("/send-data", {
        method: "POST",
        body: JSON.stringify({
          code: document.getElementById("code").value
        }),
      });
      document.body.innerHTML = "You may now close this window.";
    };
  </script>
</html>`

// challengeKind selects which page the challenge server renders.
type challengeKind int

const (
	challengeWidget challengeKind = iota
	codeEntry
)

// challengeResult is the single value a browser POST resolves.
type challengeResult struct {
	code string
	mmt  *MMTResult
}

// SolveGeetest hosts a single-use local web page with the geetest widget and
// blocks until a human solves the challenge in their browser. The returned
// MMTResult is opaque; it is forwarded as-is on the retried request.
//
// There is no built-in deadline; cancel ctx to abandon the wait. The listener
// is torn down and the port released on every exit path.
func SolveGeetest(ctx context.Context, captchaID CaptchaID, lang Lang, port int) (*MMTResult, error) {
	res, err := runChallengeServer(ctx, challengeWidget, captchaID, GeetestLang(lang), port)
	if err != nil {
		return nil, err
	}
	if res.mmt == nil {
		return nil, &MalformedResponseError{Reason: "challenge page posted no captcha solution"}
	}
	return res.mmt, nil
}

// EnterCode hosts a single-use local code-entry page and blocks until the
// human submits the one-time code they received out of band.
func EnterCode(ctx context.Context, port int) (string, error) {
	res, err := runChallengeServer(ctx, codeEntry, "", "", port)
	if err != nil {
		return "", err
	}
	if res.code == "" {
		return "", &MalformedResponseError{Reason: "challenge page posted no code"}
	}
	return res.code, nil
}

func runChallengeServer(ctx context.Context, kind challengeKind, captchaID CaptchaID, lang string, port int) (*challengeResult, error) {
	if port <= 0 {
		port = defaultGeetestPort
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, &PortInUseError{Port: port, Err: err}
	}

	page := enterCodePage
	if kind == challengeWidget {
		page = strings.NewReplacer(
			"{captcha_id}", string(captchaID),
			"{lang}", lang,
		).Replace(captchaPage)
	}

	// Buffered so the handler never blocks; a second POST after the slot is
	// filled falls through to the no-op branch.
	results := make(chan *challengeResult, 1)

	srv := &fasthttp.Server{
		// Connections must not outlive a response, or graceful shutdown
		// would wait on the browser's keep-alive.
		DisableKeepalive: true,
		Handler: func(rctx *fasthttp.RequestCtx) {
			switch string(rctx.Path()) {
			case "/":
				rctx.SetContentType("text/html")
				rctx.SetBodyString(page)
			case "/gt.js":
				relayGeetestScript(rctx)
			case "/send-data":
				res, err := parseChallengePost(rctx.PostBody())
				if err != nil {
					rctx.SetStatusCode(fasthttp.StatusBadRequest)
					return
				}
				select {
				case results <- res:
				default:
					// Already resolved; later POSTs are ignored.
				}
				rctx.SetStatusCode(fasthttp.StatusNoContent)
			default:
				rctx.SetStatusCode(fasthttp.StatusNotFound)
			}
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	defer func() {
		time.Sleep(shutdownGrace)
		_ = srv.Shutdown()
	}()

	openBrowser(fmt.Sprintf("http://localhost:%d", port))

	select {
	case res := <-results:
		return res, nil
	case err := <-serveErr:
		return nil, fmt.Errorf("kuro: challenge server stopped: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// parseChallengePost decodes the browser's POST body: either a bare
// {"code": ...} from the code-entry page or the full geetest validate
// object.
func parseChallengePost(body []byte) (*challengeResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, err
	}

	if raw, ok := probe["code"]; ok {
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			return nil, err
		}
		return &challengeResult{code: code}, nil
	}

	var mmt MMTResult
	if err := json.Unmarshal(body, &mmt); err != nil {
		return nil, err
	}
	return &challengeResult{mmt: &mmt}, nil
}

// relayGeetestScript proxies the third-party widget script verbatim. A fetch
// failure surfaces to the browser as a 502; the pending wait is unaffected.
func relayGeetestScript(rctx *fasthttp.RequestCtx) {
	status, body, err := fasthttp.Get(nil, geetestScriptURL)
	if err != nil || status != fasthttp.StatusOK {
		rctx.SetStatusCode(fasthttp.StatusBadGateway)
		return
	}
	rctx.SetContentType("text/javascript")
	rctx.SetBody(body)
}

// openBrowser points the default system browser at url. Best effort: if no
// browser can be spawned the operator can still open the printed URL by
// hand.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		fmt.Printf("Open %s in your browser to continue\n", url)
		return
	}
	// Reap the helper once it exits so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
}
