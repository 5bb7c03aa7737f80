package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
)

// CallbackResult contains the outcome of an authorization redirect.
type CallbackResult struct {
	Credential *models.Credential
	err        error
}

func (o *CallbackResult) Error() error {
	return o.err
}

// CodeExchanger trades an authorization code for a stored credential.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*models.Credential, error)
}

// FragmentCompleter stores the credential carried in an implicit grant fragment.
type FragmentCompleter interface {
	CompleteImplicit(ctx context.Context, fragment string) (*models.Credential, error)
}

// result delivers exactly one [CallbackResult].
type result struct {
	ch   chan CallbackResult
	once sync.Once
}

func newResult() result {
	return result{ch: make(chan CallbackResult, 1)}
}

func (r *result) send(res CallbackResult) {
	r.once.Do(func() {
		r.ch <- res
		close(r.ch)
	})
}

// oneShot reports whether this is the first call.
type oneShot struct {
	mu  sync.Mutex
	hit bool
}

func (o *oneShot) first() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.hit {
		return false
	}
	o.hit = true
	return true
}

// OAuthHandler handles the authorization code redirect.
type OAuthHandler struct {
	exchanger CodeExchanger
	state     string
	path      string
	provider  string
	result    result
	once      oneShot
}

// NewOAuthHandler creates a handler serving path that checks state and exchanges the code.
//
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(exchanger CodeExchanger, provider, path, state string) *OAuthHandler {
	return &OAuthHandler{exchanger: exchanger, state: state, path: path, provider: provider, result: newResult()}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the state parameter, exchanges the code and reports the result.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.once.first() {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, shared.ErrStateMismatch)
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s %s", shared.ErrAuthExchange, q.Get("error"), q.Get("error_description"))
		h.fail(w, http.StatusBadRequest, err)
		return
	}

	cred, err := h.exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}

	h.result.send(CallbackResult{Credential: cred})
	renderPage(w, http.StatusOK, h.provider, true, "You can close this window and return to the terminal.")
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.result.send(CallbackResult{err: err})
	renderPage(w, status, h.provider, false, err.Error())
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan CallbackResult {
	return h.result.ch
}

// ImplicitHandler handles the implicit grant redirect and the follow-up request carrying the fragment.
type ImplicitHandler struct {
	completer    FragmentCompleter
	callbackPath string
	tokenPath    string
	provider     string
	result       result
	once         oneShot
}

// NewImplicitHandler serves the forwarding page at callbackPath and accepts the fragment at tokenPath.
func NewImplicitHandler(completer FragmentCompleter, provider, callbackPath, tokenPath string) *ImplicitHandler {
	return &ImplicitHandler{
		completer:    completer,
		callbackPath: callbackPath,
		tokenPath:    tokenPath,
		provider:     provider,
		result:       newResult(),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ImplicitHandler) Routes() []string {
	return []string{h.callbackPath, h.tokenPath}
}

func (h *ImplicitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case h.callbackPath:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		forwardPage.Execute(w, h.tokenPath)
	case h.tokenPath:
		h.complete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ImplicitHandler) complete(w http.ResponseWriter, r *http.Request) {
	if !h.once.first() {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	cred, err := h.completer.CompleteImplicit(r.Context(), r.URL.RawQuery)
	if err != nil {
		h.result.send(CallbackResult{err: err})
		renderPage(w, http.StatusBadRequest, h.provider, false, err.Error())
		return
	}

	h.result.send(CallbackResult{Credential: cred})
	renderPage(w, http.StatusOK, h.provider, true, "You can close this window and return to the terminal.")
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *ImplicitHandler) Result() <-chan CallbackResult {
	return h.result.ch
}

// forwardPage moves the fragment (or, on denial, the query) to the token path.
var forwardPage = template.Must(template.New("forward").Parse(`<!DOCTYPE html>
<html>
<head><title>Completing sign-in</title></head>
<body>
<p>Completing sign-in...</p>
<script>
  var data = window.location.hash ? window.location.hash.substring(1) : window.location.search.substring(1);
  window.location.replace({{.}} + "?" + data);
</script>
</body>
</html>
`))

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{if .OK}}Authorization Successful{{else}}Authorization Failed{{end}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{if .OK}}#1DB954{{else}}#E22134{{end}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{if .OK}}✓{{else}}✗{{end}} {{.Provider}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, provider string, ok bool, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	resultPage.Execute(w, struct {
		Provider string
		OK       bool
		Message  string
	}{provider, ok, message})
}
