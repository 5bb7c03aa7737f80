// Package server runs the short-lived local HTTP listener that receives OAuth redirects.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Callback Handlers
//
// [OAuthHandler] receives the authorization code redirect, checks the state parameter and hands the code to a
// [CodeExchanger]. Only the first callback is processed.
//
// [ImplicitHandler] serves the implicit grant redirect. Browsers never send the URL fragment to the server, so the
// callback path returns a small page that forwards the fragment to a second path as a query string, where it is
// passed to a [FragmentCompleter].
//
// Both report exactly one [CallbackResult]. [CallbackServer.Await] listens until that result arrives, the timeout
// elapses or the context is canceled, then shuts the listener down.
package server
