// Package platform is the console's single entry and exit point to the
// platform backend's REST API.
//
// Every outbound request goes through the Client: it attaches the bearer
// access token from the session store, stamps a request ID, and applies a
// per-request timeout. On a 401 response the Client transparently
// refreshes the access token and retries the original request exactly
// once; a 401 from the login endpoint itself means bad credentials and
// never triggers a refresh.
//
// Refreshes are coalesced: when several in-flight requests observe a 401
// at the same time, they share one refresh call instead of racing each
// other. The server rotates the refresh credential on every refresh, so
// a racing second refresh would be rejected and wrongly end the session.
//
// When a refresh fails, the Client clears the session store and returns
// the original 401 error (not the refresh error) to the caller, so page
// error handling keeps a meaningful message while route admission reacts
// to the cleared session.
//
// The refresh credential itself lives in an HTTP-only cookie the backend
// sets; the Client carries it in a cookie jar and never exposes it. The
// jar is persisted separately from the session blob, the way a browser
// persists its cookie storage.
package platform
