// Package middleware adapts session checks to net/http.
//
// [Guard] reads the Authorization header, asks the engine whether the Bearer
// token is the live access token of its subject, and stores the subject for
// [UserIDFromContext]. [RequireOwner] layers a resource ownership check on
// top of it.
//
// Neither middleware parses tokens or talks to Redis itself.
package middleware
