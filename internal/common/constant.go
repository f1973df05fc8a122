package common

// UserIDHeaderName is the HTTP header carrying the anonymous user
// identifier on every outbound API request.
const UserIDHeaderName = "X-User-Id"
