package common

import "time"

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "auth-token"

// SessionLifetime is the fixed validity window of a session token and its cookie.
const SessionLifetime = 7 * 24 * time.Hour

