package middleware

import "github.com/labstack/echo/v4"

// Context keys populated by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// Identity returns the authenticated caller stored by JWTAuth.  All values
// are empty for anonymous requests.
func Identity(c echo.Context) (userID, email, role string) {
	userID, _ = c.Get(CtxUserID).(string)
	email, _ = c.Get(CtxEmail).(string)
	role, _ = c.Get(CtxRole).(string)
	return userID, email, role
}

// currentUserID is the rate-limit identity: the user id, or "anon".
func currentUserID(c echo.Context) string {
	if uid, _, _ := Identity(c); uid != "" {
		return uid
	}
	return "anon"
}
