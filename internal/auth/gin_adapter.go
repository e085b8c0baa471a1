package auth

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// cookieWriter wraps gin's ResponseWriter so the session cookie lands in the
// headers before the first byte of the body goes out. scs's own LoadAndSave
// buffers the whole response to achieve this, which gin's streaming writer
// does not allow.
type cookieWriter struct {
	gin.ResponseWriter
	sessions    *SessionManager
	request     *http.Request
	headersSent bool
	cookieSent  bool
}

func (w *cookieWriter) WriteHeader(code int) {
	w.commitCookie()
	w.ResponseWriter.WriteHeader(code)
}

func (w *cookieWriter) WriteHeaderNow() {
	w.commitCookie()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	w.commitCookie()
	return w.ResponseWriter.Write(b)
}

// commitCookie flushes the session state into a Set-Cookie header exactly
// once, before headers are sent.
func (w *cookieWriter) commitCookie() {
	if w.headersSent {
		return
	}
	w.headersSent = true

	if w.cookieSent {
		return
	}
	w.cookieSent = true

	ctx := w.request.Context()
	switch w.sessions.Status(ctx) {
	case scs.Modified:
		token, expiry, err := w.sessions.Commit(ctx)
		if err != nil {
			return
		}
		w.sessions.WriteSessionCookie(ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sessions.WriteSessionCookie(ctx, w.ResponseWriter, "", time.Time{})
	}
}

// Hijack keeps WebSocket upgrades working through the wrapper.
func (w *cookieWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

// SessionLoadSave adapts the scs load/commit cycle to a gin middleware. It
// must run before any handler that touches the session.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		writer := &cookieWriter{
			ResponseWriter: c.Writer,
			sessions:       sm,
			request:        c.Request,
		}
		c.Writer = writer

		c.Next()

		// A handler that never wrote anything still needs its cookie
		if !writer.headersSent {
			writer.commitCookie()
		}
	}
}
