package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/emberlabs/go-dating-backend/internal/auth"
	"github.com/emberlabs/go-dating-backend/internal/sysutil"
)

// upgrader performs the websocket handshake. Origin checking is delegated
// to the CORS posture of the surrounding deployment; the credential check
// below is what gates admission.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler returns the websocket endpoint. The bearer credential (from the
// Authorization header, or a token query parameter for browser clients
// that cannot set headers on websocket dials) is verified before the
// upgrade; failure closes the attempt with 401 and no partial session.
func Handler(hub *Hub, router *Router, verifier auth.Verifier, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		headerToken, _ := auth.FromAuthorizationHeader(c.GetHeader("Authorization"))
		token := sysutil.FirstNonEmpty(headerToken, c.Query("token"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "credential required",
			})
			return
		}
		userID, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid credential",
			})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := newClient(hub, conn, userID, log)
		hub.register(client)
		router.connected(client)

		go client.writePump()
		go client.readPump(router)
	}
}
