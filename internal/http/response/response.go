package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sciencemap-backend/internal/platform/ctxutil"
)

// APIError is the body of every non-2xx answer. RequestID matches the
// X-Request-Id header and the request's log lines.
type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      code,
			RequestID: requestID(c),
		},
	})
}

// RespondOK writes payload as is; view payloads are never wrapped.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func requestID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		return td.RequestID
	}
	return ""
}
