package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sciencemap-backend/internal/platform/apierr"
)

// RespondAPIError writes err using its *apierr.Error status and code. Any
// other error is an internal failure and its text is not exposed.
func RespondAPIError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status > 0 && ae.Status < http.StatusInternalServerError {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
}
