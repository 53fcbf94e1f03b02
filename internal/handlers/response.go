package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/middleware"
)

// fail writes the error body for err. Internal causes are logged and never
// sent to the client.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.Log.Error().Err(err).
			Str("requestId", c.GetString(middleware.ContextRequestID)).
			Str("route", c.FullPath()).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.Message(err)})
}

// bind decodes the JSON body into req and replies 400 on failure.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return false
	}
	return true
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email"
	case "role":
		return "Invalid role"
	case "clock":
		return "Invalid time, use HH:MM"
	case "ymd":
		return "Invalid date, use YYYY-MM-DD"
	case "objectid":
		return "Invalid id"
	case "max":
		return fe.Field() + " is too long"
	}
	return "Invalid " + fe.Field()
}

// pathID parses the named path parameter as an ObjectID.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	return parseID(c, c.Param(name))
}

func parseID(c *gin.Context, hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}
