package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"travelplanner/internal/service"
)

const (
	msgInvalidBody   = "Invalid request body."
	msgUnauthorized  = "Authentication credentials were not provided or are invalid."
	msgInternalError = "Internal server error."
)

// respondError переводит ошибку сервиса в HTTP-ответ.
// Текст непредвиденных ошибок только логируется.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, validationBody(verr))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User with this email does not exist."})
	case errors.Is(err, service.ErrMultipleAccounts):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multiple accounts found with this email. Please contact support."})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP or OTP expired."})
	case errors.Is(err, service.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No search query provided"})
	default:
		h.logger.Error("ошибка обработки запроса", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternalError})
	}
}

func validationBody(err *service.ValidationError) gin.H {
	if len(err.Fields) == 0 {
		return gin.H{"error": err.Message}
	}
	body := gin.H{}
	for field, msg := range err.Fields {
		body[field] = []string{msg}
	}
	return body
}

// bindJSON разбирает тело запроса; при ошибке отвечает 400 и возвращает false.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if _, ok := fields[fe.Field()]; !ok {
				fields[fe.Field()] = tagMessage(fe.Tag())
			}
		}
		h.respondError(c, &service.ValidationError{Fields: fields})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
	return false
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	default:
		return "Invalid value."
	}
}
