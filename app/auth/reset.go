package auth

import (
	"errors"
	"net/http"

	"blogapi/internal"
	"blogapi/internal/service"
	"blogapi/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cookie names carrying the purpose-scoped tokens between reset steps
const (
	resetCookie  = "reset_token"
	changeCookie = "change_token"

	// Matches the lifetime of the token inside it
	resetCookieTTL = 300
)

type requestCodeBody struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyCodeBody struct {
	Code string `json:"code" binding:"required"`
}

type resetPasswordBody struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// RequestResetCode starts a password reset flow. It deliberately responds
// the same whether or not the email belongs to an account.
func RequestResetCode(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data requestCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	token, err := d.Reset.RequestCode(c.Request.Context(), data.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to start reset flow", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	setResetCookie(c, resetCookie, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists, a verification code has been sent",
	})
}

// VerifyResetCode trades a correct code plus the reset_token cookie for a
// change_token cookie that allows the final step
func VerifyResetCode(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyCodeBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	token, err := c.Cookie(resetCookie)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "No reset token provided",
			"requestID": requestID,
		})
		return
	}

	changeToken, err := d.Reset.VerifyCode(c.Request.Context(), token, data.Code)
	if err != nil {
		status := resetErrStatus(err)
		c.JSON(status, gin.H{
			"error":     resetErrMessage(status, err),
			"requestID": requestID,
		})
		return
	}

	clearResetCookie(c, resetCookie)
	setResetCookie(c, changeCookie, changeToken)

	c.JSON(http.StatusOK, gin.H{
		"message": "Code verified",
	})
}

// ResetPassword finishes the flow using the change_token cookie
func ResetPassword(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetPasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	token, err := c.Cookie(changeCookie)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "No change token provided",
			"requestID": requestID,
		})
		return
	}

	err = d.Reset.ResetPassword(c.Request.Context(), token, data.NewPassword)
	if err != nil {
		status := resetErrStatus(err)
		c.JSON(status, gin.H{
			"error":     resetErrMessage(status, err),
			"requestID": requestID,
		})
		return
	}

	clearResetCookie(c, changeCookie)

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset successfully",
	})
}

// resetErrStatus maps the orchestrator's error taxonomy onto status codes.
// Anything unknown is an infrastructure failure, not caller state.
func resetErrStatus(err error) int {
	switch {
	case errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, service.ErrWrongPurpose):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrCodeMismatch),
		errors.Is(err, service.ErrNotVerified),
		errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	default:
		zap.L().Error("Reset flow failed", zap.Error(err))
		return http.StatusInternalServerError
	}
}

// Caller-state errors carry their own message, infrastructure failures
// don't leak details
func resetErrMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}

	return err.Error()
}

func setResetCookie(c *gin.Context, name, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, token, resetCookieTTL, "/", "", false, true)
}

func clearResetCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, "", -1, "/", "", false, true)
}
