package api

import (
	"net/http"
	"strings"

	"pos-service/internal/models"
	"pos-service/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	sessionKey         = "session"
	sessionTokenHeader = "X-Session-Token"
)

// sessionToken reads the token from "Authorization: Bearer" or X-Session-Token
func sessionToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(c.GetHeader(sessionTokenHeader))
}

// requireSession rejects requests without a live session
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := h.auth.Authenticate(c.Request.Context(), sessionToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// requireAdmin must run after requireSession
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := currentSession(c)
		if session == nil || session.Role != models.RoleAdmin {
			respondError(c, models.ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*models.Session)
	return session
}

// language picks the message language: session first, then ?lang, then Accept-Language
func language(c *gin.Context) string {
	if session := currentSession(c); session != nil && session.Language != "" {
		return session.Language
	}
	if q := c.Query("lang"); q != "" {
		if lang, err := service.NormalizeLanguage(q); err == nil {
			return lang
		}
	}
	if strings.HasPrefix(strings.ToLower(c.GetHeader("Accept-Language")), models.LanguageEnglish) {
		return models.LanguageEnglish
	}
	return models.LanguageTelugu
}

// login handles PIN login
func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// logout ends the caller's session
func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), currentSession(c).Token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getSession returns the caller's session
func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c))
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

// setLanguage switches the display language of the caller's session
func (h *Handler) setLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	session, err := h.auth.SetLanguage(c.Request.Context(), currentSession(c), req.Language)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Set(sessionKey, session)
	c.JSON(http.StatusOK, session)
}
