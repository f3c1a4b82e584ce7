package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/auth"
)

// UpdatePasswordRequest carries the new password for the active session
type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// ResetPasswordRequest requests a password-reset email
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfileRequest is a partial profile update
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// @Summary Sign up
// @Description Register a new account. When the backend requires email
// @Description confirmation the response has success=true and no user.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpData true "Sign up request"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/auth/signup [post]
func (s *Server) signUp(c *gin.Context) {
	var req auth.SignUpData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.authManager.SignUp(c.Request.Context(), req)
	if !resp.Success {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInData true "Sign in request"
// @Success 200 {object} auth.AuthResponse
// @Failure 401 {object} auth.AuthResponse
// @Router /api/auth/login [post]
func (s *Server) signIn(c *gin.Context) {
	var req auth.SignInData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := s.authManager.SignIn(c.Request.Context(), req)
	if !resp.Success {
		c.JSON(http.StatusUnauthorized, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Start Google OAuth sign-in
// @Description Returns the provider authorize URL for the browser to follow.
// @Description The session materializes later through the auth event stream.
// @Tags auth
// @Produce json
// @Success 200 {object} auth.AuthResponse
// @Router /api/auth/google [post]
func (s *Server) signInWithGoogle(c *gin.Context) {
	resp := s.authManager.SignInWithGoogle(c.Request.Context())
	if !resp.Success {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Sign out
// @Description Always succeeds from the caller's perspective; local session
// @Description state is cleared even if the remote sign-out call fails.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.Result
// @Router /api/auth/logout [post]
func (s *Server) signOut(c *gin.Context) {
	c.JSON(http.StatusOK, s.authManager.SignOut(c.Request.Context()))
}

// @Summary Get current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.AuthResponse
// @Failure 401 {object} auth.AuthResponse
// @Router /api/auth/session [get]
func (s *Server) getSession(c *gin.Context) {
	resp := s.authManager.GetCurrentSession(c.Request.Context())
	if !resp.Success {
		c.JSON(http.StatusUnauthorized, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.AuthUser
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (s *Server) getMe(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Request password reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset request"
// @Success 200 {object} auth.Result
// @Router /api/auth/recover [post]
func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.authManager.ResetPassword(c.Request.Context(), req.Email)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Update password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdatePasswordRequest true "New password"
// @Success 200 {object} auth.Result
// @Router /api/auth/password [put]
func (s *Server) updatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.authManager.UpdatePassword(c.Request.Context(), req.NewPassword)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Update profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} auth.Result
// @Router /api/auth/profile [patch]
func (s *Server) updateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.authManager.UpdateProfile(c.Request.Context(), auth.ProfileUpdate{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
