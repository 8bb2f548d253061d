package handler

import (
	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/fleetops/fleetops/internal/orchestrator/middleware"
	"github.com/gin-gonic/gin"
)

// Authenticator is the external identity subsystem's contract (spec §6):
// the core never stores credentials, it only asks whether a principal
// authenticated with the given password, and in what kind (user/service
// account) it did so.
type Authenticator interface {
	Authenticate(principalID, password string) (principalKind string, ok bool, err error)
}

// AuthHandler mints a bearer token for a principal the external
// Authenticator has already vetted.
type AuthHandler struct {
	authenticator Authenticator
}

// NewAuthHandler constructs an AuthHandler against the given Authenticator.
func NewAuthHandler(authenticator Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.RequestInvalid))
		return
	}

	kind, ok, err := h.authenticator.Authenticate(req.PrincipalID, req.Password)
	if err != nil {
		common.Error(c, err)
		return
	}
	if !ok {
		common.Error(c, common.NewErrNo(common.PasswordErr))
		return
	}

	token, err := middleware.GenerateJWT(req.PrincipalID, kind)
	if err != nil {
		common.Error(c, common.NewErrNo(common.TokenInvalid))
		return
	}
	common.Success(c, api.LoginResponse{Token: token})
}
