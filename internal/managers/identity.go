package managers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hubsync/hubsync/internal/hub"
)

// IdentityManager serves integrations with identity providers (LDAP, SSO).
type IdentityManager struct {
	base
}

func NewIdentityManager(deps Deps) *IdentityManager {
	return &IdentityManager{base{typ: hub.TypeIdentity, deps: deps}}
}

type authenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (m *IdentityManager) AuthenticateUser(ctx context.Context, integrationID, username, password string) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodPost, "/auth",
		authenticateRequest{Username: username, Password: password}, &data)
	return envelope(data, err)
}

func (m *IdentityManager) GetUserInfo(ctx context.Context, integrationID, username string) hub.Result {
	var data map[string]any
	err := m.call(ctx, integrationID, http.MethodGet, "/users/"+url.PathEscape(username), nil, &data)
	return envelope(data, err)
}
