package http

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	// Identity is the composite `<user>@<tenant-code>` form.
	Identity string `json:"identity"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string   `json:"accessToken"`
	TokenType   string   `json:"tokenType"`
	TenantID    string   `json:"tenantId"`
	UserID      string   `json:"userId"`
	Roles       []string `json:"roles"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: "malformed body"})
		return
	}

	token, err := s.resolver.Authenticate(r.Context(), req.Identity, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	signed, err := s.issuer.Issue(token.UserID(), token.TenantID(), token.Authorities())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		TenantID:    token.TenantID(),
		UserID:      token.UserID(),
		Roles:       token.Authorities(),
	})
}
