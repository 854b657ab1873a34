package auth

import (
	"context"

	"library-hub/internal/api"
	"library-hub/internal/cache"
	"library-hub/internal/handler"
	"library-hub/internal/model"
	"library-hub/internal/service"
	"library-hub/internal/store"
)

var (
	getUserByUsername    = store.GetUserByUsername
	getUserByID          = store.GetUserByID
	createUser           = store.CreateUser
	authenticateUser     = service.AuthenticateUser
	issueAccessToken     = service.IssueAccessToken
	issueRefreshToken    = service.IssueRefreshToken
	validateRefreshToken = service.ValidateRefreshToken
	revokeRefreshToken   = service.RevokeRefreshToken
	revokeAccessToken    = service.RevokeAccessToken
	recordLogin          = handler.RecordLogin
)

// issueTokens 產生 access 與 refresh token
func issueTokens(ctx context.Context, rdb cache.Cache, user *model.User, opts handler.Options) (api.TokenResponse, error) {
	access, err := issueAccessToken(*user, opts.AccessTTL)
	if err != nil {
		return api.TokenResponse{}, err
	}
	refresh, err := issueRefreshToken(ctx, rdb, user.ID, opts.RefreshTTL)
	if err != nil {
		return api.TokenResponse{}, err
	}
	return api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(opts.AccessTTL.Seconds()),
	}, nil
}
