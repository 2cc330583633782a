package service

import (
	"time"

	"usermgmt/internal/entity"
	"usermgmt/internal/utils"
)

type JWTSessionIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTSessionIssuer) IssueSessionToken(user entity.User) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, utils.ErrInvalidToken
	}
	return j.Manager.IssueSessionToken(user.ID, user.SecurityToken, user.RoleNames())
}

func (j JWTSessionIssuer) ParseSessionToken(token string) (SessionIdentity, error) {
	if j.Manager == nil {
		return SessionIdentity{}, utils.ErrInvalidToken
	}
	claims, err := j.Manager.ParseSessionToken(token)
	if err != nil {
		return SessionIdentity{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return SessionIdentity{}, err
	}
	return SessionIdentity{UserID: userID, SecurityToken: claims.SecurityToken}, nil
}
