package service

import (
	"context"
	"encoding/json"

	"usermgmt/internal/entity"
	"usermgmt/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type auditEvent struct {
	userID    *uint
	actorID   *uint
	ipAddress *string
	action    entity.SecurityAction
	metadata  map[string]any
}

// securityAudit writes security log rows. Write failures are logged and
// never returned.
type securityAudit struct {
	store  repository.Store
	logger logrus.FieldLogger
}

func (a securityAudit) record(ctx context.Context, event auditEvent) {
	if a.store == nil {
		return
	}
	var payload datatypes.JSON
	if event.metadata != nil {
		bytes, err := json.Marshal(event.metadata)
		if err != nil {
			a.logger.WithError(err).WithField("action", event.action).Warn("audit metadata not encodable")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    event.userID,
		ActorID:   event.actorID,
		IPAddress: event.ipAddress,
		Action:    event.action,
		Metadata:  payload,
	}
	if err := a.store.SecurityLogs().Log(ctx, log); err != nil {
		a.logger.WithError(err).WithField("action", event.action).Warn("security log write failed")
	}
}

func uintPtr(value uint) *uint {
	return &value
}
