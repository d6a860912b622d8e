package events

import (
	"context"
	"errors"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/storage/repository"
)

type CatalogAuditSaveEvent struct {
	Service         *frame.Service
	AuditRepository repository.CatalogAuditRepository
}

func (cas *CatalogAuditSaveEvent) Name() string {
	return "catalog.audit.save.event"
}

func (cas *CatalogAuditSaveEvent) PayloadType() any {
	return models.CatalogAudit{}
}

func (cas *CatalogAuditSaveEvent) Validate(_ context.Context, payload any) error {
	if _, ok := payload.(*models.CatalogAudit); !ok {
		return errors.New(" payload is not of type Catalog Audit")
	}

	return nil
}

func (cas *CatalogAuditSaveEvent) Execute(ctx context.Context, payload any) error {
	audit := payload.(*models.CatalogAudit)

	logger := cas.Service.Log(ctx).WithField("payload", audit).
		WithField("type", cas.Name())
	logger.Debug("handling catalog audit save event")

	return cas.AuditRepository.Save(ctx, audit)
}

func NewAuditSaveHandler(service *frame.Service) frame.EventI {
	auditRepository := repository.NewCatalogAuditRepository(service)
	return &CatalogAuditSaveEvent{service, auditRepository}
}
