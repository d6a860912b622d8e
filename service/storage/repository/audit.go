package repository

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
)

type CatalogAuditRepository interface {
	Save(ctx context.Context, audit *models.CatalogAudit) error
}

func NewCatalogAuditRepository(service *frame.Service) CatalogAuditRepository {
	auditRepo := catalogAuditRepository{
		service: service,
	}
	return &auditRepo
}

type catalogAuditRepository struct {
	service *frame.Service
}

func (ar *catalogAuditRepository) Save(ctx context.Context, audit *models.CatalogAudit) error {
	return ar.service.DB(ctx, false).Save(audit).Error
}
