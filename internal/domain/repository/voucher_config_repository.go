package repository

import (
	"context"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
)

// VoucherConfigRepository acceso a la configuración fiscal del contribuyente.
type VoucherConfigRepository interface {
	GetByID(ctx context.Context, id string) (*entity.VoucherConfig, error)
	// GetFirst devuelve la primera configuración disponible (nil, nil si no hay).
	GetFirst(ctx context.Context) (*entity.VoucherConfig, error)
	// GetForUpdate toma el lock de fila (SELECT ... FOR UPDATE) sobre la
	// configuración. Con id vacío toma la primera. Debe invocarse dentro de
	// una transacción: el lock serializa la asignación de secuencias entre
	// emisores concurrentes.
	GetForUpdate(ctx context.Context, id string) (*entity.VoucherConfig, error)
	// UpdateSequence persiste el nuevo valor del contador secuencia_siguiente.
	UpdateSequence(ctx context.Context, id string, next int64) error
}
