package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain"
)

// ReportUseCase genera la tarjeta de kardex (PDF) de un producto con su saldo corrido.
type ReportUseCase struct {
	queries  *InventoryUseCase
	renderer KardexRenderer
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(queries *InventoryUseCase, renderer KardexRenderer) *ReportUseCase {
	return &ReportUseCase{queries: queries, renderer: renderer}
}

// KardexPDF devuelve los bytes del PDF y el nombre de archivo sugerido.
func (uc *ReportUseCase) KardexPDF(ctx context.Context, productID string) ([]byte, string, error) {
	product, err := uc.queries.mustProduct(ctx, productID)
	if err != nil {
		return nil, "", err
	}
	movs, err := uc.queries.movRepo.ListAllByProduct(ctx, productID)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: obtener movimientos: %w", err)
	}
	balance, err := uc.queries.GetBalance(ctx, productID)
	if err != nil {
		return nil, "", err
	}
	if balance == nil {
		return nil, "", domain.ErrNotFound
	}
	pdfBytes, err := uc.renderer.RenderKardex(ctx, product, movs, *balance)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: generación fallida: %w", err)
	}
	filename := fmt.Sprintf("kardex_%s_%s.pdf", product.SKU, time.Now().Format("20060102"))
	return pdfBytes, filename, nil
}
