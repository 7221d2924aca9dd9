package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pos-payments/internal/domain"
)

func TestRender(t *testing.T) {
	completed := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)
	tx := domain.NewTransaction("9f1c2a", domain.Colones(11500), []domain.PaymentLine{
		{
			Kind:   domain.KindCash,
			Amount: domain.Colones(6000),
			State:  domain.LineApproved,
		},
		{
			Kind:      domain.KindCreditCard,
			Amount:    domain.Colones(6500),
			CardLast4: "6467",
			AuthCode:  "AUTH-42",
			State:     domain.LineApproved,
		},
	})
	tx.Recalculate()

	out := Render(tx, completed)

	assert.Contains(t, out, "RECIBO DE PAGO")
	assert.Contains(t, out, "10/03/2025 14:30")
	assert.Contains(t, out, "ID Transacción: 9f1c2a")
	assert.Contains(t, out, "Total Venta:")
	assert.Contains(t, out, "₡11,500.00")
	assert.Contains(t, out, "1. Efectivo")
	assert.Contains(t, out, "2. Tarjeta de Crédito")
	assert.Contains(t, out, "****6467")
	assert.Contains(t, out, "Autorización:  AUTH-42")
	assert.Contains(t, out, "Total Pagado:")
	assert.Contains(t, out, "₡12,500.00")
	assert.Contains(t, out, "Cambio:")
	assert.Contains(t, out, "₡1,000.00")
	assert.Contains(t, out, "¡GRACIAS POR SU COMPRA!")
}

func TestRender_OmitsChangeWhenExact(t *testing.T) {
	tx := domain.NewTransaction("t1", domain.Colones(100), []domain.PaymentLine{
		{Kind: domain.KindMobileMoney, Amount: domain.Colones(100), Reference: "88881234", State: domain.LineApproved},
	})
	tx.Recalculate()

	out := Render(tx, time.Now())
	assert.NotContains(t, out, "Cambio:")
	assert.Contains(t, out, "SINPE Móvil")
	assert.Contains(t, out, "Referencia:    88881234")
}
