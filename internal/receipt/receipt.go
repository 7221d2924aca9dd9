// Package receipt renders the customer-facing payment receipt. Pure
// formatting over a finalized transaction; printing is someone else's job.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"pos-payments/internal/domain"
)

const width = 40

// Customer-facing labels stay in Spanish; the receipt prints in a Costa
// Rican store.
var kindLabels = map[domain.PaymentKind]string{
	domain.KindCash:          "Efectivo",
	domain.KindDebitCard:     "Tarjeta de Débito",
	domain.KindCreditCard:    "Tarjeta de Crédito",
	domain.KindTransfer:      "Transferencia",
	domain.KindCheck:         "Cheque",
	domain.KindVoucher:       "Vale",
	domain.KindStoreCredit:   "Crédito de Tienda",
	domain.KindMobileMoney:   "SINPE Móvil",
	domain.KindCrypto:        "Cripto",
	domain.KindLoyaltyPoints: "Puntos",
}

// Render formats a terminal transaction as a till-roll receipt.
func Render(t *domain.Transaction, at time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(rule)
	line("         RECIBO DE PAGO")
	line(rule)
	line("Fecha: %s", at.Format("02/01/2006 15:04"))
	line("ID Transacción: %s", t.ID)
	line(thin)
	line("Total Venta:      %12s", t.SaleTotal)
	line("")
	line("FORMAS DE PAGO:")

	for i, pl := range t.Lines {
		line("%d. %s", i+1, kindLabel(pl.Kind))
		line("   Monto:         %12s", pl.Amount)
		if pl.Reference != "" {
			line("   Referencia:    %s", pl.Reference)
		}
		if pl.AuthCode != "" {
			line("   Autorización:  %s", pl.AuthCode)
		}
		if pl.CardLast4 != "" {
			line("   Tarjeta:       ****%s", pl.CardLast4)
		}
		line("")
	}

	line(thin)
	line("Total Pagado:     %12s", t.TotalPaid)
	if t.Change > 0 {
		line("Cambio:           %12s", t.Change)
	}
	line(rule)
	line("   ¡GRACIAS POR SU COMPRA!")
	line(rule)

	return b.String()
}

func kindLabel(k domain.PaymentKind) string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}
