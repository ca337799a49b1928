package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFeeAdditivity(t *testing.T) {
	t.Parallel()

	fees := FeeSchedule{CustomizationFee: 300, CODFee: 25}

	tests := []struct {
		name             string
		subtotal         int64
		customizationFee int64
		method           PaymentMethod
		wantCOD          int64
		wantTotal        int64
	}{
		{name: "cod with customization", subtotal: 1800, customizationFee: 300, method: MethodCOD, wantCOD: 25, wantTotal: 2125},
		{name: "online with customization", subtotal: 1800, customizationFee: 300, method: MethodOnline, wantCOD: 0, wantTotal: 2100},
		{name: "cod plain", subtotal: 500, customizationFee: 0, method: MethodCOD, wantCOD: 25, wantTotal: 525},
		{name: "online plain", subtotal: 500, customizationFee: 0, method: MethodOnline, wantCOD: 0, wantTotal: 500},
		{name: "empty cart", subtotal: 0, customizationFee: 0, method: MethodOnline, wantCOD: 0, wantTotal: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := fees.Compute(tt.subtotal, tt.customizationFee, tt.method)
			assert.Equal(t, tt.wantCOD, q.CODFee)
			assert.Equal(t, tt.wantTotal, q.Total)
			// Additivity holds exactly for every method combination.
			assert.Equal(t, q.Subtotal+q.CustomizationFee+q.CODFee, q.Total)
		})
	}
}
