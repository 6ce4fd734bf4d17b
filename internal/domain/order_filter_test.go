package domain_test

import (
	"testing"
	"time"

	"github.com/nikolayk812/fulfillment/internal/domain"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestOrderFilter_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		filter    domain.OrderFilter
		wantError string
	}{
		{
			name: "empty filter",
		},
		{
			name: "all fields",
			filter: domain.OrderFilter{
				Statuses:  []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusCanceled},
				CreatedAt: &domain.TimeRange{After: lo.ToPtr(now.Add(-time.Hour)), Before: lo.ToPtr(now)},
			},
		},
		{
			name:      "unknown status",
			filter:    domain.OrderFilter{Statuses: []domain.OrderStatus{"SHIPPED"}},
			wantError: "status[SHIPPED]: invalid order status",
		},
		{
			name:      "empty time range",
			filter:    domain.OrderFilter{CreatedAt: &domain.TimeRange{}},
			wantError: "createdAt: both Before and After are nil",
		},
		{
			name: "inverted time range",
			filter: domain.OrderFilter{
				CreatedAt: &domain.TimeRange{After: lo.ToPtr(now), Before: lo.ToPtr(now.Add(-time.Hour))},
			},
			wantError: "createdAt: Before is earlier than After",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantError)
		})
	}
}
