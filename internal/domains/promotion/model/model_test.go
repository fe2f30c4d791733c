package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tourbook/internal/domains/promotion/model"
	"tourbook/shared/failure"
)

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name      string
		promotion model.Promotion
		total     float64
		expected  float64
	}{
		{
			name:      "percentage capped by max discount",
			promotion: model.Promotion{Code: "SAVE10", Type: model.TypePercentage, Value: 10, MaxDiscount: 50000},
			total:     1000000,
			expected:  50000,
		},
		{
			name:      "percentage below cap",
			promotion: model.Promotion{Type: model.TypePercentage, Value: 10, MaxDiscount: 50000},
			total:     300000,
			expected:  30000,
		},
		{
			name:      "percentage without cap",
			promotion: model.Promotion{Type: model.TypePercentage, Value: 25},
			total:     200000,
			expected:  50000,
		},
		{
			name:      "fixed amount",
			promotion: model.Promotion{Type: model.TypeFixed, Value: 75000},
			total:     1000000,
			expected:  75000,
		},
		{
			name:      "fixed amount larger than total",
			promotion: model.Promotion{Type: model.TypeFixed, Value: 75000},
			total:     50000,
			expected:  50000,
		},
		{
			name:      "unknown type gives no discount",
			promotion: model.Promotion{Type: "mystery", Value: 10},
			total:     100000,
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.promotion.ComputeDiscount(tt.total), 0.001)
		})
	}
}

func TestValidateForBooking(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	valid := model.Promotion{
		Active:          true,
		ValidFrom:       now.AddDate(0, -1, 0),
		ValidUntil:      now.AddDate(0, 1, 0),
		MinBookingValue: 100000,
		UsageLimit:      100,
		UsageCount:      10,
	}

	tests := []struct {
		name     string
		mutate   func(p *model.Promotion)
		total    float64
		wantErr  bool
		wantCode int
	}{
		{
			name:   "valid promotion",
			mutate: func(p *model.Promotion) {},
			total:  150000,
		},
		{
			name:     "inactive",
			mutate:   func(p *model.Promotion) { p.Active = false },
			total:    150000,
			wantErr:  true,
			wantCode: 409,
		},
		{
			name:     "not started",
			mutate:   func(p *model.Promotion) { p.ValidFrom = now.AddDate(0, 0, 1) },
			total:    150000,
			wantErr:  true,
			wantCode: 409,
		},
		{
			name:     "expired",
			mutate:   func(p *model.Promotion) { p.ValidUntil = now.AddDate(0, 0, -1) },
			total:    150000,
			wantErr:  true,
			wantCode: 409,
		},
		{
			name:     "usage limit reached",
			mutate:   func(p *model.Promotion) { p.UsageCount = p.UsageLimit },
			total:    150000,
			wantErr:  true,
			wantCode: 409,
		},
		{
			name:   "zero usage limit means unlimited",
			mutate: func(p *model.Promotion) { p.UsageLimit = 0; p.UsageCount = 9999 },
			total:  150000,
		},
		{
			name:     "total below minimum booking value",
			mutate:   func(p *model.Promotion) {},
			total:    50000,
			wantErr:  true,
			wantCode: 409,
		},
		{
			name:   "total exactly at minimum booking value",
			mutate: func(p *model.Promotion) {},
			total:  100000,
		},
		{
			name:   "zero minimum means no floor",
			mutate: func(p *model.Promotion) { p.MinBookingValue = 0 },
			total:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promo := valid
			tt.mutate(&promo)

			err := promo.ValidateForBooking(now, tt.total)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
