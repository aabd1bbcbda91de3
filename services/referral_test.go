package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferralCommissionPercent(t *testing.T) {
	tests := []struct {
		count int
		want  int64
	}{
		{0, 10},
		{4, 10},
		{5, 12},
		{14, 12},
		{15, 15},
		{29, 15},
		{30, 18},
		{49, 18},
		{50, 20},
		{200, 20},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReferralCommissionPercent(tt.count),
			"count=%d", tt.count)
	}
}

func TestCashbackPercentForVip(t *testing.T) {
	tests := []struct {
		vip  int
		want int64
	}{
		{1, 5},
		{2, 7},
		{3, 10},
		{4, 12},
		{5, 15},
		{0, 5},  // unknown levels fall back to the base rate
		{99, 5}, // unknown levels fall back to the base rate
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CashbackPercentForVip(tt.vip), "vip=%d", tt.vip)
	}
}
