package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBonus(t *testing.T) {
	tests := []struct {
		name      string
		bonusID   string
		deposit   int64
		wantBonus int64
		wantWager int64
	}{
		{
			name:    "first deposit 200 percent",
			bonusID: "first-deposit", deposit: 1000,
			wantBonus: 2000, wantWager: 105000, // (1000+2000)*35
		},
		{
			name:    "first deposit hits the cap",
			bonusID: "first-deposit", deposit: 100000,
			wantBonus: 50000, wantWager: 5250000,
		},
		{
			name:    "second deposit 150 percent",
			bonusID: "second-deposit", deposit: 2000,
			wantBonus: 3000, wantWager: 175000,
		},
		{
			name:    "fourth deposit 75 percent lower wagering",
			bonusID: "fourth-deposit", deposit: 1000,
			wantBonus: 750, wantWager: 52500, // (1000+750)*30
		},
		{
			name:    "crypto bonus is uncapped",
			bonusID: "crypto-first", deposit: 1000000,
			wantBonus: 500000, wantWager: 45000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := BonusCatalogue[tt.bonusID]
			require.True(t, ok)

			bonus, wager := ComputeBonus(cfg, decimal.NewFromInt(tt.deposit))
			assert.True(t, bonus.Equal(decimal.NewFromInt(tt.wantBonus)),
				"bonus = %s, want %d", bonus, tt.wantBonus)
			assert.True(t, wager.Equal(decimal.NewFromInt(tt.wantWager)),
				"wager = %s, want %d", wager, tt.wantWager)
		})
	}
}

func TestComputeBonusRoundsToWholeUnits(t *testing.T) {
	cfg := BonusCatalogue["reload-monday"] // 30%
	bonus, _ := ComputeBonus(cfg, decimal.NewFromInt(333))
	// 333 * 0.30 = 99.9, rounded to 100
	assert.True(t, bonus.Equal(decimal.NewFromInt(100)), "bonus = %s", bonus)
}

func TestBonusCatalogueDepositTiersAreSequential(t *testing.T) {
	for i, id := range depositTierOrder {
		cfg, ok := BonusCatalogue[id]
		require.True(t, ok, "missing tier %s", id)
		assert.Equal(t, i+1, cfg.DepositNumber)
		assert.Equal(t, BonusTypeDeposit, cfg.Type)
	}
}
