package services

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"aurex/database"
	"aurex/helpers"
	"aurex/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB connects to the Postgres instance named by TEST_DATABASE_URL and
// resets the schema; tests are skipped when no database is available.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping storage tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	require.NoError(t, db.Exec(
		`TRUNCATE accounts, account_balances, transactions, game_sessions,
		 bonus_activations, cashback_records RESTART IDENTITY CASCADE`).Error)
	return db
}

func registerTestAccount(t *testing.T, db *gorm.DB, code string) *models.Account {
	t.Helper()
	account, err := RegisterAccount(db, RegisterParams{
		UserCode:    code,
		DisplayName: "Test " + code,
		Currency:    "RUB",
	})
	require.NoError(t, err)
	return account
}

func TestRegisterAccountWelcomePackage(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "player1")

	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)), "balance = %s", balance)
	assert.True(t, account.BonusBalance.Equal(decimal.NewFromInt(500)),
		"bonus = %s", account.BonusBalance)
	assert.NotEmpty(t, account.ReferralCode)

	// every supported currency has a zero row
	balances, err := AllBalances(db, account.ID)
	require.NoError(t, err)
	assert.Len(t, balances, len(models.SupportedCurrencies))

	_, err = RegisterAccount(db, RegisterParams{UserCode: "player1"})
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestRegisterAccountLinksReferrer(t *testing.T) {
	db := testDB(t)

	referrer := registerTestAccount(t, db, "referrer")
	referred, err := RegisterAccount(db, RegisterParams{
		UserCode:     "referred",
		Currency:     "RUB",
		ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrer.ID, *referred.ReferredBy)

	fresh, err := GetAccount(db, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.ReferralCount)
}

func TestProcessBetDebitsAndIsIdempotent(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "bettor")
	session, _, err := AuthenticateSession(db, account.UserCode, "game-1", "RUB")
	require.NoError(t, err)

	result, err := ProcessBet(db, session.SessionID, decimal.NewFromInt(100), "round-1", "bet-1")
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(900)), "balance = %s", result.Balance)

	// duplicate callback answers the original balance without a second debit
	replay, err := ProcessBet(db, session.SessionID, decimal.NewFromInt(100), "round-1", "bet-1")
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.True(t, replay.Balance.Equal(decimal.NewFromInt(900)))

	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(900)), "balance = %s", balance)
}

func TestProcessBetInsufficientFunds(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "broke")
	session, _, err := AuthenticateSession(db, account.UserCode, "game-1", "RUB")
	require.NoError(t, err)

	_, err = ProcessBet(db, session.SessionID, decimal.NewFromInt(5000), "round-1", "bet-1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))
}

func TestProcessCancelBetRestoresBalance(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "canceller")
	session, _, err := AuthenticateSession(db, account.UserCode, "game-1", "RUB")
	require.NoError(t, err)

	_, err = ProcessBet(db, session.SessionID, decimal.NewFromInt(250), "round-1", "bet-1")
	require.NoError(t, err)

	result, err := ProcessCancelBet(db, session.SessionID, "bet-1")
	require.NoError(t, err)
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(1000)), "balance = %s", result.Balance)

	_, err = ProcessCancelBet(db, session.SessionID, "bet-1")
	assert.ErrorIs(t, err, ErrAlreadyReversed)

	_, err = ProcessCancelBet(db, session.SessionID, "no-such-bet")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestWagerClearsAndConvertsBonus(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "wagerer")
	expiry := time.Now().AddDate(0, 0, 7)
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"wager_active":     true,
			"wager_required":   decimal.NewFromInt(100),
			"wager_completed":  decimal.Zero,
			"wager_expires_at": expiry,
		}).Error)

	session, _, err := AuthenticateSession(db, account.UserCode, "game-1", "RUB")
	require.NoError(t, err)

	_, err = ProcessBet(db, session.SessionID, decimal.NewFromInt(100), "round-1", "bet-1")
	require.NoError(t, err)

	fresh, err := GetAccount(db, account.ID)
	require.NoError(t, err)
	assert.False(t, fresh.WagerActive)
	assert.True(t, fresh.BonusBalance.IsZero(), "bonus = %s", fresh.BonusBalance)

	// 1000 - 100 bet + 500 converted welcome bonus
	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1400)), "balance = %s", balance)
}

func TestCheckWagerExpiryForfeitsBonus(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "expired")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"wager_active":     true,
			"wager_required":   decimal.NewFromInt(100000),
			"wager_expires_at": past,
		}).Error)

	require.NoError(t, CheckWagerExpiry(db, account.ID, time.Now()))

	fresh, err := GetAccount(db, account.ID)
	require.NoError(t, err)
	assert.False(t, fresh.WagerActive)
	assert.True(t, fresh.BonusBalance.IsZero())
	assert.True(t, fresh.WagerRequired.IsZero())
}

func TestBonusEligibilityOrdering(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "claimant")
	now := time.Now()

	// fresh account qualifies for the first tier only
	require.NoError(t, CheckEligibility(db, account, "first-deposit", now))

	var ne *NotEligibleError
	err := CheckEligibility(db, account, "second-deposit", now)
	require.ErrorAs(t, err, &ne)

	err = CheckEligibility(db, account, "high-roller", now)
	require.ErrorAs(t, err, &ne)

	err = CheckEligibility(db, account, "no-such-bonus", now)
	assert.ErrorIs(t, err, ErrBonusNotFound)

	// activating one blocks every other bonus
	_, err = ActivateBonus(db, account, "first-deposit", now)
	require.NoError(t, err)
	err = CheckEligibility(db, account, "crypto-first", now)
	require.ErrorAs(t, err, &ne)
	assert.Contains(t, ne.Reason, "already active")
}

func TestActivateBonusRejectsSecondActivation(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "doubleclaim")
	now := time.Now()

	_, err := ActivateBonus(db, account, "first-deposit", now)
	require.NoError(t, err)

	var ne *NotEligibleError
	_, err = ActivateBonus(db, account, "crypto-first", now)
	require.ErrorAs(t, err, &ne)
	assert.Contains(t, ne.Reason, "already active")

	var activeCount int64
	require.NoError(t, db.Model(&models.BonusActivation{}).
		Where("account_id = ? AND status = ?", account.ID, models.BonusStatusActive).
		Count(&activeCount).Error)
	assert.Equal(t, int64(1), activeCount)
}

type fakeProcessor struct {
	failPayout    bool
	invoiceStatus string
}

func (f *fakeProcessor) CreateInvoice(orderID string, amount decimal.Decimal, currency string) (string, string, error) {
	return "inv-" + orderID, "https://pay.example/" + orderID, nil
}

func (f *fakeProcessor) CreatePayout(orderID string, amount decimal.Decimal, currency, destination string) (string, error) {
	if f.failPayout {
		return "", errors.New("processor unavailable")
	}
	return "po-" + orderID, nil
}

func (f *fakeProcessor) InvoiceStatus(orderID string) (string, error) {
	if f.invoiceStatus == "" {
		return "pending", nil
	}
	return f.invoiceStatus, nil
}

func depositCallback(orderID string, amount int64, secret string) (map[string]string, string) {
	payload := map[string]string{
		"orderId":  orderID,
		"status":   "success",
		"amount":   fmt.Sprintf("%d", amount),
		"currency": "RUB",
	}
	return payload, helpers.SignPayload(payload, secret)
}

func TestDepositSettlementWithActiveBonus(t *testing.T) {
	db := testDB(t)
	Processor = &fakeProcessor{}
	secret := "cb-secret"

	account := registerTestAccount(t, db, "depositor")
	_, err := ActivateBonus(db, account, "first-deposit", time.Now())
	require.NoError(t, err)

	result, err := CreateDeposit(db, account.ID, decimal.NewFromInt(1000), "RUB", "card")
	require.NoError(t, err)
	assert.NotEmpty(t, result.PaymentURL)

	payload, sig := depositCallback(result.OrderID, 1000, secret)
	require.NoError(t, HandleDepositCallback(db, payload, sig, secret))

	fresh, err := GetAccount(db, account.ID)
	require.NoError(t, err)

	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2000)), "balance = %s", balance)

	// 500 welcome + 2000 first-deposit bonus
	assert.True(t, fresh.BonusBalance.Equal(decimal.NewFromInt(2500)),
		"bonus = %s", fresh.BonusBalance)
	assert.True(t, fresh.WagerRequired.Equal(decimal.NewFromInt(105000)),
		"wager = %s", fresh.WagerRequired)
	assert.True(t, fresh.WagerActive)
	assert.Equal(t, 1, fresh.DepositCount)
	assert.True(t, fresh.UsedFirstDeposit)

	// replayed webhook must not credit twice
	require.NoError(t, HandleDepositCallback(db, payload, sig, secret))
	balance, err = GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2000)))
}

func TestDepositCallbackRejectsBadSignature(t *testing.T) {
	db := testDB(t)
	Processor = &fakeProcessor{}

	account := registerTestAccount(t, db, "signcheck")
	result, err := CreateDeposit(db, account.ID, decimal.NewFromInt(1000), "RUB", "card")
	require.NoError(t, err)

	payload, _ := depositCallback(result.OrderID, 1000, "right-secret")
	err = HandleDepositCallback(db, payload, "bogus", "right-secret")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))
}

func TestWithdrawalCapAndPayoutRollback(t *testing.T) {
	db := testDB(t)
	Processor = &fakeProcessor{}
	secret := "cb-secret"

	account := registerTestAccount(t, db, "withdrawer")

	// no completed deposits yet, so any withdrawal exceeds the 2x cap
	_, err := CreateWithdrawal(db, account.ID, decimal.NewFromInt(500), "RUB", "4111111111111111")
	assert.ErrorIs(t, err, ErrWithdrawalExceedsDepositCap)

	dep, err := CreateDeposit(db, account.ID, decimal.NewFromInt(1000), "RUB", "card")
	require.NoError(t, err)
	payload, sig := depositCallback(dep.OrderID, 1000, secret)
	require.NoError(t, HandleDepositCallback(db, payload, sig, secret))

	// payout creation failure must re-credit the held funds
	Processor = &fakeProcessor{failPayout: true}
	_, err = CreateWithdrawal(db, account.ID, decimal.NewFromInt(800), "RUB", "4111111111111111")
	require.Error(t, err)

	balance, err := GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2000)), "balance = %s", balance)

	// a working processor holds the funds until the webhook lands
	Processor = &fakeProcessor{}
	wd, err := CreateWithdrawal(db, account.ID, decimal.NewFromInt(800), "RUB", "4111111111111111")
	require.NoError(t, err)

	balance, err = GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1200)), "balance = %s", balance)

	failPayload := map[string]string{"orderId": wd.OrderID, "status": "failed"}
	failSig := helpers.SignPayload(failPayload, secret)
	require.NoError(t, HandleWithdrawalCallback(db, failPayload, failSig, secret))

	balance, err = GetRealBalance(db, account.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2000)), "balance = %s", balance)

	row, err := FindByExternalRef(db, wd.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusFailed, row.Status)
}

func TestReferredDepositPaysCommission(t *testing.T) {
	db := testDB(t)
	Processor = &fakeProcessor{}
	secret := "cb-secret"

	referrer := registerTestAccount(t, db, "affiliate")
	referred, err := RegisterAccount(db, RegisterParams{
		UserCode:     "recruit",
		Currency:     "RUB",
		ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)

	// six prior referrals put the affiliate in the 12% tier
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", referrer.ID).
		Update("referral_count", 6).Error)

	dep, err := CreateDeposit(db, referred.ID, decimal.NewFromInt(10000), "RUB", "card")
	require.NoError(t, err)
	payload, sig := depositCallback(dep.OrderID, 10000, secret)
	require.NoError(t, HandleDepositCallback(db, payload, sig, secret))

	// 12% of 10000 on top of the 1000 welcome credit
	balance, err := GetRealBalance(db, referrer.ID, "RUB")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(2200)), "balance = %s", balance)

	fresh, err := GetAccount(db, referrer.ID)
	require.NoError(t, err)
	assert.True(t, fresh.ReferralEarnings.Equal(decimal.NewFromInt(1200)),
		"earnings = %s", fresh.ReferralEarnings)

	// the commission is logged on the referrer's ledger
	rows, err := AccountTransactions(db, referrer.ID, models.TxTypeBonus, 10, 0)
	require.NoError(t, err)
	found := false
	for _, row := range rows {
		if row.Description == "Referral commission" {
			found = true
			assert.True(t, row.Amount.Equal(decimal.NewFromInt(1200)))
		}
	}
	assert.True(t, found, "commission transaction missing")
}

func TestClaimCashbackStacksWager(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "vip")
	require.NoError(t, AccrueCashback(db, account, decimal.NewFromInt(1000), "session"))

	_, total, err := PendingCashback(db, account.ID)
	require.NoError(t, err)
	// VIP 1 -> 5% of the 1000 loss
	assert.True(t, total.Equal(decimal.NewFromInt(50)), "total = %s", total)

	claimed, wagerAdded, err := ClaimCashback(db, account.ID)
	require.NoError(t, err)
	assert.True(t, claimed.Equal(decimal.NewFromInt(50)))
	assert.True(t, wagerAdded.Equal(decimal.NewFromInt(250)), "wager = %s", wagerAdded)

	fresh, err := GetAccount(db, account.ID)
	require.NoError(t, err)
	assert.True(t, fresh.WagerActive)
	// 500 welcome + 50 claimed
	assert.True(t, fresh.BonusBalance.Equal(decimal.NewFromInt(550)))

	_, _, err = ClaimCashback(db, account.ID)
	assert.ErrorIs(t, err, ErrBonusNotFound)
}

func TestEndSessionAccruesCashbackOnNetLoss(t *testing.T) {
	db := testDB(t)

	account := registerTestAccount(t, db, "loser")
	session, _, err := AuthenticateSession(db, account.UserCode, "game-1", "RUB")
	require.NoError(t, err)

	_, err = ProcessBet(db, session.SessionID, decimal.NewFromInt(400), "round-1", "bet-1")
	require.NoError(t, err)
	_, err = ProcessWin(db, session.SessionID, decimal.NewFromInt(100), "round-1", "win-1")
	require.NoError(t, err)

	require.NoError(t, EndSession(db, session.SessionID))

	_, total, err := PendingCashback(db, account.ID)
	require.NoError(t, err)
	// 5% of the 300 net loss
	assert.True(t, total.Equal(decimal.NewFromInt(15)), "total = %s", total)

	// session is closed, further callbacks are rejected
	_, err = ProcessBet(db, session.SessionID, decimal.NewFromInt(10), "round-2", "bet-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
