package score

import (
	"math"
	"testing"

	"darma/internal/domain"
)

const wallet = "0x1111111111111111111111111111111111111111"

func factorsAt(score float64) []domain.Factor {
	return []domain.Factor{
		{Key: domain.FactorOnChainHistory, Score: score, Weight: weightOnChainHistory},
		{Key: domain.FactorCollateralDiversity, Score: score, Weight: weightCollateralDiversity},
		{Key: domain.FactorProtocolUsage, Score: score, Weight: weightProtocolUsage},
		{Key: domain.FactorFinancialHealth, Score: score, Weight: weightFinancialHealth},
		{Key: domain.FactorRepaymentHistory, Score: score, Weight: weightRepaymentHistory},
	}
}

func TestFoldMidpoint(t *testing.T) {
	if got := fold(factorsAt(50)); got != 575 {
		t.Fatalf("five factors at 50 should fold to 575, got %d", got)
	}
}

func TestFoldBounds(t *testing.T) {
	if got := fold(factorsAt(0)); got != 300 {
		t.Fatalf("all-zero factors should fold to 300, got %d", got)
	}
	if got := fold(factorsAt(100)); got != 850 {
		t.Fatalf("all-hundred factors should fold to 850, got %d", got)
	}
}

func TestFoldNaNSafe(t *testing.T) {
	factors := factorsAt(50)
	factors[0].Score = math.NaN()
	got := fold(factors)
	if got < 300 || got > 850 {
		t.Fatalf("NaN factor must still fold inside the band, got %d", got)
	}
}

func TestComputeEmptyInput(t *testing.T) {
	res := Compute(Input{Address: wallet})

	if res.Score < 300 || res.Score > 850 {
		t.Fatalf("score out of band: %d", res.Score)
	}
	if len(res.Factors) != 5 {
		t.Fatalf("expected 5 factors, got %d", len(res.Factors))
	}
	for _, f := range res.Factors {
		if math.IsNaN(f.Score) || f.Score < 0 || f.Score > 100 {
			t.Fatalf("factor %s out of range: %v", f.Key, f.Score)
		}
	}
}

func TestOnChainHistoryEmptyFloor(t *testing.T) {
	f := onChainHistory(nil)
	if f.Score != emptyHistoryFloor {
		t.Fatalf("empty history should score the floor %v, got %v", emptyHistoryFloor, f.Score)
	}
}

func TestOnChainHistoryCountsMonths(t *testing.T) {
	txs := []domain.Transaction{
		{Value: "1000000000000000000", Timestamp: 1700000000}, // 2023-11
		{Value: "2000000000000000000", Timestamp: 1702600000}, // 2023-12
		{Value: "0", Timestamp: 1702610000},                   // same month
	}
	f := onChainHistory(txs)
	if months := activeMonths(txs); months != 2 {
		t.Fatalf("expected 2 active months, got %d", months)
	}
	// 3 tx => 0.75, 2 months => 5, 3 ETH => 9
	want := 0.75 + 5 + 9
	if math.Abs(f.Score-want) > 0.01 {
		t.Fatalf("expected score %.2f, got %.2f", want, f.Score)
	}
}

func TestEthVolumeSkipsMalformedValues(t *testing.T) {
	vol := ethVolume([]domain.Transaction{
		{Value: "1000000000000000000"},
		{Value: "not-a-number"},
		{Value: ""},
	})
	if math.Abs(vol-1) > 1e-9 {
		t.Fatalf("expected 1 ETH, got %v", vol)
	}
}

func TestCollateralDiversityFloor(t *testing.T) {
	f := collateralDiversity(wallet, nil)
	if f.Score != noCollateralFloor {
		t.Fatalf("no exposure should score the floor %v, got %v", noCollateralFloor, f.Score)
	}
}

func TestCollateralDiversityNetsFlows(t *testing.T) {
	txs := []domain.Transaction{
		{TokenTransfers: []domain.TokenTransfer{
			{Symbol: "USDC", Decimals: 6, Value: "5000000000", To: wallet},   // +5000
			{Symbol: "USDC", Decimals: 6, Value: "5000000000", From: wallet}, // -5000, nets to zero
			{Symbol: "WETH", Decimals: 18, Value: "2000000000000000000", To: wallet},
		}},
	}
	exposure := tokenExposure(wallet, txs)
	if len(exposure) != 1 {
		t.Fatalf("expected only WETH to survive netting, got %v", exposure)
	}
	if _, ok := exposure["WETH"]; !ok {
		t.Fatalf("WETH missing from exposure: %v", exposure)
	}

	f := collateralDiversity(wallet, txs)
	// 1 asset => 8, fully concentrated => 0 spread, all blue-chip => 30
	if math.Abs(f.Score-38) > 0.01 {
		t.Fatalf("expected 38, got %v", f.Score)
	}
}

func TestProtocolUsageScoring(t *testing.T) {
	interactions := []domain.Interaction{
		{Protocol: domain.ProtocolAave, Action: domain.ActionSupply},
		{Protocol: domain.ProtocolMorpho, Action: domain.ActionBorrow},
	}
	repayments := []domain.Interaction{
		{Protocol: domain.ProtocolMorpho, Action: domain.ActionRepay},
	}
	f := protocolUsage(interactions, repayments)
	// 3 interactions => 7.5, 2 protocols => 30, 3 complex => 6
	if math.Abs(f.Score-43.5) > 0.01 {
		t.Fatalf("expected 43.5, got %v", f.Score)
	}

	if empty := protocolUsage(nil, nil); empty.Score != 0 {
		t.Fatalf("no activity should score zero, got %v", empty.Score)
	}
}

func TestFinancialHealth(t *testing.T) {
	if f := financialHealth(nil); f.Score != 0 {
		t.Fatalf("nil bank data should score zero, got %v", f.Score)
	}

	full := &domain.BankVerification{
		IncomeVerified:   true,
		BalanceVerified:  true,
		HistoryVerified:  true,
		IdentityVerified: true,
		TotalBalance:     12000,
	}
	if f := financialHealth(full); f.Score != 100 {
		t.Fatalf("all checks plus top balance tier should score 100, got %v", f.Score)
	}

	partial := &domain.BankVerification{BalanceVerified: true, TotalBalance: 1500}
	if f := financialHealth(partial); f.Score != 30 {
		t.Fatalf("one check plus mid tier should score 30, got %v", f.Score)
	}
}

func TestBalanceTiers(t *testing.T) {
	cases := []struct {
		balance float64
		want    float64
	}{
		{15000, 20},
		{10000, 20},
		{7000, 15},
		{1000, 10},
		{500, 5},
		{0, 0},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := balanceTier(c.balance); got != c.want {
			t.Fatalf("balanceTier(%v) = %v, want %v", c.balance, got, c.want)
		}
	}
}

func TestRepaymentHistory(t *testing.T) {
	if f := repaymentHistory(nil, nil); f.Score != 0 {
		t.Fatalf("no loans should score zero, got %v", f.Score)
	}

	borrow := []domain.Interaction{{Action: domain.ActionBorrow}}
	repay := []domain.Interaction{{Action: domain.ActionRepay}}

	// full repayment: 60 ratio + 20 flat + 5 per repay
	if f := repaymentHistory(borrow, repay); f.Score != 85 {
		t.Fatalf("one borrow one repay should score 85, got %v", f.Score)
	}

	// open loan, never repaid: flat bonus only
	if f := repaymentHistory(borrow, nil); f.Score != 20 {
		t.Fatalf("unrepaid borrow should score 20, got %v", f.Score)
	}

	// repayments never exceed a 1.0 completion ratio
	many := []domain.Interaction{
		{Action: domain.ActionRepay}, {Action: domain.ActionRepay},
		{Action: domain.ActionRepay}, {Action: domain.ActionRepay},
		{Action: domain.ActionRepay},
	}
	if f := repaymentHistory(borrow, many); f.Score != 100 {
		t.Fatalf("capped ratio plus max bonus should score 100, got %v", f.Score)
	}
}
