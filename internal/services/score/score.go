package score

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"darma/internal/domain"
)

// Canonical factor weights. They sum to 1.0; with the 300 + wa*5.5 fold this
// pins the score to [300, 850].
const (
	weightOnChainHistory      = 0.25
	weightCollateralDiversity = 0.20
	weightProtocolUsage       = 0.15
	weightFinancialHealth     = 0.25
	weightRepaymentHistory    = 0.15
)

// Documented floors for degenerate inputs. An empty history is scored low,
// not zero, to keep the factor continuous around "first transaction".
const (
	emptyHistoryFloor = 5.0
	noCollateralFloor = 10.0
	minScore          = 300
	maxScore          = 850
)

var blueChipAssets = map[string]bool{
	"ETH":  true,
	"WETH": true,
	"WBTC": true,
	"USDC": true,
	"USDT": true,
	"DAI":  true,
}

var weiPerEth = decimal.New(1, 18)

// Input carries everything the aggregator needs. Bank is optional; nil
// means the financial-health factor contributes zero.
type Input struct {
	Address      string
	Transactions []domain.Transaction
	Interactions []domain.Interaction
	Repayments   []domain.Interaction
	Bank         *domain.BankVerification
}

// Compute folds the five factor scores into a single bounded credit score.
// Every intermediate value is sanitized; the result is never NaN-tainted.
func Compute(in Input) domain.ScoreResult {
	factors := []domain.Factor{
		onChainHistory(in.Transactions),
		collateralDiversity(in.Address, in.Transactions),
		protocolUsage(in.Interactions, in.Repayments),
		financialHealth(in.Bank),
		repaymentHistory(in.Interactions, in.Repayments),
	}

	return domain.ScoreResult{Score: fold(factors), Factors: factors}
}

// fold maps the weighted factor average onto the 300-850 band.
func fold(factors []domain.Factor) int {
	var weighted float64
	for _, f := range factors {
		weighted += f.Score * f.Weight
	}
	weighted = sanitize(weighted, 0)

	score := int(math.Round(300 + weighted*5.5))
	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

// onChainHistory combines transaction count (up to 40 points, one point per
// four transactions), distinct active months (up to 30) and ETH volume
// (up to 30).
func onChainHistory(txs []domain.Transaction) domain.Factor {
	f := domain.Factor{
		Key:    domain.FactorOnChainHistory,
		Name:   "On-Chain History",
		Weight: weightOnChainHistory,
	}
	if len(txs) == 0 {
		f.Score = emptyHistoryFloor
		f.Metrics = []string{"0 transactions", "0 months active", "0 ETH volume"}
		return f
	}

	count := float64(len(txs))
	months := activeMonths(txs)
	volume := ethVolume(txs)

	countScore := math.Min(40, count/4)
	monthScore := math.Min(30, float64(months)*2.5)
	volumeScore := math.Min(30, volume*3)

	f.Score = clamp01Hundred(countScore + monthScore + volumeScore)
	f.Metrics = []string{
		fmt.Sprintf("%d transactions", len(txs)),
		fmt.Sprintf("%d months active", months),
		fmt.Sprintf("%.2f ETH volume", volume),
	}
	return f
}

// activeMonths counts distinct calendar months with at least one
// transaction.
func activeMonths(txs []domain.Transaction) int {
	seen := map[string]bool{}
	for _, tx := range txs {
		if tx.Timestamp <= 0 {
			continue
		}
		t := time.Unix(tx.Timestamp, 0).UTC()
		seen[fmt.Sprintf("%d-%02d", t.Year(), t.Month())] = true
	}
	return len(seen)
}

// ethVolume sums transaction values. Wei strings are parsed with decimal
// arithmetic; malformed values count as zero rather than poisoning the sum.
func ethVolume(txs []domain.Transaction) float64 {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Value == "" {
			continue
		}
		wei, err := decimal.NewFromString(tx.Value)
		if err != nil {
			continue
		}
		total = total.Add(wei)
	}
	vol, _ := total.Div(weiPerEth).Float64()
	return sanitize(vol, 0)
}

// collateralDiversity approximates portfolio spread from token-transfer
// flows in the fetched history: asset count, inverse concentration and the
// share held in blue-chip assets. No token exposure scores the documented
// floor, not zero.
func collateralDiversity(address string, txs []domain.Transaction) domain.Factor {
	f := domain.Factor{
		Key:    domain.FactorCollateralDiversity,
		Name:   "Collateral Diversity",
		Weight: weightCollateralDiversity,
	}

	exposure := tokenExposure(address, txs)
	if len(exposure) == 0 {
		f.Score = noCollateralFloor
		f.Metrics = []string{"0 assets", "No token exposure found"}
		return f
	}

	total := decimal.Zero
	maxShare := decimal.Zero
	blueChip := decimal.Zero
	for symbol, amount := range exposure {
		total = total.Add(amount)
		if amount.GreaterThan(maxShare) {
			maxShare = amount
		}
		if blueChipAssets[symbol] {
			blueChip = blueChip.Add(amount)
		}
	}
	if total.IsZero() {
		f.Score = noCollateralFloor
		f.Metrics = []string{fmt.Sprintf("%d assets", len(exposure)), "No net token exposure"}
		return f
	}

	concentration, _ := maxShare.Div(total).Float64()
	blueShare, _ := blueChip.Div(total).Float64()
	concentration = sanitize(concentration, 1)
	blueShare = sanitize(blueShare, 0)

	countScore := math.Min(40, float64(len(exposure))*8)
	spreadScore := (1 - concentration) * 30
	blueScore := blueShare * 30

	f.Score = clamp01Hundred(countScore + spreadScore + blueScore)
	f.Metrics = []string{
		fmt.Sprintf("%d assets", len(exposure)),
		fmt.Sprintf("%.0f%% largest position", concentration*100),
		fmt.Sprintf("%.0f%% blue-chip", blueShare*100),
	}
	return f
}

// tokenExposure nets inbound against outbound transfer volume per symbol,
// normalized by token decimals. Only positive net positions count.
func tokenExposure(address string, txs []domain.Transaction) map[string]decimal.Decimal {
	net := map[string]decimal.Decimal{}
	for _, tx := range txs {
		for _, tr := range tx.TokenTransfers {
			if tr.Symbol == "" {
				continue
			}
			amount, err := decimal.NewFromString(tr.Value)
			if err != nil {
				continue
			}
			if tr.Decimals > 0 {
				amount = amount.Div(decimal.New(1, int32(tr.Decimals)))
			}
			switch {
			case strings.EqualFold(tr.To, address):
				net[tr.Symbol] = net[tr.Symbol].Add(amount)
			case strings.EqualFold(tr.From, address):
				net[tr.Symbol] = net[tr.Symbol].Sub(amount)
			}
		}
	}
	for symbol, amount := range net {
		if !amount.IsPositive() {
			delete(net, symbol)
		}
	}
	return net
}

// protocolUsage rewards raw interaction count, distinct protocols touched
// and "complex" action types.
func protocolUsage(interactions, repayments []domain.Interaction) domain.Factor {
	f := domain.Factor{
		Key:    domain.FactorProtocolUsage,
		Name:   "Lending Protocol Usage",
		Weight: weightProtocolUsage,
	}
	all := make([]domain.Interaction, 0, len(interactions)+len(repayments))
	all = append(all, interactions...)
	all = append(all, repayments...)
	if len(all) == 0 {
		f.Score = 0
		f.Metrics = []string{"0 interactions", "No lending activity"}
		return f
	}

	protocols := map[domain.Protocol]bool{}
	complexActions := 0
	for _, in := range all {
		protocols[in.Protocol] = true
		switch in.Action {
		case domain.ActionSupply, domain.ActionWithdraw, domain.ActionBorrow, domain.ActionRepay:
			complexActions++
		}
	}

	countScore := math.Min(50, float64(len(all))*2.5)
	spreadScore := math.Min(30, float64(len(protocols))*15)
	complexScore := math.Min(20, float64(complexActions)*2)

	f.Score = clamp01Hundred(countScore + spreadScore + complexScore)
	f.Metrics = []string{
		fmt.Sprintf("%d interactions", len(all)),
		fmt.Sprintf("%d protocols", len(protocols)),
	}
	return f
}

// financialHealth is derived entirely from the external bank verification:
// twenty points per verified category plus a balance-tier component. Absent
// bank data contributes exactly zero.
func financialHealth(bank *domain.BankVerification) domain.Factor {
	f := domain.Factor{
		Key:    domain.FactorFinancialHealth,
		Name:   "Financial Health",
		Weight: weightFinancialHealth,
	}
	if bank == nil {
		f.Score = 0
		f.Metrics = []string{"No bank data", "Connect to unlock"}
		return f
	}

	var score float64
	verified := 0
	for _, ok := range []bool{bank.IncomeVerified, bank.BalanceVerified, bank.HistoryVerified, bank.IdentityVerified} {
		if ok {
			score += 20
			verified++
		}
	}
	score += balanceTier(bank.TotalBalance)

	f.Score = clamp01Hundred(score)
	f.Metrics = []string{
		"Bank data connected",
		fmt.Sprintf("%d/4 checks verified", verified),
	}
	return f
}

func balanceTier(balance float64) float64 {
	balance = sanitize(balance, 0)
	switch {
	case balance >= 10000:
		return 20
	case balance >= 5000:
		return 15
	case balance >= 1000:
		return 10
	case balance > 0:
		return 5
	default:
		return 0
	}
}

// repaymentHistory scores the repay-to-borrow completion ratio, with flat
// bonuses once any loan relationship exists at all.
func repaymentHistory(interactions, repayments []domain.Interaction) domain.Factor {
	f := domain.Factor{
		Key:    domain.FactorRepaymentHistory,
		Name:   "Repayment History",
		Weight: weightRepaymentHistory,
	}

	borrows := 0
	for _, in := range interactions {
		if in.Action == domain.ActionBorrow {
			borrows++
		}
	}
	repays := len(repayments)

	if borrows == 0 && repays == 0 {
		f.Score = 0
		f.Metrics = []string{"0 loans", "0 repayments"}
		return f
	}

	ratio := float64(repays) / math.Max(float64(borrows), 1)
	ratio = math.Min(sanitize(ratio, 0), 1)

	// flat bonus for having any loan relationship at all
	score := ratio*60 + 20
	score += math.Min(20, float64(repays)*5)

	f.Score = clamp01Hundred(score)
	f.Metrics = []string{
		fmt.Sprintf("%d loans", borrows),
		fmt.Sprintf("%d repayments", repays),
	}
	return f
}

// sanitize replaces NaN and infinities with a documented safe default so a
// malformed input can never taint the final score.
func sanitize(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

func clamp01Hundred(v float64) float64 {
	v = sanitize(v, 0)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
