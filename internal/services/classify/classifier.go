package classify

import (
	"strings"

	"darma/internal/chains"
	"darma/internal/domain"
)

// Matcher describes one protocol's classification rules: which contract
// addresses it owns on a chain and how decoded function names map to action
// types. Matchers are data, so new protocols and chains slot in without
// touching the dispatch loop.
type Matcher struct {
	Protocol  domain.Protocol
	Contracts func(chain chains.Config) []string
	Rules     []Rule
}

// Rule maps function-name substrings to an action. Rules are tested in
// order; the first hit wins.
type Rule struct {
	Action     domain.ActionType
	Substrings []string
}

// Result splits classified interactions from repayments. A repay-classified
// transaction appears in Repayments only, never in Interactions.
type Result struct {
	Interactions []domain.Interaction
	Repayments   []domain.Interaction
}

type Classifier struct {
	matchers []Matcher
}

// New returns a classifier with the default Morpho and Aave matchers.
func New() *Classifier {
	return &Classifier{matchers: []Matcher{morphoMatcher(), aaveMatcher()}}
}

// NewWithMatchers builds a classifier from explicit matchers.
func NewWithMatchers(matchers ...Matcher) *Classifier {
	return &Classifier{matchers: matchers}
}

// repay is tested ahead of borrow so that methods like "repayBorrow"
// classify as repayments.
func commonRules() []Rule {
	return []Rule{
		{Action: domain.ActionRepay, Substrings: []string{"repay"}},
		{Action: domain.ActionWithdraw, Substrings: []string{"withdraw", "redeem"}},
		{Action: domain.ActionBorrow, Substrings: []string{"borrow"}},
		{Action: domain.ActionLiquidate, Substrings: []string{"liquidate"}},
	}
}

func morphoMatcher() Matcher {
	rules := append([]Rule{
		{Action: domain.ActionSupply, Substrings: []string{"supply", "deposit", "provide"}},
	}, commonRules()...)
	return Matcher{
		Protocol: domain.ProtocolMorpho,
		Contracts: func(chain chains.Config) []string {
			if !chain.HasMorpho() {
				return nil
			}
			return []string{chain.MorphoAddress}
		},
		Rules: rules,
	}
}

func aaveMatcher() Matcher {
	rules := append([]Rule{
		{Action: domain.ActionSupply, Substrings: []string{"supply", "deposit", "mint"}},
	}, commonRules()...)
	rules = append(rules, Rule{Action: domain.ActionFlashloan, Substrings: []string{"flashloan"}})
	return Matcher{
		Protocol: domain.ProtocolAave,
		Contracts: func(chain chains.Config) []string {
			out := make([]string, 0, len(chain.AaveAddresses))
			for _, addr := range chain.AaveAddresses {
				if !strings.EqualFold(addr, chains.ZeroAddress) {
					out = append(out, addr)
				}
			}
			return out
		},
		Rules: rules,
	}
}

// Classify is a pure function over its inputs: no network calls, no side
// effects. Transactions sent elsewhere, or whose function name matches no
// rule, are dropped silently.
func (c *Classifier) Classify(txs []domain.Transaction, chain chains.Config) Result {
	res := Result{
		Interactions: []domain.Interaction{},
		Repayments:   []domain.Interaction{},
	}
	for _, tx := range txs {
		if tx.To == "" || tx.FunctionName == "" {
			continue
		}
		for _, m := range c.matchers {
			contract, ok := matchContract(tx.To, m.Contracts(chain))
			if !ok {
				continue
			}
			action, ok := matchAction(tx.FunctionName, m.Rules)
			if !ok {
				continue
			}
			in := domain.Interaction{
				TxHash:          tx.Hash,
				Protocol:        m.Protocol,
				Action:          action,
				Asset:           resolveAsset(tx),
				Amount:          tx.Value,
				Timestamp:       tx.Timestamp,
				Success:         tx.Status == domain.TxSuccess,
				ContractAddress: contract,
				Method:          strings.ToLower(tx.FunctionName),
			}
			if action == domain.ActionRepay {
				res.Repayments = append(res.Repayments, in)
			} else {
				res.Interactions = append(res.Interactions, in)
			}
		}
	}
	return res
}

func matchContract(to string, contracts []string) (string, bool) {
	for _, addr := range contracts {
		if strings.EqualFold(to, addr) {
			return addr, true
		}
	}
	return "", false
}

func matchAction(functionName string, rules []Rule) (domain.ActionType, bool) {
	name := strings.ToLower(functionName)
	for _, rule := range rules {
		for _, sub := range rule.Substrings {
			if strings.Contains(name, sub) {
				return rule.Action, true
			}
		}
	}
	return "", false
}

// resolveAsset is best-effort: the first token transfer's symbol when the
// transaction carries transfer metadata, otherwise the Unknown sentinel.
func resolveAsset(tx domain.Transaction) string {
	for _, tr := range tx.TokenTransfers {
		if tr.Symbol != "" {
			return tr.Symbol
		}
	}
	return domain.UnknownAsset
}
