package domain

import "time"

// Core domain models used internally and on the API surface. The JSON tags
// mirror what the dashboard already consumes.

type TxStatus string

const (
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// Transaction is the canonical transaction shape regardless of which
// explorer backend produced it. Value is a decimal string in wei.
type Transaction struct {
	Hash           string          `json:"hash"`
	From           string          `json:"from"`
	To             string          `json:"to"` // empty for contract creation
	Value          string          `json:"value"`
	Timestamp      int64           `json:"timestamp"`
	Status         TxStatus        `json:"status"`
	FunctionName   string          `json:"functionName"`
	Input          string          `json:"input,omitempty"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers,omitempty"`
}

type TokenTransfer struct {
	TokenAddress string `json:"tokenAddress"`
	Symbol       string `json:"symbol"`
	Decimals     int    `json:"decimals"`
	Value        string `json:"value"`
	From         string `json:"from"`
	To           string `json:"to"`
}

type Protocol string

const (
	ProtocolAave   Protocol = "aave"
	ProtocolMorpho Protocol = "morpho"
)

type ActionType string

const (
	ActionSupply    ActionType = "supply"
	ActionWithdraw  ActionType = "withdraw"
	ActionBorrow    ActionType = "borrow"
	ActionRepay     ActionType = "repay"
	ActionLiquidate ActionType = "liquidate"
	ActionFlashloan ActionType = "flashloan"
)

// UnknownAsset is the sentinel returned when token metadata cannot resolve
// the asset symbol. Downstream display logic relies on this exact literal.
const UnknownAsset = "Unknown"

// Interaction is a derived, read-only view over a Transaction that was sent
// to a known lending-protocol contract.
type Interaction struct {
	TxHash          string     `json:"hash"`
	Protocol        Protocol   `json:"protocol"`
	Action          ActionType `json:"type"`
	Asset           string     `json:"asset"`
	Amount          string     `json:"amount"`
	Timestamp       int64      `json:"timestamp"`
	Success         bool       `json:"success"`
	ContractAddress string     `json:"contractAddress"`
	Method          string     `json:"method"`
}

type FactorKey string

const (
	FactorOnChainHistory      FactorKey = "ON_CHAIN_HISTORY"
	FactorCollateralDiversity FactorKey = "COLLATERAL_DIVERSITY"
	FactorProtocolUsage       FactorKey = "PROTOCOL_USAGE"
	FactorFinancialHealth     FactorKey = "FINANCIAL_HEALTH"
	FactorRepaymentHistory    FactorKey = "REPAYMENT_HISTORY"
)

// Factor is one weighted scoring dimension. Score is 0-100 and never NaN.
type Factor struct {
	Key     FactorKey `json:"key"`
	Name    string    `json:"factor"`
	Score   float64   `json:"score"`
	Weight  float64   `json:"weight"`
	Metrics []string  `json:"metrics"`
}

// ScoreResult is computed fresh on every request and never persisted.
type ScoreResult struct {
	Score   int      `json:"creditScore"`
	Factors []Factor `json:"factors"`
}

// CreditData is the full pipeline output served to the dashboard.
type CreditData struct {
	Address      string        `json:"address"`
	ChainID      string        `json:"chainId"`
	ChainName    string        `json:"chainName"`
	Score        int           `json:"creditScore"`
	Factors      []Factor      `json:"factors"`
	Transactions []Transaction `json:"transactions"`
	Interactions []Interaction `json:"protocolInteractions"`
	Repayments   []Interaction `json:"repayments"`
	Timestamp    int64         `json:"timestamp"`
}

type ProofCategory string

const (
	ProofIncome      ProofCategory = "income"
	ProofBalance     ProofCategory = "balance"
	ProofTransaction ProofCategory = "transaction"
	ProofIdentity    ProofCategory = "identity"
)

// ProofRecord is one privacy proof: a commitment over the verification
// outcome plus a content-addressed storage pointer. When the storage backend
// is unreachable the CID is locally synthesized and IsRealStorage is false;
// ProofHash is re-derivable either way.
type ProofRecord struct {
	Category      ProofCategory `json:"proofType"`
	Verified      bool          `json:"verified"`
	ProofHash     string        `json:"proofHash"`
	CID           string        `json:"cid"`
	GatewayURL    string        `json:"url"`
	IsRealStorage bool          `json:"isRealStorage"`
	Algorithm     string        `json:"hashingAlgorithm"`
	Timestamp     time.Time     `json:"timestamp"`
}

// ProofSet bundles the four category proofs with the combined bundle pin.
type ProofSet struct {
	Records       []ProofRecord `json:"proofs"`
	BundleCID     string        `json:"bundleCid"`
	BundleIsReal  bool          `json:"bundleIsRealStorage"`
	GeneratedAt   time.Time     `json:"generatedAt"`
	UsingRealIPFS bool          `json:"usingRealIPFS"`
}

// Verification derives the four-boolean summary from a ProofSet.
func (s ProofSet) Verification() BankVerification {
	var v BankVerification
	for _, r := range s.Records {
		switch r.Category {
		case ProofIncome:
			v.IncomeVerified = r.Verified
		case ProofBalance:
			v.BalanceVerified = r.Verified
		case ProofTransaction:
			v.HistoryVerified = r.Verified
		case ProofIdentity:
			v.IdentityVerified = r.Verified
		}
	}
	return v
}

// BankData is externally supplied financial-account data (a Plaid-style
// payload). It never leaves the process; only verification booleans do.
type BankData struct {
	Accounts         []BankAccount  `json:"accounts"`
	IncomeStreams    []IncomeStream `json:"incomeStreams"`
	TransactionCount int            `json:"transactionCount"`
	Names            []string       `json:"names"`
}

type BankAccount struct {
	Name           string  `json:"name"`
	CurrentBalance float64 `json:"currentBalance"`
}

type IncomeStream struct {
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// TotalBalance sums the current balances across accounts.
func (b BankData) TotalBalance() float64 {
	var total float64
	for _, a := range b.Accounts {
		total += a.CurrentBalance
	}
	return total
}

// BankVerification feeds the financial-health factor. Absence of bank data
// is not an error; the factor simply contributes zero.
type BankVerification struct {
	IncomeVerified   bool    `json:"incomeVerified"`
	BalanceVerified  bool    `json:"accountBalanceVerified"`
	HistoryVerified  bool    `json:"transactionHistoryVerified"`
	IdentityVerified bool    `json:"identityVerified"`
	TotalBalance     float64 `json:"-"`
}

// PinReceipt is the storage backend's answer to a successful pin.
type PinReceipt struct {
	CID       string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}
