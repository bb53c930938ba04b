package credit

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"darma/internal/chains"
	"darma/internal/domain"
	"darma/internal/ports"
	"darma/internal/services/classify"
	"darma/internal/services/score"
)

// ErrInvalidAddress is returned when the supplied address is not a
// 0x-prefixed 20-byte hex string.
var ErrInvalidAddress = errors.New("invalid EVM address")

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// batchWorkers bounds concurrent per-address pipelines during batch runs.
const batchWorkers = 4

// Service runs the full pipeline for one address: fetch history, classify
// protocol interactions, aggregate factors into a score. Nothing here is
// cached or persisted; every call recomputes from live explorer data.
type Service struct {
	source     ports.TransactionSource
	classifier *classify.Classifier
}

func NewService(source ports.TransactionSource, classifier *classify.Classifier) *Service {
	return &Service{source: source, classifier: classifier}
}

// ValidAddress reports whether addr is a well-formed EVM address.
func ValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// Analyze produces the complete credit profile for an address on a chain.
// Unknown chain ids fall back to mainnet. Explorer outages surface as an
// empty transaction set, never as an error, so the caller always receives
// a scored profile.
func (s *Service) Analyze(ctx context.Context, address, chainID string, bank *domain.BankVerification) (domain.CreditData, error) {
	if !ValidAddress(address) {
		return domain.CreditData{}, ErrInvalidAddress
	}
	chain := chains.Lookup(chainID)

	txs, err := s.source.FetchTransactionHistory(ctx, address, chain)
	if err != nil {
		return domain.CreditData{}, err
	}

	classified := s.classifier.Classify(txs, chain)
	result := score.Compute(score.Input{
		Address:      address,
		Transactions: txs,
		Interactions: classified.Interactions,
		Repayments:   classified.Repayments,
		Bank:         bank,
	})

	return domain.CreditData{
		Address:      address,
		ChainID:      chain.ChainID,
		ChainName:    chain.Name,
		Score:        result.Score,
		Factors:      result.Factors,
		Transactions: txs,
		Interactions: classified.Interactions,
		Repayments:   classified.Repayments,
		Timestamp:    time.Now().UnixMilli(),
	}, nil
}

// BatchItem is one address's outcome within a batch run. Err is set for
// invalid addresses; a valid address always yields Data.
type BatchItem struct {
	Address string
	Data    domain.CreditData
	Err     error
}

// AnalyzeBatch runs the pipeline for several addresses with bounded
// concurrency. Results preserve input order. One bad address does not
// abort the rest.
func (s *Service) AnalyzeBatch(ctx context.Context, addresses []string, chainID string) []BatchItem {
	items := make([]BatchItem, len(addresses))
	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup

	for i, addr := range addresses {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := s.Analyze(ctx, addr, chainID, nil)
			items[i] = BatchItem{Address: addr, Data: data, Err: err}
		}(i, addr)
	}
	wg.Wait()
	return items
}
