package credit

import (
	"context"
	"testing"

	"darma/internal/chains"
	"darma/internal/domain"
	"darma/internal/services/classify"
)

const wallet = "0x1111111111111111111111111111111111111111"

type stubSource struct {
	txs   []domain.Transaction
	calls int
}

func (s *stubSource) FetchTransactionHistory(ctx context.Context, address string, chain chains.Config) ([]domain.Transaction, error) {
	s.calls++
	return s.txs, nil
}

func TestValidAddress(t *testing.T) {
	valid := []string{wallet, "0xBBBBBbbBBb9cC5e90e3b3Af64bdAF62C37EEFFCb"}
	for _, a := range valid {
		if !ValidAddress(a) {
			t.Fatalf("%s should be valid", a)
		}
	}
	invalid := []string{"", "0x123", "1111111111111111111111111111111111111111",
		"0xZZ11111111111111111111111111111111111111", wallet + "ff"}
	for _, a := range invalid {
		if ValidAddress(a) {
			t.Fatalf("%s should be invalid", a)
		}
	}
}

func TestAnalyzeRejectsInvalidAddress(t *testing.T) {
	svc := NewService(&stubSource{}, classify.New())
	if _, err := svc.Analyze(context.Background(), "nonsense", "1", nil); err != ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestAnalyzeProducesScoredProfile(t *testing.T) {
	morpho := chains.Lookup("1").MorphoAddress
	src := &stubSource{txs: []domain.Transaction{
		{Hash: "0xaaa", From: wallet, To: morpho, Value: "1000",
			Timestamp: 1700000000, Status: domain.TxSuccess, FunctionName: "supply(uint256)"},
		{Hash: "0xbbb", From: wallet, To: morpho, Value: "0",
			Timestamp: 1700000500, Status: domain.TxSuccess, FunctionName: "repayBorrow(uint256)"},
	}}
	svc := NewService(src, classify.New())

	data, err := svc.Analyze(context.Background(), wallet, "1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.ChainID != "1" || data.ChainName != "Ethereum Mainnet" {
		t.Fatalf("unexpected chain resolution: %s/%s", data.ChainID, data.ChainName)
	}
	if data.Score < 300 || data.Score > 850 {
		t.Fatalf("score out of band: %d", data.Score)
	}
	if len(data.Factors) != 5 {
		t.Fatalf("expected 5 factors, got %d", len(data.Factors))
	}
	if len(data.Interactions) != 1 || len(data.Repayments) != 1 {
		t.Fatalf("expected one interaction and one repayment, got %d/%d",
			len(data.Interactions), len(data.Repayments))
	}
}

func TestAnalyzeUnknownChainFallsBackToMainnet(t *testing.T) {
	svc := NewService(&stubSource{}, classify.New())
	data, err := svc.Analyze(context.Background(), wallet, "999999", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.ChainID != "1" {
		t.Fatalf("expected mainnet fallback, got %s", data.ChainID)
	}
}

func TestAnalyzeBatchPreservesOrderAndIsolatesErrors(t *testing.T) {
	src := &stubSource{}
	svc := NewService(src, classify.New())

	addrs := []string{wallet, "bad-address", "0x2222222222222222222222222222222222222222"}
	items := svc.AnalyzeBatch(context.Background(), addrs, "1")

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, item := range items {
		if item.Address != addrs[i] {
			t.Fatalf("order not preserved at %d: %s", i, item.Address)
		}
	}
	if items[0].Err != nil || items[2].Err != nil {
		t.Fatalf("valid addresses must succeed: %v / %v", items[0].Err, items[2].Err)
	}
	if items[1].Err != ErrInvalidAddress {
		t.Fatalf("invalid address must report ErrInvalidAddress, got %v", items[1].Err)
	}
	if src.calls != 2 {
		t.Fatalf("only valid addresses should hit the source, got %d calls", src.calls)
	}
}
