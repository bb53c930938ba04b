package proofs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"darma/internal/domain"
)

type stubPinner struct {
	enabled bool
	fail    bool
	pinned  []string
}

func (p *stubPinner) Enabled() bool { return p.enabled }

func (p *stubPinner) PinJSON(ctx context.Context, name string, content any) (domain.PinReceipt, error) {
	if p.fail {
		return domain.PinReceipt{}, errors.New("upstream unavailable")
	}
	p.pinned = append(p.pinned, name)
	return domain.PinReceipt{CID: "Qm" + name, PinSize: 42}, nil
}

func richBank() domain.BankData {
	return domain.BankData{
		Accounts:         []domain.BankAccount{{Name: "Checking", CurrentBalance: 2500}},
		IncomeStreams:    []domain.IncomeStream{{Confidence: 0.95, Status: "ACTIVE"}},
		TransactionCount: 45,
		Names:            []string{"Ada Lovelace"},
	}
}

func newTestGenerator(p *stubPinner) *Generator {
	g := NewGenerator(p, sha256Hasher{}, nil)
	g.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }
	return g
}

func TestVerifyBank(t *testing.T) {
	v := VerifyBank(richBank())
	if !v.IncomeVerified || !v.BalanceVerified || !v.HistoryVerified || !v.IdentityVerified {
		t.Fatalf("all checks should pass for rich bank data: %+v", v)
	}
	if v.TotalBalance != 2500 {
		t.Fatalf("expected balance 2500, got %v", v.TotalBalance)
	}

	empty := VerifyBank(domain.BankData{})
	if empty.IncomeVerified || empty.BalanceVerified || empty.HistoryVerified || empty.IdentityVerified {
		t.Fatalf("empty bank data must verify nothing: %+v", empty)
	}
}

func TestVerifyBankThresholds(t *testing.T) {
	low := domain.BankData{
		Accounts:         []domain.BankAccount{{CurrentBalance: 999.99}},
		IncomeStreams:    []domain.IncomeStream{{Confidence: 0.95, Status: "INACTIVE"}},
		TransactionCount: 30,
	}
	v := VerifyBank(low)
	if v.BalanceVerified {
		t.Fatalf("999.99 is below the balance threshold")
	}
	if v.IncomeVerified {
		t.Fatalf("inactive income streams must not verify")
	}
	if v.HistoryVerified {
		t.Fatalf("exactly 30 transactions is not above the threshold")
	}
}

func TestGenerateWithWorkingStorage(t *testing.T) {
	pinner := &stubPinner{enabled: true}
	set, err := newTestGenerator(pinner).Generate(context.Background(), richBank())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Records) != 4 {
		t.Fatalf("expected 4 proofs, got %d", len(set.Records))
	}
	for _, r := range set.Records {
		if !r.IsRealStorage {
			t.Fatalf("%s: expected real storage", r.Category)
		}
		if !strings.HasPrefix(r.CID, "Qm") {
			t.Fatalf("%s: unexpected cid %q", r.Category, r.CID)
		}
		if !strings.HasPrefix(r.ProofHash, "zkp_") {
			t.Fatalf("%s: unexpected hash prefix %q", r.Category, r.ProofHash)
		}
	}
	if !set.BundleIsReal || set.BundleCID == "" {
		t.Fatalf("bundle should be pinned: %+v", set)
	}
	// four category pins plus the bundle
	if len(pinner.pinned) != 5 {
		t.Fatalf("expected 5 pins, got %v", pinner.pinned)
	}
}

func TestGenerateSurvivesStorageFailure(t *testing.T) {
	set, err := newTestGenerator(&stubPinner{enabled: true, fail: true}).Generate(context.Background(), richBank())
	if err != nil {
		t.Fatalf("storage failure must not surface an error, got %v", err)
	}
	for _, r := range set.Records {
		if r.IsRealStorage {
			t.Fatalf("%s: failed pin must mark synthetic storage", r.Category)
		}
		if !strings.HasPrefix(r.CID, "mock_") {
			t.Fatalf("%s: synthetic cid should be marked, got %q", r.Category, r.CID)
		}
		if !strings.HasPrefix(r.ProofHash, "zkp_") || len(r.ProofHash) < 10 {
			t.Fatalf("%s: hash must still be computed, got %q", r.Category, r.ProofHash)
		}
		if !r.Verified && r.Category == domain.ProofIncome {
			t.Fatalf("verification outcome must not depend on storage")
		}
	}
	if set.BundleIsReal {
		t.Fatalf("bundle pin failed, must not report real storage")
	}
}

func TestGenerateWithoutPinnerConfigured(t *testing.T) {
	set, err := newTestGenerator(&stubPinner{enabled: false}).Generate(context.Background(), domain.BankData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.UsingRealIPFS {
		t.Fatalf("disabled pinner must report synthetic storage")
	}
	for _, r := range set.Records {
		if r.IsRealStorage {
			t.Fatalf("%s: no pinner, no real storage", r.Category)
		}
		if r.Verified {
			t.Fatalf("%s: empty bank data must verify nothing", r.Category)
		}
	}
}

func TestProofHashDeterministic(t *testing.T) {
	g := newTestGenerator(&stubPinner{})
	crit := categoryCriteria(domain.ProofBalance)

	h1, err := g.proofHash(true, crit, "fixed-salt", 1700000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := g.proofHash(true, crit, "fixed-salt", 1700000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("same inputs must hash identically: %q vs %q", h1, h2)
	}

	h3, _ := g.proofHash(true, crit, "other-salt", 1700000000000)
	if h1 == h3 {
		t.Fatalf("different salts must not collide")
	}
	h4, _ := g.proofHash(false, crit, "fixed-salt", 1700000000000)
	if h1 == h4 {
		t.Fatalf("the verification outcome must be committed to the hash")
	}
}

func TestStableJSONOrdersKeys(t *testing.T) {
	a, err := stableJSON(map[string]any{"b": 2, "a": 1, "c": []any{"x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := stableJSON(map[string]any{"c": []any{"x"}, "a": 1, "b": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("key order must not affect the encoding: %s vs %s", a, b)
	}
}

func TestHasherFallbackAvailable(t *testing.T) {
	h := NewHasher()
	sum := h.Sum([]byte("payload"))
	if !strings.HasPrefix(sum, "zkp_") {
		t.Fatalf("unexpected hash format %q", sum)
	}
	if h.Algorithm() != "poseidon" && h.Algorithm() != "sha256" {
		t.Fatalf("unexpected algorithm %q", h.Algorithm())
	}
}
