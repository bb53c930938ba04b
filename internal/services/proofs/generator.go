package proofs

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"darma/internal/domain"
	"darma/internal/observability"
	"darma/internal/ports"
)

// Fixed verification thresholds, shared with the proof criteria documents.
const (
	minIncomeConfidence  = 0.9
	activeIncomeStatus   = "ACTIVE"
	minBalanceUSD        = 1000.0
	minTransactionCount  = 30
	gatewayProbeTimeout  = 5 * time.Second
	mockCIDPrefix        = "mock"
	completeBundleSuffix = "complete"
)

// publicGateways are probed in order during best-effort CID verification.
var publicGateways = []string{
	"https://ipfs.io/ipfs",
	"https://gateway.pinata.cloud/ipfs",
	"https://cloudflare-ipfs.com/ipfs",
	"https://dweb.link/ipfs",
}

// Generator derives verification booleans from bank-account data, commits
// each outcome to a hash and pins the proof documents. Storage failures
// degrade to locally synthesized ids; hash generation is always guaranteed.
type Generator struct {
	pinner  ports.Pinner
	hasher  Hasher
	http    *http.Client
	metrics *observability.Metrics
	now     func() time.Time
}

func NewGenerator(pinner ports.Pinner, hasher Hasher, metrics *observability.Metrics) *Generator {
	return &Generator{
		pinner:  pinner,
		hasher:  hasher,
		http:    &http.Client{Timeout: gatewayProbeTimeout},
		metrics: metrics,
		now:     time.Now,
	}
}

type criteria struct {
	Description string  `json:"description"`
	MinValue    float64 `json:"minValue,omitempty"`
	Required    string  `json:"required,omitempty"`
}

func categoryCriteria(cat domain.ProofCategory) criteria {
	switch cat {
	case domain.ProofIncome:
		return criteria{Description: "Income stability verification", MinValue: minIncomeConfidence, Required: activeIncomeStatus}
	case domain.ProofBalance:
		return criteria{Description: "Minimum balance verification", MinValue: minBalanceUSD}
	case domain.ProofTransaction:
		return criteria{Description: "Transaction history activity", MinValue: minTransactionCount}
	default:
		return criteria{Description: "Identity verification", Required: "legal name on file"}
	}
}

// verify derives the four booleans. Only these leave the process; the
// underlying amounts never do.
func verify(bank domain.BankData) map[domain.ProofCategory]bool {
	stableIncome := false
	for _, s := range bank.IncomeStreams {
		if s.Confidence > minIncomeConfidence && s.Status == activeIncomeStatus {
			stableIncome = true
			break
		}
	}
	return map[domain.ProofCategory]bool{
		domain.ProofIncome:      stableIncome,
		domain.ProofBalance:     bank.TotalBalance() >= minBalanceUSD,
		domain.ProofTransaction: bank.TransactionCount > minTransactionCount,
		domain.ProofIdentity:    len(bank.Names) > 0,
	}
}

// proofHash commits to {verified, criteria, salt, timestamp}. Two calls with
// the same salt and timestamp produce the same hash regardless of whether
// storage later succeeds.
func (g *Generator) proofHash(verified bool, crit criteria, salt string, ts int64) (string, error) {
	payload := map[string]any{
		"verified":  verified,
		"criteria":  crit.Description,
		"salt":      salt,
		"timestamp": ts,
	}
	data, err := stableJSON(payload)
	if err != nil {
		return "", err
	}
	return g.hasher.Sum(data), nil
}

// VerifyBank derives the verification booleans in the form the scoring
// pipeline consumes. TotalBalance stays in-process only.
func VerifyBank(bank domain.BankData) domain.BankVerification {
	v := verify(bank)
	return domain.BankVerification{
		IncomeVerified:   v[domain.ProofIncome],
		BalanceVerified:  v[domain.ProofBalance],
		HistoryVerified:  v[domain.ProofTransaction],
		IdentityVerified: v[domain.ProofIdentity],
		TotalBalance:     bank.TotalBalance(),
	}
}

// Generate builds the four category proofs plus the combined bundle. It
// never returns an error for storage problems; those surface only through
// the IsRealStorage flags.
func (g *Generator) Generate(ctx context.Context, bank domain.BankData) (domain.ProofSet, error) {
	verification := verify(bank)
	now := g.now()

	set := domain.ProofSet{
		GeneratedAt:   now,
		UsingRealIPFS: g.pinner.Enabled(),
	}

	order := []domain.ProofCategory{domain.ProofIncome, domain.ProofBalance, domain.ProofTransaction, domain.ProofIdentity}
	for _, cat := range order {
		record, err := g.buildRecord(ctx, cat, verification[cat], now)
		if err != nil {
			return domain.ProofSet{}, err
		}
		set.Records = append(set.Records, record)
	}

	bundleCID, bundleReal := g.pinBundle(ctx, set, verification)
	set.BundleCID = bundleCID
	set.BundleIsReal = bundleReal
	return set, nil
}

func (g *Generator) buildRecord(ctx context.Context, cat domain.ProofCategory, verified bool, now time.Time) (domain.ProofRecord, error) {
	crit := categoryCriteria(cat)
	salt := fmt.Sprintf("%s_%s", cat, uuid.NewString())
	hash, err := g.proofHash(verified, crit, salt, now.UnixMilli())
	if err != nil {
		return domain.ProofRecord{}, err
	}

	record := domain.ProofRecord{
		Category:  cat,
		Verified:  verified,
		ProofHash: hash,
		Algorithm: g.hasher.Algorithm(),
		Timestamp: now,
	}

	doc := map[string]any{
		"proofType":            string(cat),
		"verified":             verified,
		"verificationCriteria": crit,
		"proofHash":            hash,
		"hashingAlgorithm":     g.hasher.Algorithm(),
		"timestamp":            now.UTC().Format(time.RFC3339),
		"protocol":             "darma-credit",
	}

	record.CID, record.IsRealStorage = g.pin(ctx, fmt.Sprintf("zk-%s-proof", cat), string(cat), doc)
	record.GatewayURL = publicGateways[0] + "/" + record.CID
	return record, nil
}

// pin uploads the document and falls back to a synthesized identifier on
// any failure. The fallback id is clearly marked and never collides.
func (g *Generator) pin(ctx context.Context, name, category string, doc any) (cid string, isReal bool) {
	if g.pinner.Enabled() {
		receipt, err := g.pinner.PinJSON(ctx, name, doc)
		if err == nil {
			return receipt.CID, true
		}
		g.metrics.ObservePinFailure()
		log.Printf("proofs: pin failed for %s, synthesizing local id: %v", name, err)
	}
	return fmt.Sprintf("%s_%s_%d_%s", mockCIDPrefix, category, g.now().UnixMilli(), uuid.NewString()[:8]), false
}

func (g *Generator) pinBundle(ctx context.Context, set domain.ProofSet, verification map[domain.ProofCategory]bool) (string, bool) {
	hashes := map[string]string{}
	cids := map[string]string{}
	for _, r := range set.Records {
		hashes[string(r.Category)] = r.ProofHash
		cids[string(r.Category)] = r.CID
	}
	summary := map[string]bool{}
	for cat, ok := range verification {
		summary[string(cat)] = ok
	}
	doc := map[string]any{
		"verificationSummary": summary,
		"proofHashes":         hashes,
		"proofCids":           cids,
		"timestamp":           set.GeneratedAt.UTC().Format(time.RFC3339),
		"protocol":            "darma-credit",
		"proofCount":          len(set.Records),
	}
	return g.pin(ctx, "zk-complete-proofs", completeBundleSuffix, doc)
}

// VerifyResult reports whether a CID answered on any public gateway. This
// check is best-effort and non-authoritative: recently pinned content may
// legitimately not have propagated yet.
type VerifyResult struct {
	CID      string `json:"cid"`
	Verified bool   `json:"verified"`
	Gateway  string `json:"gateway,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// VerifyCID probes the public gateways in order and returns on the first
// success.
func (g *Generator) VerifyCID(ctx context.Context, cid string) VerifyResult {
	for _, gw := range publicGateways {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, gw+"/"+cid, nil)
		if err != nil {
			continue
		}
		req.Header.Set("Accept", "application/json")
		resp, err := g.http.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return VerifyResult{CID: cid, Verified: true, Gateway: gw}
		}
	}
	return VerifyResult{CID: cid, Verified: false, Detail: "not yet accessible via public gateways"}
}
