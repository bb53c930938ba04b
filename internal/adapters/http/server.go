package httpadapter

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"darma/internal/domain"
	"darma/internal/observability"
	"darma/internal/ports"
	"darma/internal/services/credit"
	"darma/internal/services/proofs"
)

// Server exposes the pipeline over HTTP. Proof persistence is optional;
// with a nil repository the proof endpoints still generate and pin but the
// latest-bundle lookup reports not found.
type Server struct {
	credit  *credit.Service
	proofs  *proofs.Generator
	store   ports.ProofRepository
	metrics *observability.Metrics
	router  chi.Router
}

func NewServer(creditSvc *credit.Service, gen *proofs.Generator, store ports.ProofRepository, metrics *observability.Metrics) *Server {
	s := &Server{
		credit:  creditSvc,
		proofs:  gen,
		store:   store,
		metrics: metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/credit-data/{address}", s.handleCreditData)
		r.Post("/credit-data/{address}", s.handleCreditDataWithBank)
		r.Get("/on-chain-data/{address}", s.handleOnChainData)
		r.Post("/batch-credit-data", s.handleBatchCreditData)
		r.Post("/privacy-proofs/{address}", s.handleGenerateProofs)
		r.Get("/privacy-proofs/verify/{cid}", s.handleVerifyProof)
		r.Get("/privacy-proofs/{address}", s.handleLatestProofs)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, "/health", http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreditData(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, "/api/credit-data", nil)
}

// handleCreditDataWithBank accepts bank-account data in the body and folds
// its verification outcome into the financial-health factor. The raw bank
// payload is discarded after verification.
func (s *Server) handleCreditDataWithBank(w http.ResponseWriter, r *http.Request) {
	const route = "/api/credit-data"
	var body struct {
		BankData *domain.BankData `json:"bankData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, route, http.StatusBadRequest, "invalid request body")
		return
	}
	var bank *domain.BankVerification
	if body.BankData != nil {
		v := proofs.VerifyBank(*body.BankData)
		bank = &v
	}
	s.analyze(w, r, route, bank)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, route string, bank *domain.BankVerification) {
	address := chi.URLParam(r, "address")
	chainID := r.URL.Query().Get("chainId")

	data, err := s.credit.Analyze(r.Context(), address, chainID, bank)
	if errors.Is(err, credit.ErrInvalidAddress) {
		s.writeError(w, route, http.StatusBadRequest, "invalid EVM address")
		return
	}
	if err != nil {
		log.Printf("http: analyze %s: %v", address, err)
		s.writeError(w, route, http.StatusInternalServerError, "analysis failed")
		return
	}
	s.writeJSON(w, route, http.StatusOK, data)
}

// handleOnChainData serves the classified interaction view without the
// score, for dashboards that render activity separately.
func (s *Server) handleOnChainData(w http.ResponseWriter, r *http.Request) {
	const route = "/api/on-chain-data"
	address := chi.URLParam(r, "address")
	chainID := r.URL.Query().Get("chainId")

	data, err := s.credit.Analyze(r.Context(), address, chainID, nil)
	if errors.Is(err, credit.ErrInvalidAddress) {
		s.writeError(w, route, http.StatusBadRequest, "invalid EVM address")
		return
	}
	if err != nil {
		log.Printf("http: on-chain data %s: %v", address, err)
		s.writeError(w, route, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.writeJSON(w, route, http.StatusOK, map[string]any{
		"address":              data.Address,
		"chainId":              data.ChainID,
		"chainName":            data.ChainName,
		"transactions":         data.Transactions,
		"protocolInteractions": data.Interactions,
		"repayments":           data.Repayments,
	})
}

const maxBatchAddresses = 20

func (s *Server) handleBatchCreditData(w http.ResponseWriter, r *http.Request) {
	const route = "/api/batch-credit-data"
	var body struct {
		Addresses []string `json:"addresses"`
		ChainID   string   `json:"chainId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, route, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Addresses) == 0 {
		s.writeError(w, route, http.StatusBadRequest, "addresses is required")
		return
	}
	if len(body.Addresses) > maxBatchAddresses {
		s.writeError(w, route, http.StatusBadRequest, "at most "+strconv.Itoa(maxBatchAddresses)+" addresses per batch")
		return
	}

	items := s.credit.AnalyzeBatch(r.Context(), body.Addresses, body.ChainID)
	results := make([]map[string]any, len(items))
	for i, item := range items {
		if item.Err != nil {
			results[i] = map[string]any{"address": item.Address, "error": item.Err.Error()}
			continue
		}
		results[i] = map[string]any{"address": item.Address, "data": item.Data}
	}
	s.writeJSON(w, route, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGenerateProofs(w http.ResponseWriter, r *http.Request) {
	const route = "/api/privacy-proofs"
	address := chi.URLParam(r, "address")
	if !credit.ValidAddress(address) {
		s.writeError(w, route, http.StatusBadRequest, "invalid EVM address")
		return
	}

	var body struct {
		BankData domain.BankData `json:"bankData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, route, http.StatusBadRequest, "invalid request body")
		return
	}

	set, err := s.proofs.Generate(r.Context(), body.BankData)
	if err != nil {
		log.Printf("http: generate proofs %s: %v", address, err)
		s.writeError(w, route, http.StatusInternalServerError, "proof generation failed")
		return
	}

	if s.store != nil {
		if err := s.store.SaveBundle(r.Context(), address, set); err != nil {
			log.Printf("http: persist proof bundle %s: %v", address, err)
		}
	}
	s.writeJSON(w, route, http.StatusOK, set)
}

func (s *Server) handleLatestProofs(w http.ResponseWriter, r *http.Request) {
	const route = "/api/privacy-proofs"
	address := chi.URLParam(r, "address")
	if !credit.ValidAddress(address) {
		s.writeError(w, route, http.StatusBadRequest, "invalid EVM address")
		return
	}
	if s.store == nil {
		s.writeError(w, route, http.StatusNotFound, "proof persistence is not configured")
		return
	}

	set, found, err := s.store.LatestBundle(r.Context(), address)
	if err != nil {
		log.Printf("http: load proof bundle %s: %v", address, err)
		s.writeError(w, route, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !found {
		s.writeError(w, route, http.StatusNotFound, "no proofs stored for address")
		return
	}
	s.writeJSON(w, route, http.StatusOK, set)
}

func (s *Server) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	const route = "/api/privacy-proofs/verify"
	cid := chi.URLParam(r, "cid")
	if cid == "" {
		s.writeError(w, route, http.StatusBadRequest, "cid is required")
		return
	}
	result := s.proofs.VerifyCID(r.Context(), cid)
	s.writeJSON(w, route, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, route string, status int, v any) {
	s.metrics.ObserveRequest(route, strconv.Itoa(status))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, route string, status int, msg string) {
	s.writeJSON(w, route, status, map[string]string{"error": msg})
}
