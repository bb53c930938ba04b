package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"darma/internal/chains"
	"darma/internal/domain"
	"darma/internal/observability"
)

// Client fetches transaction history with a three-tier fallback chain:
// the chain's Blockscout instance, then a network-pinned Etherscan API,
// then an empty result. FetchTransactionHistory never fails for a
// well-formed address; it degrades to "no history known".
type Client struct {
	http            *http.Client
	blockscoutKey   string
	etherscanKey    string
	etherscanBase   string
	transferWorkers int
	metrics         *observability.Metrics
}

type Options struct {
	BlockscoutAPIKey string
	EtherscanAPIKey  string
	EtherscanBase    string
	Timeout          time.Duration
	TransferWorkers  int
	Metrics          *observability.Metrics
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := opts.TransferWorkers
	if workers <= 0 {
		workers = 8
	}
	return &Client{
		http:            &http.Client{Timeout: timeout},
		blockscoutKey:   opts.BlockscoutAPIKey,
		etherscanKey:    opts.EtherscanAPIKey,
		etherscanBase:   opts.EtherscanBase,
		transferWorkers: workers,
		metrics:         opts.Metrics,
	}
}

// envelope is the {status, message, result} shape both explorer families
// share. status "0" or a missing result signals failure.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type rawTx struct {
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TimeStamp    string `json:"timeStamp"`
	IsError      string `json:"isError"`
	FunctionName string `json:"functionName"`
	Input        string `json:"input"`
}

type rawTransfer struct {
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	Value           string `json:"value"`
	From            string `json:"from"`
	To              string `json:"to"`
}

// FetchTransactionHistory tries each tier in order and enriches whatever
// succeeded with token transfers. The returned error is non-nil only when
// ctx is done.
func (c *Client) FetchTransactionHistory(ctx context.Context, address string, chain chains.Config) ([]domain.Transaction, error) {
	txs, err := c.fetchBlockscout(ctx, address, chain.ExplorerBase)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.metrics.ObserveExplorerTier("blockscout", "error")
		log.Printf("explorer: blockscout failed for %s, trying etherscan: %v", address, err)

		txs, err = c.fetchEtherscan(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.metrics.ObserveExplorerTier("etherscan", "error")
			log.Printf("explorer: etherscan failed for %s, returning empty history: %v", address, err)
			c.metrics.ObserveExplorerTier("empty", "ok")
			return []domain.Transaction{}, nil
		}
		c.metrics.ObserveExplorerTier("etherscan", "ok")
	} else {
		c.metrics.ObserveExplorerTier("blockscout", "ok")
	}

	c.attachTokenTransfers(ctx, address, chain.ExplorerBase, txs)
	return txs, nil
}

func (c *Client) fetchBlockscout(ctx context.Context, address, base string) ([]domain.Transaction, error) {
	u := fmt.Sprintf("%s/api?module=account&action=txlist&address=%s&sort=desc&page=1&offset=100",
		base, url.QueryEscape(address))

	var env envelope
	if err := c.getJSON(ctx, u, c.blockscoutHeaders(), &env); err != nil {
		return nil, err
	}
	return decodeTxList(env)
}

func (c *Client) fetchEtherscan(ctx context.Context, address string) ([]domain.Transaction, error) {
	if c.etherscanKey == "" {
		return nil, fmt.Errorf("etherscan api key not configured")
	}
	u := fmt.Sprintf("%s/api?module=account&action=txlist&address=%s&sort=desc&page=1&offset=100&apikey=%s",
		c.etherscanBase, url.QueryEscape(address), url.QueryEscape(c.etherscanKey))

	var env envelope
	if err := c.getJSON(ctx, u, nil, &env); err != nil {
		return nil, err
	}
	return decodeTxList(env)
}

func decodeTxList(env envelope) ([]domain.Transaction, error) {
	if env.Status == "0" || len(env.Result) == 0 {
		if env.Message != "" {
			return nil, fmt.Errorf("explorer reported no data: %s", env.Message)
		}
		return nil, fmt.Errorf("explorer reported no data")
	}
	var raws []rawTx
	if err := json.Unmarshal(env.Result, &raws); err != nil {
		return nil, fmt.Errorf("unexpected result shape: %w", err)
	}
	txs := make([]domain.Transaction, 0, len(raws))
	for _, r := range raws {
		txs = append(txs, normalize(r))
	}
	return txs, nil
}

func normalize(r rawTx) domain.Transaction {
	ts, _ := strconv.ParseInt(r.TimeStamp, 10, 64)
	status := domain.TxSuccess
	if r.IsError != "0" && r.IsError != "" {
		status = domain.TxFailed
	}
	return domain.Transaction{
		Hash:         r.Hash,
		From:         r.From,
		To:           r.To,
		Value:        r.Value,
		Timestamp:    ts,
		Status:       status,
		FunctionName: r.FunctionName,
		Input:        r.Input,
	}
}

// attachTokenTransfers enriches each transaction with its token transfers,
// with bounded fan-out. Individual failures are swallowed: a failing lookup
// leaves that transaction's transfer list empty and never aborts the batch.
func (c *Client) attachTokenTransfers(ctx context.Context, address, base string, txs []domain.Transaction) {
	if len(txs) == 0 {
		return
	}
	sem := make(chan struct{}, c.transferWorkers)
	var wg sync.WaitGroup
	for i := range txs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(tx *domain.Transaction) {
			defer wg.Done()
			defer func() { <-sem }()
			transfers, err := c.fetchTransfers(ctx, address, base, tx.Hash)
			if err != nil {
				c.metrics.ObserveTransferFailure()
				return
			}
			tx.TokenTransfers = transfers
		}(&txs[i])
	}
	wg.Wait()
}

func (c *Client) fetchTransfers(ctx context.Context, address, base, txHash string) ([]domain.TokenTransfer, error) {
	u := fmt.Sprintf("%s/api?module=account&action=tokentx&address=%s&txhash=%s",
		base, url.QueryEscape(address), url.QueryEscape(txHash))

	var env envelope
	if err := c.getJSON(ctx, u, c.blockscoutHeaders(), &env); err != nil {
		return nil, err
	}
	if env.Status != "1" || len(env.Result) == 0 {
		return nil, fmt.Errorf("no transfer data")
	}
	var raws []rawTransfer
	if err := json.Unmarshal(env.Result, &raws); err != nil {
		return nil, err
	}
	transfers := make([]domain.TokenTransfer, 0, len(raws))
	for _, r := range raws {
		decimals, _ := strconv.Atoi(r.TokenDecimal)
		transfers = append(transfers, domain.TokenTransfer{
			TokenAddress: r.ContractAddress,
			Symbol:       r.TokenSymbol,
			Decimals:     decimals,
			Value:        r.Value,
			From:         r.From,
			To:           r.To,
		})
	}
	return transfers, nil
}

func (c *Client) blockscoutHeaders() http.Header {
	if c.blockscoutKey == "" {
		return nil
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.blockscoutKey)
	return h
}

func (c *Client) getJSON(ctx context.Context, u string, headers http.Header, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
