package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

const (
	defaultNodeTimeout = 10 * time.Second
	ammNotFound        = "actNotFound"
)

var ErrNode = errors.New("node error")

// NodeConfig points a WSProvider at an XRPL node.
type NodeConfig struct {
	URL     string
	Timeout time.Duration
	// LedgerIndex selects the ledger to read, "validated" when empty.
	LedgerIndex string
}

// WSProvider reads pools from an XRPL node with the amm_info method over a
// WebSocket connection.
type WSProvider struct {
	config NodeConfig
	dialer *websocket.Dialer
	logger *zap.Logger
	nextID atomic.Uint64
}

func NewWSProvider(config NodeConfig, logger *zap.Logger) (*WSProvider, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("node url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultNodeTimeout
	}
	if config.LedgerIndex == "" {
		config.LedgerIndex = "validated"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSProvider{
		config: config,
		dialer: &websocket.Dialer{HandshakeTimeout: config.Timeout},
		logger: logger,
	}, nil
}

type wireAsset struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

type ammInfoRequest struct {
	ID          uint64    `json:"id"`
	Command     string    `json:"command"`
	Asset       wireAsset `json:"asset"`
	Asset2      wireAsset `json:"asset2"`
	LedgerIndex string    `json:"ledger_index,omitempty"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

type ammInfoResponse struct {
	rpcStatus
	ID     uint64 `json:"id"`
	Type   string `json:"type"`
	Result struct {
		rpcStatus
		AMM struct {
			Account    string     `json:"account"`
			Amount     wireAmount `json:"amount"`
			Amount2    wireAmount `json:"amount2"`
			LPToken    wireAmount `json:"lp_token"`
			TradingFee uint16     `json:"trading_fee"`
		} `json:"amm"`
		LedgerIndex        uint32 `json:"ledger_index"`
		LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	} `json:"result"`
}

// wireAmount is either a drops string or an issued amount object.
type wireAmount struct {
	Asset Asset
	Value decimal.Decimal
}

func (a *wireAmount) UnmarshalJSON(data []byte) error {
	var drops string
	if err := json.Unmarshal(data, &drops); err == nil {
		xrp, err := amount.ParseDrops(drops)
		if err != nil {
			return err
		}
		a.Asset, a.Value = XRP, xrp.Decimal()
		return nil
	}

	var issued struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(data, &issued); err != nil {
		return fmt.Errorf("amount %s: %w", data, err)
	}
	value, err := amount.Parse(issued.Value)
	if err != nil {
		return err
	}
	a.Asset = Asset{Currency: issued.Currency, Issuer: issued.Issuer}
	a.Value = value
	return nil
}

func (p *WSProvider) Snapshot(ctx context.Context, key Key) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	conn, resp, err := p.dialer.DialContext(ctx, p.config.URL, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("dialing %s: %w", p.config.URL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// unblock reads if ctx is cancelled before the deadline
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	req := ammInfoRequest{
		ID:          p.nextID.Add(1),
		Command:     "amm_info",
		Asset:       wireAsset(key.Asset),
		Asset2:      wireAsset(key.Asset2),
		LedgerIndex: p.config.LedgerIndex,
	}
	if err := conn.WriteJSON(req); err != nil {
		return Snapshot{}, fmt.Errorf("sending amm_info: %w", err)
	}

	var res ammInfoResponse
	for {
		res = ammInfoResponse{}
		if err := conn.ReadJSON(&res); err != nil {
			if ctx.Err() != nil {
				return Snapshot{}, ctx.Err()
			}
			return Snapshot{}, fmt.Errorf("reading amm_info: %w", err)
		}
		// the node may push stream messages ahead of our response
		if res.Type == "" || res.Type == "response" {
			if res.ID == req.ID {
				break
			}
		}
	}

	if status := failedStatus(res.rpcStatus, res.Result.rpcStatus); status != nil {
		if status.Error == ammNotFound {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Snapshot{}, fmt.Errorf("%w: %s: %s", ErrNode, status.Error, status.ErrorMessage)
	}

	info := res.Result.AMM
	ledger := res.Result.LedgerIndex
	if ledger == 0 {
		ledger = res.Result.LedgerCurrentIndex
	}
	snap := Snapshot{
		Asset:         info.Amount.Asset,
		Asset2:        info.Amount2.Asset,
		Amount:        info.Amount.Value,
		Amount2:       info.Amount2.Value,
		LPTokenSupply: info.LPToken.Value,
		TradingFee:    amount.TradingFee(info.TradingFee),
		LedgerIndex:   ledger,
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("amm_info for %s: %w", key, err)
	}
	if !key.Has(snap.Asset) || !key.Has(snap.Asset2) {
		return Snapshot{}, fmt.Errorf("%w: node returned %s for %s", ErrAssetMismatch, snap.Key(), key)
	}

	p.logger.Debug("fetched pool",
		zap.String("pool", key.ID()),
		zap.String("account", info.Account),
		zap.Uint32("ledger_index", ledger))
	return snap, nil
}

func failedStatus(statuses ...rpcStatus) *rpcStatus {
	for i := range statuses {
		if statuses[i].Status == "error" || statuses[i].Error != "" {
			return &statuses[i]
		}
	}
	return nil
}
