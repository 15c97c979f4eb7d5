package pool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeNode answers each amm_info request with reply(request).
func fakeNode(t *testing.T, reply func(req map[string]any) []any) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			for _, msg := range reply(req) {
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func ammInfoResult(id any) map[string]any {
	return map[string]any{
		"id":     id,
		"type":   "response",
		"status": "success",
		"result": map[string]any{
			"amm": map[string]any{
				"account": "rp9E3FN3gNmvePGhYnf414T2TkUuoxu8vM",
				"amount":  "25000000000",
				"amount2": map[string]any{
					"currency": "USD",
					"issuer":   bitstamp,
					"value":    "12345.678901234567",
				},
				"lp_token": map[string]any{
					"currency": "03930D02208264E2E40EC1B0C09E4DB96EE197B1",
					"issuer":   "rp9E3FN3gNmvePGhYnf414T2TkUuoxu8vM",
					"value":    "17556.1234",
				},
				"trading_fee": 500,
			},
			"ledger_index": 86000123,
			"validated":    true,
		},
	}
}

func TestWSProviderSnapshot(t *testing.T) {
	requests := make(chan map[string]any, 1)
	url := fakeNode(t, func(req map[string]any) []any {
		requests <- req
		stream := map[string]any{"type": "ledgerClosed", "ledger_index": 86000124}
		return []any{stream, ammInfoResult(req["id"])}
	})

	p, err := NewWSProvider(NodeConfig{URL: url, Timeout: 2 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	usd := Asset{Currency: "USD", Issuer: bitstamp}
	snap, err := p.Snapshot(context.Background(), Key{Asset: usd, Asset2: XRP})
	require.NoError(t, err)

	seen := <-requests
	assert.Equal(t, "amm_info", seen["command"])
	assert.Equal(t, "validated", seen["ledger_index"])
	assert.Equal(t, map[string]any{"currency": "USD", "issuer": bitstamp}, seen["asset"])
	assert.Equal(t, map[string]any{"currency": "XRP"}, seen["asset2"])

	assert.Equal(t, XRP, snap.Asset)
	assert.Equal(t, usd, snap.Asset2)
	assert.True(t, snap.Amount.Equal(decimal.NewFromInt(25000)), "drops convert to XRP, got %s", snap.Amount)
	assert.True(t, snap.Amount2.Equal(decimal.RequireFromString("12345.678901234567")))
	assert.True(t, snap.LPTokenSupply.Equal(decimal.RequireFromString("17556.1234")))
	assert.EqualValues(t, 500, snap.TradingFee)
	assert.Equal(t, uint32(86000123), snap.LedgerIndex)
}

func TestWSProviderNotFound(t *testing.T) {
	url := fakeNode(t, func(req map[string]any) []any {
		return []any{map[string]any{
			"id":            req["id"],
			"type":          "response",
			"status":        "error",
			"error":         "actNotFound",
			"error_message": "Account not found.",
		}}
	})
	p, err := NewWSProvider(NodeConfig{URL: url}, nil)
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), Key{Asset: XRP, Asset2: Asset{Currency: "EUR", Issuer: bitstamp}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWSProviderNodeError(t *testing.T) {
	url := fakeNode(t, func(req map[string]any) []any {
		return []any{map[string]any{
			"id":     req["id"],
			"type":   "response",
			"status": "error",
			"error":  "invalidParams",
		}}
	})
	p, err := NewWSProvider(NodeConfig{URL: url}, nil)
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), Key{Asset: XRP, Asset2: Asset{Currency: "EUR", Issuer: bitstamp}})
	require.ErrorIs(t, err, ErrNode)
	assert.Contains(t, err.Error(), "invalidParams")
}

func TestWSProviderWrongPool(t *testing.T) {
	url := fakeNode(t, func(req map[string]any) []any {
		return []any{ammInfoResult(req["id"])}
	})
	p, err := NewWSProvider(NodeConfig{URL: url}, nil)
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), Key{Asset: XRP, Asset2: Asset{Currency: "EUR", Issuer: bitstamp}})
	assert.ErrorIs(t, err, ErrAssetMismatch)
}

func TestWSProviderTimeout(t *testing.T) {
	url := fakeNode(t, func(map[string]any) []any { return nil })
	p, err := NewWSProvider(NodeConfig{URL: url, Timeout: 100 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = p.Snapshot(context.Background(), Key{Asset: XRP, Asset2: Asset{Currency: "USD", Issuer: bitstamp}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWSProviderRequiresURL(t *testing.T) {
	_, err := NewWSProvider(NodeConfig{}, nil)
	assert.Error(t, err)
}

func TestWireAmount(t *testing.T) {
	var a wireAmount
	require.NoError(t, json.Unmarshal([]byte(`"1"`), &a))
	assert.True(t, a.Value.Equal(decimal.RequireFromString("0.000001")))
	assert.Equal(t, XRP, a.Asset)

	assert.Error(t, json.Unmarshal([]byte(`"1.5"`), &a))
	assert.Error(t, json.Unmarshal([]byte(`{"currency":"USD","issuer":"r1","value":"abc"}`), &a))
}
