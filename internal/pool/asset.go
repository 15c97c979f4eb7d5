// Package pool describes AMM pool state and the providers that supply it to
// the quote calculators.
package pool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/ammquote/internal/core/amount"
)

const nativeCurrency = "XRP"

var (
	ErrInvalidAsset  = errors.New("invalid asset")
	ErrNotFound      = errors.New("pool not found")
	ErrAssetMismatch = errors.New("asset not in pool")
)

// Asset identifies one side of a pool. The native asset has no issuer.
type Asset struct {
	Currency string `json:"currency" mapstructure:"currency"`
	Issuer   string `json:"issuer,omitempty" mapstructure:"issuer"`
}

// XRP is the ledger's native asset.
var XRP = Asset{Currency: nativeCurrency}

// ParseAsset reads "XRP" or "CUR.rIssuer".
func ParseAsset(s string) (Asset, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, nativeCurrency) {
		return XRP, nil
	}
	currency, issuer, ok := strings.Cut(s, ".")
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q must be XRP or CURRENCY.ISSUER", ErrInvalidAsset, s)
	}
	a := Asset{Currency: currency, Issuer: issuer}
	if err := a.Validate(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

func (a Asset) IsNative() bool {
	return a.Currency == nativeCurrency && a.Issuer == ""
}

// Kind reports the amount precision class of the asset.
func (a Asset) Kind() amount.Kind {
	if a.IsNative() {
		return amount.Native
	}
	return amount.Issued
}

func (a Asset) Validate() error {
	switch {
	case a.Currency == "":
		return fmt.Errorf("%w: missing currency", ErrInvalidAsset)
	case a.IsNative():
		return nil
	case a.Currency == nativeCurrency:
		return fmt.Errorf("%w: XRP has no issuer", ErrInvalidAsset)
	case a.Issuer == "":
		return fmt.Errorf("%w: %s needs an issuer", ErrInvalidAsset, a.Currency)
	case !strings.HasPrefix(a.Issuer, "r"):
		return fmt.Errorf("%w: issuer %q is not a classic address", ErrInvalidAsset, a.Issuer)
	}
	return nil
}

func (a Asset) String() string {
	if a.IsNative() {
		return nativeCurrency
	}
	return a.Currency + "." + a.Issuer
}

// Key names a pool by its asset pair. Two keys with the same assets in a
// different order refer to the same pool.
type Key struct {
	Asset  Asset
	Asset2 Asset
}

func NewKey(a, b Asset) (Key, error) {
	if err := a.Validate(); err != nil {
		return Key{}, err
	}
	if err := b.Validate(); err != nil {
		return Key{}, err
	}
	if a == b {
		return Key{}, fmt.Errorf("%w: pool assets must differ, got %s twice", ErrInvalidAsset, a)
	}
	return Key{Asset: a, Asset2: b}, nil
}

// ID is the order-independent name of the pool.
func (k Key) ID() string {
	a, b := k.Asset.String(), k.Asset2.String()
	if b < a {
		a, b = b, a
	}
	return a + "/" + b
}

func (k Key) String() string {
	return k.Asset.String() + "/" + k.Asset2.String()
}

// Has reports whether a is one of the pool's assets.
func (k Key) Has(a Asset) bool {
	return k.Asset == a || k.Asset2 == a
}
