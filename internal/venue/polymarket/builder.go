package polymarket

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/okaybet/crossarb/internal/crypto"
	"github.com/okaybet/crossarb/internal/domain"
)

const (
	// usdcDecimals is the fixed-point scale shared by USDC and CTF outcome
	// tokens on Polygon.
	usdcScale = 1_000_000

	zeroAddress = "0x0000000000000000000000000000000000000000"

	sideBuy  = 0
	sideSell = 1
)

// maxSalt bounds the random order salt to 64 bits, matching the official
// client libraries.
var maxSalt = new(big.Int).Lsh(big.NewInt(1), 64)

// SignedOrder is an EIP-712 signed order ready for POST /order.
type SignedOrder struct {
	crypto.OrderPayload
	Signature string `json:"signature"`
}

// OrderBuilder converts order intents into signed CLOB exchange orders.
type OrderBuilder struct {
	signer *crypto.WalletSigner
}

// NewOrderBuilder creates a builder signing with the given wallet.
func NewOrderBuilder(signer *crypto.WalletSigner) *OrderBuilder {
	return &OrderBuilder{signer: signer}
}

// Build constructs and signs an exchange order for tokenID.
//
// price is the limit probability on (0,1); quantity is the share count. For a
// BUY the maker amount is the USDC spent and the taker amount the shares
// received; a SELL swaps the two. Both are scaled to 6 decimals and rounded
// down so the order never bids above the stated price.
func (b *OrderBuilder) Build(tokenID string, action domain.Action, price float64, quantity int64) (SignedOrder, error) {
	if tokenID == "" {
		return SignedOrder{}, fmt.Errorf("polymarket: %w: empty token ID", domain.ErrLocalValidation)
	}
	if price <= 0 || price >= 1 {
		return SignedOrder{}, fmt.Errorf("polymarket: %w: price %.4f outside (0,1)", domain.ErrLocalValidation, price)
	}
	if quantity <= 0 {
		return SignedOrder{}, fmt.Errorf("polymarket: %w: quantity must be positive", domain.ErrLocalValidation)
	}

	shares := quantity * usdcScale
	usdc := int64(math.Floor(price * float64(shares)))
	if usdc <= 0 {
		return SignedOrder{}, fmt.Errorf("polymarket: %w: order value rounds to zero", domain.ErrLocalValidation)
	}

	var side int
	var makerAmount, takerAmount int64
	switch action {
	case domain.ActionBuy:
		side = sideBuy
		makerAmount, takerAmount = usdc, shares
	case domain.ActionSell:
		side = sideSell
		makerAmount, takerAmount = shares, usdc
	default:
		return SignedOrder{}, fmt.Errorf("polymarket: %w: unknown action %q", domain.ErrLocalValidation, action)
	}

	salt, err := rand.Int(rand.Reader, maxSalt)
	if err != nil {
		return SignedOrder{}, fmt.Errorf("polymarket: generate salt: %w", err)
	}

	address := b.signer.Address().Hex()
	payload := crypto.OrderPayload{
		Salt:          salt.String(),
		Maker:         address,
		Signer:        address,
		Taker:         zeroAddress,
		TokenID:       tokenID,
		MakerAmount:   fmt.Sprintf("%d", makerAmount),
		TakerAmount:   fmt.Sprintf("%d", takerAmount),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: 0,
	}

	sig, err := b.signer.SignOrder(payload)
	if err != nil {
		return SignedOrder{}, err
	}
	return SignedOrder{OrderPayload: payload, Signature: sig}, nil
}
