package polymarket

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okaybet/crossarb/internal/domain"
)

// Token is one outcome token of a CLOB market.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"` // "Yes" or "No" for binary markets
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}

// Market is a market as returned by GET /markets/{condition_id}. CLOB prices
// are already probabilities on [0,1].
type Market struct {
	ConditionID     string  `json:"condition_id"`
	QuestionID      string  `json:"question_id"`
	Question        string  `json:"question"`
	Description     string  `json:"description"`
	EndDateISO      string  `json:"end_date_iso"`
	Active          bool    `json:"active"`
	Closed          bool    `json:"closed"`
	AcceptingOrders bool    `json:"accepting_orders"`
	MinimumOrderSz  float64 `json:"minimum_order_size"`
	MinTickSize     float64 `json:"minimum_tick_size"`
	NegRisk         bool    `json:"neg_risk"`
	Tokens          []Token `json:"tokens"`
}

// Normalize maps the raw market into the cross-venue shape. A binary market
// must carry exactly one Yes token and one No token; anything else is a
// schema violation, never a silent zero price.
func (m Market) Normalize() (domain.NormalizedMarket, error) {
	if m.ConditionID == "" {
		return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: market payload missing condition_id", domain.ErrSchema)
	}

	var yes, no *Token
	for i := range m.Tokens {
		switch strings.ToLower(m.Tokens[i].Outcome) {
		case "yes":
			if yes != nil {
				return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: market %s has duplicate Yes token", domain.ErrSchema, m.ConditionID)
			}
			yes = &m.Tokens[i]
		case "no":
			if no != nil {
				return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: market %s has duplicate No token", domain.ErrSchema, m.ConditionID)
			}
			no = &m.Tokens[i]
		}
	}
	if yes == nil {
		return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: market %s has no Yes token", domain.ErrSchema, m.ConditionID)
	}
	if no == nil {
		return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: market %s has no No token", domain.ErrSchema, m.ConditionID)
	}

	out := domain.NormalizedMarket{
		Venue:      domain.VenuePolymarket,
		MarketID:   m.ConditionID,
		Title:      m.Question,
		YesPrice:   yes.Price,
		NoPrice:    no.Price,
		YesTokenID: yes.TokenID,
		NoTokenID:  no.TokenID,
	}
	if m.EndDateISO != "" {
		t, err := time.Parse(time.RFC3339, m.EndDateISO)
		if err != nil {
			return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: bad end_date_iso %q: %v", domain.ErrSchema, m.EndDateISO, err)
		}
		out.ResolutionTime = t
	}
	return out, nil
}

// APIKeyResponse is the /auth/derive-api-key response.
type APIKeyResponse struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// OrderResponse is the POST /order response.
type OrderResponse struct {
	Success         bool     `json:"success"`
	ErrorMsg        string   `json:"errorMsg"`
	OrderID         string   `json:"orderID"`
	Status          string   `json:"status"` // "matched", "live", "delayed", "unmatched"
	TransactionHash string   `json:"transactionHash"`
	TakingAmount    string   `json:"takingAmount"`
	MakingAmount    string   `json:"makingAmount"`
	OrderHashes     []string `json:"orderHashes"`
}

// BalanceResponse is the /balance-allowance response. Balance is a decimal
// string in USDC base units (6 decimals).
type BalanceResponse struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// Dollars converts the raw USDC base-unit balance to dollars.
func (b BalanceResponse) Dollars() (float64, error) {
	raw, err := strconv.ParseFloat(b.Balance, 64)
	if err != nil {
		return 0, fmt.Errorf("polymarket: %w: bad balance %q: %v", domain.ErrSchema, b.Balance, err)
	}
	return raw / 1e6, nil
}
