package polymarket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaybet/crossarb/internal/domain"
)

func TestNormalizeBinaryMarket(t *testing.T) {
	m := Market{
		ConditionID: "0xabc",
		Question:    "Will it rain tomorrow?",
		EndDateISO:  "2026-10-01T12:00:00Z",
		Tokens: []Token{
			{TokenID: "111", Outcome: "Yes", Price: 0.45},
			{TokenID: "222", Outcome: "No", Price: 0.57},
		},
	}

	out, err := m.Normalize()
	require.NoError(t, err)
	assert.Equal(t, domain.VenuePolymarket, out.Venue)
	assert.Equal(t, "0xabc", out.MarketID)
	assert.Equal(t, "111", out.YesTokenID)
	assert.Equal(t, "222", out.NoTokenID)
	assert.InDelta(t, 0.45, out.YesPrice, 1e-9)
	assert.InDelta(t, 0.57, out.NoPrice, 1e-9)
	assert.Equal(t, 2026, out.ResolutionTime.Year())
}

func TestNormalizeMissingNoToken(t *testing.T) {
	m := Market{
		ConditionID: "0xabc",
		Tokens: []Token{
			{TokenID: "111", Outcome: "Yes", Price: 0.45},
		},
	}

	_, err := m.Normalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), "No token")
}

func TestNormalizeDuplicateYesToken(t *testing.T) {
	m := Market{
		ConditionID: "0xabc",
		Tokens: []Token{
			{TokenID: "111", Outcome: "Yes", Price: 0.45},
			{TokenID: "112", Outcome: "yes", Price: 0.46},
			{TokenID: "222", Outcome: "No", Price: 0.57},
		},
	}

	_, err := m.Normalize()
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestNormalizeMissingConditionID(t *testing.T) {
	_, err := Market{}.Normalize()
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestBalanceDollars(t *testing.T) {
	bal := BalanceResponse{Balance: "12500000"}
	d, err := bal.Dollars()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, d, 1e-9)

	_, err = BalanceResponse{Balance: "not-a-number"}.Dollars()
	assert.ErrorIs(t, err, domain.ErrSchema)
}
