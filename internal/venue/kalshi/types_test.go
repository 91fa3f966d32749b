package kalshi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaybet/crossarb/internal/domain"
)

func TestNormalizeDeepTailCents(t *testing.T) {
	// A 1-cent ask is a quote like any other and must land at 0.01, not be
	// mistaken for a probability of 1.0.
	m := Market{Ticker: "LONGSHOT-26", YesAsk: 1, NoAsk: 99}

	out, err := m.Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 0.01, out.YesPrice, 1e-9)
	assert.InDelta(t, 0.99, out.NoPrice, 1e-9)
	assert.True(t, out.Priced())
}

func TestNormalizeZeroAskIsUnpriced(t *testing.T) {
	m := Market{Ticker: "HALTED-26", YesAsk: 0, NoAsk: 55}

	out, err := m.Normalize()
	require.NoError(t, err)
	assert.Zero(t, out.YesPrice)
	assert.False(t, out.Priced())
}

func TestNormalizeMissingTicker(t *testing.T) {
	_, err := Market{YesAsk: 40, NoAsk: 62}.Normalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestNormalizeBadExpiration(t *testing.T) {
	_, err := Market{Ticker: "T", YesAsk: 40, NoAsk: 62, ExpirationTime: "yesterday"}.Normalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)
}
