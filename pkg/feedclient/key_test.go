package feedclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMarketIDs(t *testing.T) {
	got := NormalizeMarketIDs([]string{"MKT_2", "", "MKT_1", "MKT_2", "MKT_1"})
	assert.Equal(t, []string{"MKT_1", "MKT_2"}, got)
}

func TestNormalizeMarketIDsEmpty(t *testing.T) {
	assert.Empty(t, NormalizeMarketIDs(nil))
	assert.Empty(t, NormalizeMarketIDs([]string{"", ""}))
}

func TestSubscriptionKeyPermutationInvariant(t *testing.T) {
	a := SubscriptionKey("4", []string{"MKT_1001", "MKT_1002"})
	b := SubscriptionKey("4", []string{"MKT_1002", "MKT_1001"})
	assert.Equal(t, a, b)

	// conjuntos diferentes produzem chaves diferentes
	c := SubscriptionKey("4", []string{"MKT_1001"})
	assert.NotEqual(t, a, c)

	// eventType entra na identidade
	d := SubscriptionKey("1", []string{"MKT_1001", "MKT_1002"})
	assert.NotEqual(t, a, d)
}

func TestSubscriptionKeyDedup(t *testing.T) {
	a := SubscriptionKey("4", []string{"MKT_1", "MKT_1", ""})
	b := SubscriptionKey("4", []string{"MKT_1"})
	assert.Equal(t, a, b)
}
