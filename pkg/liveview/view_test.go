package liveview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

func seedMarket(id, name string, version int64) events.MarketSnapshot {
	return events.MarketSnapshot{
		MarketID: id,
		Name:     name,
		Status:   events.MarketOpen,
		Version:  version,
		Runners: []events.Runner{
			{SelectionID: "SEL_1", Name: "Time A", Status: "ACTIVE",
				Back: []events.PriceSize{{Price: 1.90, Size: 100}},
				Lay:  []events.PriceSize{{Price: 1.92, Size: 80}}},
			{SelectionID: "SEL_2", Name: "Time B", Status: "ACTIVE",
				Back: []events.PriceSize{{Price: 2.10, Size: 50}},
				Lay:  []events.PriceSize{{Price: 2.14, Size: 40}}},
		},
	}
}

func TestSeedMarketsOnlyWhenEmpty(t *testing.T) {
	v := New()

	v.SeedMarkets(nil) // seed vazio não tem efeito
	assert.Empty(t, v.Markets())

	v.SeedMarkets([]events.MarketSnapshot{seedMarket("MKT_1", "Match Odds", 1)})
	require.Len(t, v.Markets(), 1)

	// segundo seed não rebaixa o estado já populado
	v.SeedMarkets([]events.MarketSnapshot{seedMarket("MKT_OTHER", "Other", 1)})
	require.Len(t, v.Markets(), 1)
	assert.Equal(t, "MKT_1", v.Markets()[0].MarketID)
}

func TestApplyDeltaUpdatesOnlyMatchedMarket(t *testing.T) {
	v := New()
	v.SeedMarkets([]events.MarketSnapshot{
		seedMarket("MKT_1", "Match Odds", 1),
		seedMarket("MKT_2", "Over/Under 2.5", 1),
	})

	before := v.Markets()
	untouched := before[1] // ponteiro do mercado que não recebe delta

	delta := seedMarket("MKT_1", "", 5)
	delta.Runners[0].Back = []events.PriceSize{{Price: 1.95, Size: 120}}
	delta.Status = events.MarketSuspended

	n := v.ApplyDelta([]events.MarketSnapshot{delta})
	assert.Equal(t, 1, n)

	after := v.Markets()
	require.Len(t, after, 2)

	// entrada casada: odds e status novos, nome preservado do seed
	got := after[0]
	assert.Equal(t, "Match Odds", got.Name)
	assert.Equal(t, events.MarketSuspended, got.Status)
	assert.Equal(t, int64(5), got.Version)
	assert.Equal(t, 1.95, got.Runners[0].Back[0].Price)
	assert.Equal(t, "Time A", got.Runners[0].Name)

	// entrada não casada: mesmo ponteiro de antes
	assert.Same(t, untouched, after[1])
}

func TestApplyDeltaDropsStaleVersions(t *testing.T) {
	v := New()
	v.SeedMarkets([]events.MarketSnapshot{seedMarket("MKT_1", "Match Odds", 10)})

	// versão igual e menor à aplicada são descartadas
	n := v.ApplyDelta([]events.MarketSnapshot{seedMarket("MKT_1", "", 10)})
	assert.Equal(t, 0, n)
	n = v.ApplyDelta([]events.MarketSnapshot{seedMarket("MKT_1", "", 3)})
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(2), v.StaleDropped())

	// versão maior passa
	n = v.ApplyDelta([]events.MarketSnapshot{seedMarket("MKT_1", "", 11)})
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(11), v.Markets()[0].Version)
}

func TestApplyDeltaIgnoresUnknownMarkets(t *testing.T) {
	v := New()
	v.SeedMarkets([]events.MarketSnapshot{seedMarket("MKT_1", "Match Odds", 1)})

	n := v.ApplyDelta([]events.MarketSnapshot{seedMarket("MKT_NOPE", "", 99)})
	assert.Equal(t, 0, n)
	require.Len(t, v.Markets(), 1)
	assert.Equal(t, "MKT_1", v.Markets()[0].MarketID)
}

func TestApplyDeltaReachesBookmakers(t *testing.T) {
	v := New()
	v.SeedBookmakers([]events.MarketSnapshot{seedMarket("BM_1", "Bookmaker", 1)})

	n := v.ApplyDelta([]events.MarketSnapshot{seedMarket("BM_1", "", 2)})
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), v.Bookmakers()[0].Version)
	assert.Equal(t, "Bookmaker", v.Bookmakers()[0].Name)
}

func TestMergeRunnersKeepsSeedShape(t *testing.T) {
	v := New()
	v.SeedMarkets([]events.MarketSnapshot{seedMarket("MKT_1", "Match Odds", 1)})

	// delta com runner desconhecido e sem o SEL_2
	delta := events.MarketSnapshot{
		MarketID: "MKT_1",
		Version:  2,
		Runners: []events.Runner{
			{SelectionID: "SEL_1", Back: []events.PriceSize{{Price: 3.00, Size: 10}}},
			{SelectionID: "SEL_GHOST", Back: []events.PriceSize{{Price: 9.99, Size: 1}}},
		},
	}
	v.ApplyDelta([]events.MarketSnapshot{delta})

	got := v.Markets()[0]
	require.Len(t, got.Runners, 2) // forma do seed: nem cresce nem encolhe
	assert.Equal(t, 3.00, got.Runners[0].Back[0].Price)
	// runner sem delta mantém o ladder do seed
	assert.Equal(t, 2.10, got.Runners[1].Back[0].Price)
}

func TestSessionsAndScoreWholesaleReplace(t *testing.T) {
	v := New()

	first := []events.SessionEntry{{RunnerName: "10 over runs", BackPrice: 45}}
	second := []events.SessionEntry{{RunnerName: "15 over runs", BackPrice: 72}}

	v.SetSessions(first)
	v.SetSessions(nil) // delta vazio não apaga
	assert.Equal(t, first, v.Sessions())

	v.SetSessions(second)
	assert.Equal(t, second, v.Sessions())

	v.SetPremium(first)
	assert.Equal(t, first, v.Premium())

	assert.Nil(t, v.Score())
	v.SetScore(nil) // nil ignorado
	assert.Nil(t, v.Score())

	s := &events.Score{EventID: "EV_1", Sport: "cricket", Data: map[string]any{"runs": 120}}
	v.SetScore(s)
	assert.Same(t, s, v.Score())
}
