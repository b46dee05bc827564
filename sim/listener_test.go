package sim_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/momentum/market"
	"github.com/rustyeddy/momentum/mocks"
	"github.com/rustyeddy/momentum/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func closes(vals ...float64) market.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(market.Series, len(vals))
	for i, v := range vals {
		out[i] = market.Candle{Time: start.AddDate(0, 0, i), Close: v}
	}
	return out
}

type reasonIs sim.ExitReason

func (r reasonIs) Matches(x any) bool {
	t, ok := x.(sim.ClosedTrade)
	return ok && t.Reason == sim.ExitReason(r)
}

func (r reasonIs) String() string { return "trade closed by " + string(r) }

func TestListenerSeesEveryTradeInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	l := mocks.NewMockTradeListener(ctrl)

	gomock.InOrder(
		l.EXPECT().OnTradeClosed(reasonIs(sim.TakeProfit)).Return(nil),
		l.EXPECT().OnTradeClosed(reasonIs(sim.StopLoss)).Return(nil),
		l.EXPECT().OnTradeClosed(reasonIs(sim.EndOfSeries)).Return(nil),
	)

	cfg := sim.DefaultConfig()
	cfg.CloseAtEnd = true
	s := sim.NewSimulator(cfg)
	s.SetTradeListener(l)

	trades, err := s.Run("AAPL", closes(10, 11, 12, 11, 12, 11.8, 11.7, 11.75))
	require.NoError(t, err)
	require.Len(t, trades, 3)
}

func TestListenerErrorStopsWalk(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	l := mocks.NewMockTradeListener(ctrl)
	boom := errors.New("sink down")
	l.EXPECT().OnTradeClosed(gomock.Any()).Return(boom).Times(1)

	s := sim.NewSimulator(sim.DefaultConfig())
	s.SetTradeListener(l)

	trades, err := s.Run("AAPL", closes(10, 11, 12, 11, 12, 13))
	require.ErrorIs(t, err, boom)
	assert.Len(t, trades, 1)
}
