package pricingsvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookrider/service/svcerr"
)

func TestDeliveryCost(t *testing.T) {
	svc := New(1.00)

	cases := []struct {
		name   string
		km     float64
		qty    int
		inCart bool
		want   float64
	}{
		{"single book", 10, 1, false, 15.00},          // 10 + 0.50*10
		{"three books", 10, 3, false, 17.00},          // base + 2 marginal
		{"library already in cart", 10, 3, true, 3.00}, // marginal only
		{"zero distance", 0, 1, false, 10.00},
		{"rounds up", 1.11, 1, false, 10.56}, // 10.555 -> 10.56
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := svc.DeliveryCost(c.km, c.qty, c.inCart)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestDeliveryCost_InvalidQuantity(t *testing.T) {
	svc := New(1.00)
	for _, qty := range []int{0, -1} {
		_, err := svc.DeliveryCost(5, qty, false)
		require.Error(t, err)
		require.Equal(t, ErrInvalidQuantity, svcerr.CodeOf(err))
	}
}

func TestLateFee(t *testing.T) {
	svc := New(1.00)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// not yet due
	require.Equal(t, 0.0, svc.LateFee(now.AddDate(0, 0, 5), now))
	// due today, under a whole day
	require.Equal(t, 0.0, svc.LateFee(now.Add(-23*time.Hour), now))
	// 30 whole days overdue at 1.00/day
	require.Equal(t, 30.00, svc.LateFee(now.AddDate(0, 0, -30), now))
}

func TestLateFee_IndependentOfRate(t *testing.T) {
	svc := New(2.50)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 25.00, svc.LateFee(now.AddDate(0, 0, -10), now))
}
