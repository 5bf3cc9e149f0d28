package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRateQuoteValidate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fresh := RateQuote{
		Feed:        "SOL",
		Value:       decimal.RequireFromString("0.0065"),
		Basis:       BasisAssetPerCommon,
		PublishTime: now.Add(-10 * time.Second),
	}

	tests := []struct {
		name    string
		mutate  func(q *RateQuote)
		wantErr error
	}{
		{name: "fresh", mutate: func(q *RateQuote) {}},
		{name: "exactly at bound", mutate: func(q *RateQuote) { q.PublishTime = now.Add(-60 * time.Second) }},
		{name: "stale", mutate: func(q *RateQuote) { q.PublishTime = now.Add(-61 * time.Second) }, wantErr: ErrStaleQuote},
		{name: "own bound tighter", mutate: func(q *RateQuote) { q.MaxAge = 5 * time.Second }, wantErr: ErrStaleQuote},
		{name: "own bound looser is ignored", mutate: func(q *RateQuote) {
			q.MaxAge = time.Hour
			q.PublishTime = now.Add(-2 * time.Minute)
		}, wantErr: ErrStaleQuote},
		{name: "zero", mutate: func(q *RateQuote) { q.Value = decimal.Zero }, wantErr: ErrInvalidQuote},
		{name: "negative", mutate: func(q *RateQuote) { q.Value = decimal.NewFromInt(-1) }, wantErr: ErrInvalidQuote},
		{name: "missing time", mutate: func(q *RateQuote) { q.PublishTime = time.Time{} }, wantErr: ErrInvalidQuote},
		{name: "bad basis", mutate: func(q *RateQuote) { q.Basis = RateBasis(9) }, wantErr: ErrInvalidQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := fresh
			tt.mutate(&q)
			err := q.Validate(now, 60*time.Second)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
