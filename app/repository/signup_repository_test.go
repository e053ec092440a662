package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveListOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts SignupListOptions
		want string
	}{
		{
			name: "defaults to position ascending",
			opts: SignupListOptions{},
			want: "position ASC",
		},
		{
			name: "known field and order pass through",
			opts: SignupListOptions{SortBy: "referral_count", Order: "desc"},
			want: "referral_count DESC",
		},
		{
			name: "order is case insensitive",
			opts: SignupListOptions{SortBy: "created_at", Order: "DESC"},
			want: "created_at DESC",
		},
		{
			name: "unknown sort field falls back to position",
			opts: SignupListOptions{SortBy: "email; DROP TABLE signups", Order: "desc"},
			want: "position DESC",
		},
		{
			name: "unknown order falls back to ascending",
			opts: SignupListOptions{SortBy: "priority", Order: "sideways"},
			want: "priority ASC",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, resolveListOrder(tc.opts))
		})
	}
}

func TestEffectiveLimitClampsPageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero takes the default", limit: 0, want: defaultListLimit},
		{name: "negative takes the default", limit: -5, want: defaultListLimit},
		{name: "in-range passes through", limit: 25, want: 25},
		{name: "excessive is capped", limit: 100000, want: maxListLimit},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SignupListOptions{Limit: tc.limit}.EffectiveLimit())
		})
	}
}
