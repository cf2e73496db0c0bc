package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtra_Merge(t *testing.T) {
	loaded := Requested([]string{"g1", "g2"})

	tests := []struct {
		name     string
		incoming Extra[[]string]
		prev     Extra[[]string]
		want     Extra[[]string]
	}{
		{
			name:     "not requested never overwrites loaded value",
			incoming: NotRequested[[]string](),
			prev:     loaded,
			want:     loaded,
		},
		{
			name:     "requested always overwrites",
			incoming: Requested([]string{"g3"}),
			prev:     loaded,
			want:     Requested([]string{"g3"}),
		},
		{
			name:     "requested empty overwrites too",
			incoming: Requested([]string{}),
			prev:     loaded,
			want:     Requested([]string{}),
		},
		{
			name:     "not requested over not requested",
			incoming: NotRequested[[]string](),
			prev:     NotRequested[[]string](),
			want:     NotRequested[[]string](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.incoming.Merge(tt.prev))
		})
	}
}
