package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentifier(t *testing.T) {
	id := NewIdentifier()

	assert.NotEmpty(t, id.Local)
	assert.Empty(t, id.Remote)
	assert.Equal(t, SyncStatePending, id.State)
	assert.False(t, id.HasRemote())
	assert.False(t, id.IsZero())
}

func TestIdentifier_WithRemote(t *testing.T) {
	id := NewIdentifier()

	confirmed, err := id.WithRemote("srv-42")
	require.NoError(t, err)
	assert.Equal(t, "srv-42", confirmed.Remote)
	assert.Equal(t, SyncStateSynced, confirmed.State)
	// Локальное значение неизменно
	assert.Equal(t, id.Local, confirmed.Local)

	// Повторное назначение того же значения — no-op
	again, err := confirmed.WithRemote("srv-42")
	require.NoError(t, err)
	assert.Equal(t, confirmed, again)

	// Другое значение — ошибка
	_, err = confirmed.WithRemote("srv-43")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteAlreadySet)
}

func TestIdentifier_SyncedNeverReturnsToPending(t *testing.T) {
	id := NewIdentifier()
	confirmed, err := id.WithRemote("srv-1")
	require.NoError(t, err)

	// out-of-sync и обратно — pending недостижим
	stale := confirmed.MarkOutOfSync()
	assert.Equal(t, SyncStateOutOfSync, stale.State)

	resynced := stale.MarkSynced()
	assert.Equal(t, SyncStateSynced, resynced.State)

	assert.NotEqual(t, SyncStatePending, stale.State)
	assert.NotEqual(t, SyncStatePending, resynced.State)
}

func TestIdentifier_MarkOutOfSync_PendingStaysPending(t *testing.T) {
	id := NewIdentifier()
	assert.Equal(t, SyncStatePending, id.MarkOutOfSync().State)
	assert.Equal(t, SyncStatePending, id.MarkSynced().State)
}

func TestIdentifier_Same(t *testing.T) {
	local := NewIdentifier()
	confirmed, err := local.WithRemote("srv-7")
	require.NoError(t, err)

	tests := []struct {
		name string
		a    Identifier
		b    Identifier
		want bool
	}{
		{
			name: "same local value",
			a:    local,
			b:    confirmed,
			want: true,
		},
		{
			name: "same remote different local",
			a:    confirmed,
			b:    FromRemote("srv-7"),
			want: true,
		},
		{
			name: "different objects",
			a:    NewIdentifier(),
			b:    NewIdentifier(),
			want: false,
		},
		{
			name: "no remote on either side",
			a:    NewIdentifier(),
			b:    Identifier{Local: "other", State: SyncStatePending},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Same(tt.b))
		})
	}
}

func TestIdentifier_Key(t *testing.T) {
	id := NewIdentifier()
	confirmed, err := id.WithRemote("srv-9")
	require.NoError(t, err)

	// Ключ стабилен до и после подтверждения
	assert.Equal(t, id.Key(), confirmed.Key())
}
