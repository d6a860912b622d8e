package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

type recordingListenRepo struct {
	recorded []*models.ListenEvent
}

func (r *recordingListenRepo) Record(_ context.Context, event *models.ListenEvent) error {
	r.recorded = append(r.recorded, event)
	return nil
}

func (r *recordingListenRepo) CountForSong(_ context.Context, _ types.SongID) (int64, error) {
	return int64(len(r.recorded)), nil
}

func TestListenQueueRecordsEvent(t *testing.T) {
	listens := &recordingListenRepo{}
	handler := NewListenQueueHandler(&storage.Database{Listens: listens})

	err := handler.Handle(context.Background(), nil, []byte(`{"song_id":"s1","user_id":"u1"}`))
	require.NoError(t, err)

	require.Len(t, listens.recorded, 1)
	assert.Equal(t, "s1", listens.recorded[0].SongID)
	assert.Equal(t, "u1", listens.recorded[0].UserID)
	assert.NotEmpty(t, listens.recorded[0].GetID())
}

func TestListenQueueAnonymousListener(t *testing.T) {
	listens := &recordingListenRepo{}
	handler := NewListenQueueHandler(&storage.Database{Listens: listens})

	err := handler.Handle(context.Background(), nil, []byte(`{"song_id":"s1"}`))
	require.NoError(t, err)

	require.Len(t, listens.recorded, 1)
	assert.Empty(t, listens.recorded[0].UserID)
}

func TestListenQueueDropsBadMessages(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{name: "not_json", payload: `not json at all`},
		{name: "missing_song_id", payload: `{"user_id":"u1"}`},
		{name: "empty_song_id", payload: `{"song_id":""}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			listens := &recordingListenRepo{}
			handler := NewListenQueueHandler(&storage.Database{Listens: listens})

			// Bad messages must not error, an error would trigger redelivery.
			err := handler.Handle(context.Background(), nil, []byte(tc.payload))
			require.NoError(t, err)
			assert.Empty(t, listens.recorded)
		})
	}
}
