package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xilidan/jazz/gateways/jazz/clients/salute"
	"github.com/xilidan/jazz/services/rooms/entity"
)

type fakeCreator struct {
	titles []string
	failAt int // 1-indexed call number that fails; 0 = never
	calls  int
}

func (f *fakeCreator) CreateRoom(ctx context.Context, title string) (*salute.Room, error) {
	f.calls++
	f.titles = append(f.titles, title)
	if f.failAt != 0 && f.calls == f.failAt {
		return nil, &salute.RoomServiceError{Op: "create room", StatusCode: 500, Body: "boom"}
	}
	return &salute.Room{
		RoomID:  fmt.Sprintf("id-%d", f.calls),
		RoomURL: fmt.Sprintf("https://jazz.example/room/id-%d", f.calls),
	}, nil
}

type fakeStore struct {
	saved   [][]entity.RoomRecord
	saveErr error
}

func (f *fakeStore) SaveRooms(ctx context.Context, records []entity.RoomRecord) error {
	f.saved = append(f.saved, records)
	return f.saveErr
}

func (f *fakeStore) ListRooms(ctx context.Context) ([]entity.RoomRecord, error) {
	return nil, nil
}

func newTestProvisioner(creator *fakeCreator, store *fakeStore) (*Provisioner, *[]time.Duration) {
	p := New(creator, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var sleeps []time.Duration
	p.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return p, &sleeps
}

func TestProvisionThreeRooms(t *testing.T) {
	creator := &fakeCreator{}
	store := &fakeStore{}
	p, sleeps := newTestProvisioner(creator, store)

	rooms, err := p.Provision(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, creator.calls)
	assert.Equal(t, []string{"Room #1", "Room #2", "Room #3"}, creator.titles)

	// The delay runs between creations, never after the last one.
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *sleeps)

	assert.Equal(t, map[string]string{
		"Room #1": "https://jazz.example/room/id-1",
		"Room #2": "https://jazz.example/room/id-2",
		"Room #3": "https://jazz.example/room/id-3",
	}, rooms)

	require.Len(t, store.saved, 1)
	require.Len(t, store.saved[0], 3)
	assert.Equal(t, entity.RoomRecord{
		Label:   "Room #1",
		RoomID:  "id-1",
		RoomURL: "https://jazz.example/room/id-1",
	}, store.saved[0][0])
}

func TestProvisionMidBatchFailure(t *testing.T) {
	creator := &fakeCreator{failAt: 2}
	store := &fakeStore{}
	p, _ := newTestProvisioner(creator, store)

	rooms, err := p.Provision(context.Background(), 3)
	assert.Nil(t, rooms)

	var provErr *ProvisioningError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "Room #2", provErr.Label)
	assert.Equal(t, 1, provErr.Created)

	var roomErr *salute.RoomServiceError
	assert.ErrorAs(t, err, &roomErr)

	// Nothing persisted; room #1 still exists remotely and that is
	// accepted.
	assert.Empty(t, store.saved)
	assert.Equal(t, 2, creator.calls)
}

func TestProvisionPersistFailureStillReturnsMapping(t *testing.T) {
	creator := &fakeCreator{}
	store := &fakeStore{saveErr: errors.New("disk full")}
	p, _ := newTestProvisioner(creator, store)

	rooms, err := p.Provision(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestProvisionRejectsNonPositiveCount(t *testing.T) {
	p, _ := newTestProvisioner(&fakeCreator{}, &fakeStore{})

	for _, count := range []int{0, -1} {
		_, err := p.Provision(context.Background(), count)
		require.Error(t, err, "count %d", count)
	}
}

func TestProvisionSingleRoomHasNoDelay(t *testing.T) {
	p, sleeps := newTestProvisioner(&fakeCreator{}, &fakeStore{})

	_, err := p.Provision(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, *sleeps)
}
