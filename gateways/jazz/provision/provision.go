package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xilidan/jazz/gateways/jazz/clients/salute"
	"github.com/xilidan/jazz/services/rooms/entity"
	"github.com/xilidan/jazz/services/rooms/storage"
)

// RoomCreator is the slice of the salute client the provisioner needs.
type RoomCreator interface {
	CreateRoom(ctx context.Context, title string) (*salute.Room, error)
}

// ProvisioningError wraps a room creation failure mid-batch. Rooms created
// before the failure stay created on the remote side; there is no
// compensation.
type ProvisioningError struct {
	Label   string
	Created int
	Err     error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning failed at %q (%d rooms already created remotely, not rolled back): %v",
		e.Label, e.Created, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Provisioner creates rooms in sequence with a fixed pause between
// creations. The pacing is deliberate: it keeps the batch under the remote
// rate limit, so creations are never parallelized.
type Provisioner struct {
	rooms RoomCreator
	store storage.Storage
	log   *slog.Logger

	delay time.Duration
	sleep func(time.Duration)
}

func New(rooms RoomCreator, store storage.Storage, log *slog.Logger) *Provisioner {
	return &Provisioner{
		rooms: rooms,
		store: store,
		log:   log,
		delay: time.Second,
		sleep: time.Sleep,
	}
}

// Provision creates count rooms labeled "Room #1".."Room #N", persists the
// label -> URL mapping, and returns it. The inter-creation delay is not
// applied after the final room. A persist failure is reported and the
// mapping is still returned; a creation failure aborts with a
// ProvisioningError and nothing is persisted.
func (p *Provisioner) Provision(ctx context.Context, count int) (map[string]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("room count must be positive, got %d", count)
	}

	p.log.Info("provisioning rooms", slog.Int("count", count))

	rooms := make(map[string]string, count)
	records := make([]entity.RoomRecord, 0, count)

	for i := 1; i <= count; i++ {
		label := fmt.Sprintf("Room #%d", i)

		room, err := p.rooms.CreateRoom(ctx, label)
		if err != nil {
			p.log.Error("room creation failed",
				slog.String("label", label),
				slog.Int("already_created", i-1),
				slog.String("error", err.Error()))
			return nil, &ProvisioningError{Label: label, Created: i - 1, Err: err}
		}

		rooms[label] = room.RoomURL
		records = append(records, entity.RoomRecord{
			Label:   label,
			RoomID:  room.RoomID,
			RoomURL: room.RoomURL,
		})

		if i < count {
			p.sleep(p.delay)
		}
	}

	if err := p.store.SaveRooms(ctx, records); err != nil {
		// The rooms exist remotely either way; the caller still gets
		// the mapping.
		p.log.Error("failed to persist room mapping",
			slog.Int("count", count),
			slog.String("error", err.Error()))
	}

	p.log.Info("rooms provisioned", slog.Int("count", count))
	return rooms, nil
}
