package storage

import (
	"context"

	"github.com/xilidan/jazz/services/rooms/entity"
)

// Storage persists the provisioned room mapping. Labels are write-once: a
// second save of an existing label must not overwrite it.
type Storage interface {
	SaveRooms(ctx context.Context, records []entity.RoomRecord) error
	ListRooms(ctx context.Context) ([]entity.RoomRecord, error)
}
