package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/xilidan/jazz/services/rooms/entity"
)

// FileStore keeps the label -> room URL mapping in a pretty-printed JSON
// file, the same shape the room links are shared in.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) SaveRooms(ctx context.Context, records []entity.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.read()
	if err != nil {
		return err
	}

	for _, r := range records {
		if _, exists := rooms[r.Label]; exists {
			continue
		}
		rooms[r.Label] = r.RoomURL
	}

	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rooms: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rooms file: %w", err)
	}
	return nil
}

func (s *FileStore) ListRooms(ctx context.Context) ([]entity.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.read()
	if err != nil {
		return nil, err
	}

	records := make([]entity.RoomRecord, 0, len(rooms))
	for label, url := range rooms {
		records = append(records, entity.RoomRecord{Label: label, RoomURL: url})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Label < records[j].Label })
	return records, nil
}

func (s *FileStore) read() (map[string]string, error) {
	rooms := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return rooms, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms file: %w", err)
	}
	if len(data) == 0 {
		return rooms, nil
	}

	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("rooms file is corrupt: %w", err)
	}
	return rooms, nil
}
