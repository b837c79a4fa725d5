package history

import "context"

// Key 是整个历史记录在各存储后端中的固定键名。
const Key = "storyHistory"

// Store holds the serialized log as a single blob. Write always replaces
// the whole blob; Read returns nil data when nothing has been stored yet.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}
