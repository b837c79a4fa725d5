// Package history persists saved generations as one newest-first log.
package history

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Log.Get when no entry has the requested id.
var ErrNotFound = errors.New("history entry not found")

// Entry 是一次保存的生成结果，创建后只允许删除。
// JSON 字段与浏览器版本 localStorage 中的格式一致。
type Entry struct {
	ID          int64    `json:"id"`
	CreatedAt   string   `json:"timestamp"`
	Story       string   `json:"story"`
	Definitions string   `json:"definitions"`
	Words       []string `json:"words"`
}

// Draft is what the caller supplies to Append; id and timestamp are assigned there.
type Draft struct {
	Story       string
	Definitions string
	Words       []string
}

// Log 按时间倒序排列，新记录在前。
type Log []Entry

func (l Log) Get(id int64) (Entry, error) {
	for _, e := range l {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
}

func (l Log) contains(id int64) bool {
	for _, e := range l {
		if e.ID == id {
			return true
		}
	}
	return false
}

// PersistenceReadError means the stored log could not be read or decoded.
// Load still returns an empty log alongside it.
type PersistenceReadError struct {
	Err error
}

func (e *PersistenceReadError) Error() string {
	return fmt.Sprintf("read history: %v", e.Err)
}

func (e *PersistenceReadError) Unwrap() error { return e.Err }
