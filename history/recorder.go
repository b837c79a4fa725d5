package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
)

// DefaultTimeLayout 与 zh-CN 的 toLocaleString 显示一致，例如 2024/3/5 14:07:09。
const DefaultTimeLayout = "2006/1/2 15:04:05"

// Recorder applies mutations to a Log and writes the whole result to a Store.
// The caller owns the in-memory Log; Recorder keeps no copy of it.
type Recorder struct {
	store  Store
	now    func() time.Time
	layout string
	loc    *time.Location
	logger *log.Logger
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithTimeFormat(layout string, loc *time.Location) Option {
	return func(r *Recorder) {
		if layout != "" {
			r.layout = layout
		}
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

func NewRecorder(store Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	r := &Recorder{
		store:  store,
		now:    time.Now,
		layout: DefaultTimeLayout,
		loc:    time.Local,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load 读取已保存的历史。没有数据时返回空记录；数据损坏时同样返回空记录，
// 并附带 *PersistenceReadError 供调用方记录。
func (r *Recorder) Load(ctx context.Context) (Log, error) {
	data, err := r.store.Read(ctx)
	if err != nil {
		perr := &PersistenceReadError{Err: err}
		r.logger.Printf("[history] %v; starting with an empty log", perr)
		return Log{}, perr
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Log{}, nil
	}
	var entries Log
	if err := json.Unmarshal(data, &entries); err != nil {
		perr := &PersistenceReadError{Err: err}
		r.logger.Printf("[history] %v; starting with an empty log", perr)
		return Log{}, perr
	}
	if entries == nil {
		entries = Log{}
	}
	return entries, nil
}

// Append 生成 id 与时间戳，把新记录放到最前面并整体写回。
// 写入失败时返回原来的 log。
func (r *Recorder) Append(ctx context.Context, current Log, d Draft) (Log, error) {
	now := r.now()
	id := now.UnixMilli()
	for current.contains(id) {
		id++
	}
	ws := make([]string, len(d.Words))
	copy(ws, d.Words)

	entry := Entry{
		ID:          id,
		CreatedAt:   now.In(r.loc).Format(r.layout),
		Story:       d.Story,
		Definitions: d.Definitions,
		Words:       ws,
	}
	next := make(Log, 0, len(current)+1)
	next = append(next, entry)
	next = append(next, current...)

	if err := r.persist(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

// Remove 删除指定 id 的记录，其余记录顺序不变。id 不存在时不做任何写入。
func (r *Recorder) Remove(ctx context.Context, current Log, id int64) (Log, error) {
	if !current.contains(id) {
		return current, nil
	}
	next := make(Log, 0, len(current)-1)
	for _, e := range current {
		if e.ID != id {
			next = append(next, e)
		}
	}
	if err := r.persist(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

func (r *Recorder) persist(ctx context.Context, entries Log) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.store.Write(ctx, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	r.logger.Printf("[history] saved %d entries", len(entries))
	return nil
}
