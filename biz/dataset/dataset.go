// Package dataset 提供按 id 索引、支持幂等 upsert 的可视化记录集合。
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrInvalidRecord 表示记录校验失败，数据集拒绝写入
var ErrInvalidRecord = errors.New("dataset: invalid record")

// Record 是可以放入数据集的记录
type Record interface {
	Key() int64
	Validate() error
}

// DataSet 是并发安全的键控集合。Upsert 整条替换，Update 原地修改已存在的记录。
type DataSet[T Record] struct {
	mu    sync.RWMutex
	items map[int64]T
}

// New 创建一个空数据集
func New[T Record]() *DataSet[T] {
	return &DataSet[T]{items: make(map[int64]T)}
}

// Upsert 插入或整条替换记录
func (d *DataSet[T]) Upsert(item T) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	d.mu.Lock()
	d.items[item.Key()] = item
	d.mu.Unlock()
	return nil
}

// Update 对已存在的记录执行 fn；记录不存在时返回 false 且不做任何事。
// fn 修改后的记录若校验失败则保持原值。
func (d *DataSet[T]) Update(id int64, fn func(*T)) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	item, ok := d.items[id]
	if !ok {
		return false, nil
	}
	fn(&item)
	if err := item.Validate(); err != nil {
		return true, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	d.items[id] = item
	return true, nil
}

// Get 按 id 读取记录
func (d *DataSet[T]) Get(id int64) (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	item, ok := d.items[id]
	return item, ok
}

// Remove 删除记录，返回记录是否存在
func (d *DataSet[T]) Remove(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.items[id]
	delete(d.items, id)
	return ok
}

// Clear 清空数据集并返回被删除的记录数
func (d *DataSet[T]) Clear() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	d.items = make(map[int64]T)
	return n
}

func (d *DataSet[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.items)
}

// Items 返回按 id 升序排列的记录副本
func (d *DataSet[T]) Items() []T {
	d.mu.RLock()
	out := make([]T, 0, len(d.items))
	for _, item := range d.items {
		out = append(out, item)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
