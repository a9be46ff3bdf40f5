// Package history 提供每设备的有界历史存储
//
// 每个设备一条追加写入的读数序列（最旧在前），超出容量后 FIFO 淘汰最旧记录。
// 同一设备的写入串行化（每设备独立锁），不同设备互不阻塞。
// 读取返回副本，与同设备的并发写入可能返回写入前或写入后的快照，
// 这是接受的竞态，不提供跨单次读取的一致性保证。
package history

import (
	"sync"
	"time"

	"wisefido-health-monitor/internal/models"
)

// DefaultCap 默认每设备历史容量
const DefaultCap = 100

// Store 每设备历史存储
type Store struct {
	mu      sync.RWMutex // 保护 devices 映射本身
	cap     int
	devices map[string]*deviceHistory
}

// deviceHistory 单设备历史（独立锁，设备间写入互不干扰）
type deviceHistory struct {
	mu       sync.Mutex
	readings []models.Reading
}

// NewStore 创建历史存储
// capacity <= 0 时使用 DefaultCap
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{
		cap:     capacity,
		devices: make(map[string]*deviceHistory),
	}
}

// Append 追加一条读数
// 超出容量时丢弃最旧的记录，保留最近 cap 条
func (s *Store) Append(deviceID string, reading models.Reading) {
	d := s.device(deviceID)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.readings = append(d.readings, reading)
	if len(d.readings) > s.cap {
		// 拷贝尾部，避免底层数组残留已淘汰的记录
		trimmed := make([]models.Reading, s.cap)
		copy(trimmed, d.readings[len(d.readings)-s.cap:])
		d.readings = trimmed
	}
}

// Recent 返回最近 n 条读数（最旧在前）
// n <= 0 或 n 超过已有数量时返回全部
func (s *Store) Recent(deviceID string, n int) []models.Reading {
	d := s.lookup(deviceID)
	if d == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	start := 0
	if n > 0 && n < len(d.readings) {
		start = len(d.readings) - n
	}

	out := make([]models.Reading, len(d.readings)-start)
	copy(out, d.readings[start:])
	return out
}

// RecentSince 返回时间戳晚于 now-maxAge 的读数（最旧在前）
func (s *Store) RecentSince(deviceID string, maxAge time.Duration) []models.Reading {
	d := s.lookup(deviceID)
	if d == nil {
		return nil
	}

	cutoff := time.Now().Add(-maxAge)

	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.Reading
	for _, r := range d.readings {
		if r.Timestamp.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Len 返回设备当前的历史条数
func (s *Store) Len(deviceID string) int {
	d := s.lookup(deviceID)
	if d == nil {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.readings)
}

// device 获取或创建设备历史
func (s *Store) device(deviceID string) *deviceHistory {
	s.mu.RLock()
	d, ok := s.devices[deviceID]
	s.mu.RUnlock()
	if ok {
		return d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok = s.devices[deviceID]; ok {
		return d
	}
	d = &deviceHistory{}
	s.devices[deviceID] = d
	return d
}

// lookup 查找设备历史（不存在时返回 nil）
func (s *Store) lookup(deviceID string) *deviceHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devices[deviceID]
}
