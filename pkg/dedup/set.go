package dedup

import "sync"

// Set 已转换为 ActionRecord 的指纹集合，并发安全
type Set struct {
	mu     sync.Mutex
	hashes map[string]struct{}
}

func NewSet() *Set {
	return &Set{hashes: make(map[string]struct{})}
}

// Contains 判断指纹是否已处理
func (s *Set) Contains(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hashes[fp]
	return ok
}

// Mark 标记指纹为已处理
func (s *Set) Mark(fp string) {
	s.mu.Lock()
	s.hashes[fp] = struct{}{}
	s.mu.Unlock()
}

// TryMark 不存在时插入并返回 true，已存在返回 false。
// 检查与插入在同一把锁内完成。
func (s *Set) TryMark(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[fp]; ok {
		return false
	}
	s.hashes[fp] = struct{}{}
	return true
}

// Forget 撤销一次 TryMark 预留（记录写入失败时使用）
func (s *Set) Forget(fp string) {
	s.mu.Lock()
	delete(s.hashes, fp)
	s.mu.Unlock()
}

// Merge 合并其他来源的指纹
func (s *Set) Merge(fps []string) {
	s.mu.Lock()
	for _, fp := range fps {
		s.hashes[fp] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}
