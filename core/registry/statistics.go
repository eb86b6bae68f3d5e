package registry

import (
	"sort"
	"sync/atomic"

	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
)

// Stats 单个类别分区的缓存计数
type Stats struct {
	hits     atomic.Int64
	loads    atomic.Int64
	failures atomic.Int64
}

// StatsSnapshot 某一时刻的计数快照
type StatsSnapshot struct {
	Category plugin.Category
	// Hits 命中缓存的次数
	Hits int64
	// Loads 成功加载并写入缓存的次数
	Loads int64
	// Failures 加载失败的次数，失败结果不缓存
	Failures int64
}

func (s *Stats) hit()     { s.hits.Add(1) }
func (s *Stats) load()    { s.loads.Add(1) }
func (s *Stats) failure() { s.failures.Add(1) }

func (s *Stats) reset() {
	s.hits.Store(0)
	s.loads.Store(0)
	s.failures.Store(0)
}

func (s *Stats) snapshot(category plugin.Category) StatsSnapshot {
	return StatsSnapshot{
		Category: category,
		Hits:     s.hits.Load(),
		Loads:    s.loads.Load(),
		Failures: s.failures.Load(),
	}
}

// Stats 返回类别的计数快照
func (r *ClientRegistry) Stats(category plugin.Category) StatsSnapshot {
	p, ok := r.partitions[category]
	if !ok {
		return StatsSnapshot{Category: category}
	}
	return p.stats.snapshot(category)
}

// LogStats 以 debug 级别输出全部类别的计数
func (r *ClientRegistry) LogStats(ml *logger.MetricsLogger) {
	for _, c := range plugin.Categories() {
		s := r.Stats(c)
		if s.Hits == 0 && s.Loads == 0 && s.Failures == 0 {
			continue
		}
		ml.LogCacheStats(c.String(), s.Hits, s.Loads, s.Failures)
	}
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
