package registry

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/longkeyy/go-dsloader/common/source"
)

// DefaultWarmConcurrency Warm 未指定并发度时的上限
const DefaultWarmConcurrency = 4

// Warm 并发预加载各数据源类型的主类别客户端。
// 单个失败不影响其它类型，全部失败汇总后返回；ctx 取消后不再发起新的加载。
func (r *ClientRegistry) Warm(ctx context.Context, types []source.Type, concurrency int) error {
	if concurrency <= 0 {
		concurrency = DefaultWarmConcurrency
	}

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	record := func(err error) {
		mu.Lock()
		result = multierror.Append(result, err)
		mu.Unlock()
	}

	eg := new(errgroup.Group)
	eg.SetLimit(concurrency)
	for _, t := range types {
		if err := ctx.Err(); err != nil {
			record(err)
			break
		}
		eg.Go(func() error {
			entry, err := r.table.Resolve(t)
			if err != nil {
				record(err)
				return nil
			}
			if _, err := r.Client(entry.Primary(), t); err != nil {
				record(err)
				return nil
			}
			r.log.Debug("Client warmed",
				zap.String("type", entry.Name),
				zap.String("plugin", entry.PluginName))
			return nil
		})
	}
	_ = eg.Wait()

	return result.ErrorOrNil()
}
