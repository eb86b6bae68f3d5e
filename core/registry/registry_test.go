package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
	"github.com/longkeyy/go-dsloader/core/loader"
)

// fakeClient 同时满足 Queue 与 SQL 两类接口
type fakeClient struct {
	plugin   string
	category plugin.Category
	root     string
}

func (f *fakeClient) TestCon(ctx context.Context, src source.Source) (bool, error) { return true, nil }

func (f *fakeClient) ListTopics(ctx context.Context, src source.Source) ([]string, error) {
	return []string{"orders"}, nil
}

func (f *fakeClient) CreateTopic(ctx context.Context, src source.Source, spec client.TopicSpec) error {
	return nil
}

func (f *fakeClient) Produce(ctx context.Context, src source.Source, topic string, msgs ...client.Message) error {
	return nil
}

func (f *fakeClient) Consume(ctx context.Context, src source.Source, topic string, max int) ([]client.Message, error) {
	return nil, nil
}

func (f *fakeClient) ExecuteQuery(ctx context.Context, src source.Source, query string, args ...any) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeClient) ExecuteSQLWithoutResultSet(ctx context.Context, src source.Source, stmt string, args ...any) error {
	return nil
}

func (f *fakeClient) GetAllDatabases(ctx context.Context, src source.Source) ([]string, error) {
	return nil, nil
}

func (f *fakeClient) GetTableList(ctx context.Context, src source.Source, schema string) ([]string, error) {
	return nil, nil
}

func (f *fakeClient) GetColumnMetaData(ctx context.Context, src source.Source, schema, table string) ([]client.ColumnMeta, error) {
	return nil, nil
}

type countingLoader struct {
	mu       sync.Mutex
	calls    map[string]int
	requests []loader.Request
	load     func(req loader.Request) (any, error)
}

func newCountingLoader() *countingLoader {
	return &countingLoader{calls: make(map[string]int)}
}

func (c *countingLoader) Load(req loader.Request) (any, error) {
	c.mu.Lock()
	c.calls[req.Category.String()+"/"+req.PluginName]++
	c.requests = append(c.requests, req)
	fn := c.load
	c.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return &fakeClient{plugin: req.PluginName, category: req.Category, root: req.Root}, nil
}

func (c *countingLoader) count(category plugin.Category, name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[category.String()+"/"+name]
}

func (c *countingLoader) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func newTestRegistry(l loader.Loader, opts ...Option) *ClientRegistry {
	opts = append([]Option{WithLoader(l), WithLogger(logger.Nop()), WithPluginRoot("/opt/plugins/")}, opts...)
	return New(opts...)
}

func TestConcurrentFirstUseLoadsOnce(t *testing.T) {
	l := newCountingLoader()
	l.load = func(req loader.Request) (any, error) {
		time.Sleep(20 * time.Millisecond)
		return &fakeClient{plugin: req.PluginName, category: req.Category}, nil
	}
	r := newTestRegistry(l)

	const callers = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]client.QueueClient, callers)
		errs    = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = r.Queue(source.Kafka)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, l.count(plugin.Queue, "kafka"))

	again, err := r.Queue(source.Kafka)
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, 1, l.total())

	stats := r.Stats(plugin.Queue)
	assert.Equal(t, int64(1), stats.Loads)
	assert.Equal(t, int64(callers), stats.Hits)
	assert.Zero(t, stats.Failures)
}

func TestFailureIsNotCached(t *testing.T) {
	l := newCountingLoader()
	var attempts atomic.Int32
	l.load = func(req loader.Request) (any, error) {
		if attempts.Add(1) == 1 {
			return nil, errors.New("artifact locked")
		}
		return &fakeClient{plugin: req.PluginName}, nil
	}
	r := newTestRegistry(l)

	_, err := r.Queue(source.Kafka)
	require.Error(t, err)
	var accessErr *plugin.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, plugin.Queue, accessErr.Category)
	assert.Equal(t, "kafka", accessErr.PluginName)
	assert.Contains(t, err.Error(), "artifact locked")
	assert.Empty(t, r.Cached(plugin.Queue))

	c, err := r.Queue(source.Kafka)
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 2, l.count(plugin.Queue, "kafka"))
	assert.Equal(t, []string{"kafka"}, r.Cached(plugin.Queue))

	stats := r.Stats(plugin.Queue)
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, int64(1), stats.Loads)
}

func TestLoaderSentinelSurvivesWrapping(t *testing.T) {
	l := newCountingLoader()
	l.load = func(req loader.Request) (any, error) {
		return nil, errors.Join(plugin.ErrPluginLoad, os.ErrNotExist)
	}
	r := newTestRegistry(l)

	_, err := r.SQL(source.MySQL)
	require.ErrorIs(t, err, plugin.ErrPluginLoad)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnknownTypeNeverReachesLoader(t *testing.T) {
	l := newCountingLoader()
	r := newTestRegistry(l)

	_, err := r.Queue(source.Unknown)
	require.ErrorIs(t, err, plugin.ErrUnknownSourceType)

	_, err = r.Client(plugin.SQL, source.Type(424242))
	require.ErrorIs(t, err, plugin.ErrUnknownSourceType)

	_, err = r.SQL(source.Kafka)
	require.ErrorIs(t, err, plugin.ErrUnsupportedOperation)

	_, err = r.Client(plugin.Category(99), source.Kafka)
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	assert.Zero(t, l.total())
}

func TestPartitionsAreIndependent(t *testing.T) {
	l := newCountingLoader()
	entered := make(chan struct{})
	release := make(chan struct{})
	l.load = func(req loader.Request) (any, error) {
		if req.Category == plugin.SQL {
			close(entered)
			<-release
		}
		return &fakeClient{plugin: req.PluginName, category: req.Category}, nil
	}
	r := newTestRegistry(l)

	done := make(chan error, 1)
	go func() {
		_, err := r.SQL(source.MySQL)
		done <- err
	}()
	<-entered

	queue, err := r.Queue(source.Kafka)
	require.NoError(t, err)
	assert.NotNil(t, queue)

	close(release)
	require.NoError(t, <-done)
}

func TestSamePluginSeparatePerCategory(t *testing.T) {
	l := newCountingLoader()
	r := newTestRegistry(l)

	sqlClient, err := r.Client(plugin.SQL, source.MySQL)
	require.NoError(t, err)
	tableClient, err := r.Client(plugin.Table, source.MySQL)
	require.NoError(t, err)

	assert.NotSame(t, sqlClient, tableClient)
	assert.Equal(t, 1, l.count(plugin.SQL, "mysql5"))
	assert.Equal(t, 1, l.count(plugin.Table, "mysql5"))

	// mysql5 与 mysql8 是不同插件
	_, err = r.SQL(source.MySQL8)
	require.NoError(t, err)
	assert.Equal(t, []string{"mysql5", "mysql8"}, r.Cached(plugin.SQL))
}

func TestPluginRootChangeAffectsOnlyNewLoads(t *testing.T) {
	l := newCountingLoader()
	r := newTestRegistry(l)
	assert.Equal(t, "/opt/plugins/", r.PluginRoot())

	first, err := r.Queue(source.Kafka)
	require.NoError(t, err)

	r.SetPluginRoot("/srv/other/")
	r.SetStrictVerify(true)
	assert.True(t, r.StrictVerify())

	cached, err := r.Queue(source.Kafka)
	require.NoError(t, err)
	assert.Same(t, first, cached)
	assert.Equal(t, "/opt/plugins/", first.(*fakeClient).root)

	rabbit, err := r.Queue(source.RabbitMQ)
	require.NoError(t, err)
	assert.Equal(t, "/srv/other/", rabbit.(*fakeClient).root)

	l.mu.Lock()
	last := l.requests[len(l.requests)-1]
	l.mu.Unlock()
	assert.True(t, last.Strict)
	assert.Equal(t, "rabbitmq", last.PluginName)
}

func TestReset(t *testing.T) {
	l := newCountingLoader()
	r := newTestRegistry(l)

	first, err := r.Queue(source.Kafka)
	require.NoError(t, err)

	r.Reset()
	assert.Empty(t, r.Cached(plugin.Queue))
	assert.Equal(t, StatsSnapshot{Category: plugin.Queue}, r.Stats(plugin.Queue))

	second, err := r.Queue(source.Kafka)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, l.count(plugin.Queue, "kafka"))
}

func TestTypedGetterRejectsForeignInstance(t *testing.T) {
	l := newCountingLoader()
	l.load = func(req loader.Request) (any, error) {
		return struct{}{}, nil
	}
	r := newTestRegistry(l)

	_, err := r.Search(source.ES7)
	require.ErrorIs(t, err, plugin.ErrContractViolation)
	var accessErr *plugin.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "es7", accessErr.PluginName)
}

func TestNilInstanceIsFailure(t *testing.T) {
	l := newCountingLoader()
	l.load = func(req loader.Request) (any, error) { return nil, nil }
	r := newTestRegistry(l)

	_, err := r.Client(plugin.Queue, source.Kafka)
	require.Error(t, err)
	assert.Empty(t, r.Cached(plugin.Queue))
}

func TestWarm(t *testing.T) {
	l := newCountingLoader()
	l.load = func(req loader.Request) (any, error) {
		if req.PluginName == "redis" {
			return nil, plugin.ErrPluginLoad
		}
		return &fakeClient{plugin: req.PluginName}, nil
	}
	r := newTestRegistry(l)

	err := r.Warm(context.Background(), []source.Type{source.Kafka, source.MySQL, source.Redis, source.Unknown}, 2)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	require.ErrorIs(t, err, plugin.ErrUnknownSourceType)
	require.ErrorIs(t, err, plugin.ErrPluginLoad)

	assert.Equal(t, []string{"kafka"}, r.Cached(plugin.Queue))
	assert.Equal(t, []string{"mysql5"}, r.Cached(plugin.SQL))
	assert.Empty(t, r.Cached(plugin.Table))

	require.NoError(t, r.Warm(context.Background(), []source.Type{source.Kafka}, 0))
	assert.Equal(t, 1, l.count(plugin.Queue, "kafka"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, r.Warm(ctx, []source.Type{source.Doris}, 1), context.Canceled)
	assert.Zero(t, l.count(plugin.SQL, "doris"))
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestWithIsolatedLoader(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "kafka"), 0o755))

	var constructed atomic.Int32
	entrypoints := plugin.NewEntrypointRegistry()
	require.NoError(t, entrypoints.Register("kafka", plugin.Queue, func() any {
		constructed.Add(1)
		return &fakeClient{plugin: "kafka"}
	}))

	r := New(
		WithLogger(logger.Nop()),
		WithPluginRoot(root),
		WithLoader(loader.New(loader.WithEntrypoints(entrypoints), loader.WithLogger(logger.Nop()))),
	)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Queue(source.Kafka)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), constructed.Load())

	_, err := r.Queue(source.RabbitMQ)
	require.ErrorIs(t, err, plugin.ErrPluginLoad)
}
