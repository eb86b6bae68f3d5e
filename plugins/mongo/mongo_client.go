package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

const (
	DefaultConnectTimeout = 10 * time.Second
	// DefaultFindLimit Find 未指定 limit 时的文档数上限
	DefaultFindLimit = 100
)

// DocumentClient MongoDB 客户端，按 URI 复用 *mongo.Client
type DocumentClient struct {
	clients *conncache.Cache[string, *mongo.Client]
	log     logger.PluginLogger
}

var _ client.DocumentClient = (*DocumentClient)(nil)

func NewDocumentClient() any {
	return &DocumentClient{
		clients: conncache.New[string, *mongo.Client](func(c *mongo.Client) error {
			return c.Disconnect(context.Background())
		}),
		log: logger.Nop().Plugin(),
	}
}

func (c *DocumentClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func (c *DocumentClient) conn(src source.Source) (*mongo.Client, *source.MongoSource, error) {
	ms, err := source.As[*source.MongoSource](src)
	if err != nil {
		return nil, nil, err
	}
	if ms.URI == "" {
		return nil, nil, fmt.Errorf("%w: mongodb uri is empty", plugin.ErrInvalidSource)
	}
	mc, err := c.clients.Get(ms.URI, func() (*mongo.Client, error) {
		clientOptions := options.Client().ApplyURI(ms.URI).SetConnectTimeout(DefaultConnectTimeout)
		if err := clientOptions.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", plugin.ErrInvalidSource, err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
		defer cancel()
		return mongo.Connect(ctx, clientOptions)
	})
	return mc, ms, err
}

func database(ms *source.MongoSource, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if ms.Database != "" {
		return ms.Database, nil
	}
	return "", fmt.Errorf("%w: database is empty", plugin.ErrInvalidArgument)
}

func (c *DocumentClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	mc, _, err := c.conn(src)
	if err != nil {
		return false, err
	}
	if err := mc.Ping(ctx, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DocumentClient) ListDatabases(ctx context.Context, src source.Source) ([]string, error) {
	mc, _, err := c.conn(src)
	if err != nil {
		return nil, err
	}
	return mc.ListDatabaseNames(ctx, bson.D{})
}

func (c *DocumentClient) ListCollections(ctx context.Context, src source.Source, db string) ([]string, error) {
	mc, ms, err := c.conn(src)
	if err != nil {
		return nil, err
	}
	name, err := database(ms, db)
	if err != nil {
		return nil, err
	}
	return mc.Database(name).ListCollectionNames(ctx, bson.D{})
}

func (c *DocumentClient) Find(ctx context.Context, src source.Source, db, collection string, filter map[string]any, limit int) ([]map[string]any, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is empty", plugin.ErrInvalidArgument)
	}
	mc, ms, err := c.conn(src)
	if err != nil {
		return nil, err
	}
	name, err := database(ms, db)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultFindLimit
	}

	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}
	cursor, err := mc.Database(name).Collection(collection).Find(ctx, query, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to execute MongoDB query: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]any
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, ConvertDocument(doc))
	}
	return docs, cursor.Err()
}

// Insert 返回写入的文档数
func (c *DocumentClient) Insert(ctx context.Context, src source.Source, db, collection string, docs ...map[string]any) (int, error) {
	if collection == "" {
		return 0, fmt.Errorf("%w: collection is empty", plugin.ErrInvalidArgument)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	mc, ms, err := c.conn(src)
	if err != nil {
		return 0, err
	}
	name, err := database(ms, db)
	if err != nil {
		return 0, err
	}

	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = bson.M(d)
	}
	result, err := mc.Database(name).Collection(collection).InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to insert documents: %w", err)
	}
	return len(result.InsertedIDs), nil
}

// ConvertDocument 将驱动类型转换为普通 Go 值，ObjectID 转为十六进制串
func ConvertDocument(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Decimal128:
		return x.String()
	case bson.M:
		return ConvertDocument(x)
	case bson.D:
		return ConvertDocument(bson.M(x.Map()))
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertValue(e)
		}
		return out
	default:
		return v
	}
}
