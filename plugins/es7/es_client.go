package es7

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/conncache"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// DefaultSearchSize Search 未指定 size 时的命中数
const DefaultSearchSize = 10

type clientKey struct {
	addresses string
	username  string
	password  string
	apiKey    string
}

// SearchClient Elasticsearch 客户端
type SearchClient struct {
	clients *conncache.Cache[clientKey, *elasticsearch.Client]
	log     logger.PluginLogger
}

var _ client.SearchClient = (*SearchClient)(nil)

func NewSearchClient() any {
	return &SearchClient{
		clients: conncache.New[clientKey, *elasticsearch.Client](nil),
		log:     logger.Nop().Plugin(),
	}
}

func (c *SearchClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

// Config 由数据源描述构建客户端配置
func Config(es *source.ElasticsearchSource) (elasticsearch.Config, error) {
	if len(es.Addresses) == 0 {
		return elasticsearch.Config{}, fmt.Errorf("%w: elasticsearch addresses are empty", plugin.ErrInvalidSource)
	}
	cfg := elasticsearch.Config{Addresses: es.Addresses}
	if es.APIKey != "" {
		cfg.APIKey = es.APIKey
	} else if es.Username != "" {
		cfg.Username = es.Username
		cfg.Password = es.Password
	}
	return cfg, nil
}

func (c *SearchClient) conn(src source.Source) (*elasticsearch.Client, error) {
	es, err := source.As[*source.ElasticsearchSource](src)
	if err != nil {
		return nil, err
	}
	cfg, err := Config(es)
	if err != nil {
		return nil, err
	}
	key := clientKey{
		addresses: strings.Join(es.Addresses, ","),
		username:  es.Username,
		password:  es.Password,
		apiKey:    es.APIKey,
	}
	return c.clients.Get(key, func() (*elasticsearch.Client, error) {
		ec, err := elasticsearch.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		return ec, nil
	})
}

func decode(res *esapi.Response, v any) error {
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode elasticsearch response: %w", err)
	}
	return nil
}

func (c *SearchClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	ec, err := c.conn(src)
	if err != nil {
		return false, err
	}
	res, err := ec.Info(ec.Info.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	if err := decode(res, nil); err != nil {
		return false, err
	}
	return true, nil
}

// ListIndices 不包含以点开头的系统索引
func (c *SearchClient) ListIndices(ctx context.Context, src source.Source) ([]string, error) {
	ec, err := c.conn(src)
	if err != nil {
		return nil, err
	}
	req := esapi.CatIndicesRequest{Format: "json", H: []string{"index"}}
	res, err := req.Do(ctx, ec)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Index string `json:"index"`
	}
	if err := decode(res, &rows); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Index == "" || strings.HasPrefix(r.Index, ".") {
			continue
		}
		names = append(names, r.Index)
	}
	sort.Strings(names)
	return names, nil
}

// SearchBody query 以 { 开头时视为完整的 query DSL，否则作为 query_string
func SearchBody(query string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSearchSize
	}
	body := map[string]any{"size": size}
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		body["query"] = map[string]any{"match_all": map[string]any{}}
	case strings.HasPrefix(query, "{"):
		var dsl map[string]any
		if err := json.Unmarshal([]byte(query), &dsl); err != nil {
			return nil, fmt.Errorf("%w: invalid query dsl: %w", plugin.ErrInvalidArgument, err)
		}
		body["query"] = dsl
	default:
		body["query"] = map[string]any{"query_string": map[string]any{"query": query}}
	}
	return json.Marshal(body)
}

// Search 返回命中文档的 _source，附带 _id 与 _index
func (c *SearchClient) Search(ctx context.Context, src source.Source, index, query string, size int) ([]map[string]any, error) {
	if index == "" {
		return nil, fmt.Errorf("%w: index is empty", plugin.ErrInvalidArgument)
	}
	body, err := SearchBody(query, size)
	if err != nil {
		return nil, err
	}
	ec, err := c.conn(src)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{Index: []string{index}, Body: bytes.NewReader(body)}
	res, err := req.Do(ctx, ec)
	if err != nil {
		return nil, err
	}
	var result struct {
		Hits struct {
			Hits []struct {
				Index  string         `json:"_index"`
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := decode(res, &result); err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := make(map[string]any, len(hit.Source)+2)
		for k, v := range hit.Source {
			doc[k] = v
		}
		doc["_id"] = hit.ID
		doc["_index"] = hit.Index
		docs = append(docs, doc)
	}
	return docs, nil
}

// Index 写入后立即刷新，id 为空时由服务端生成
func (c *SearchClient) Index(ctx context.Context, src source.Source, index, id string, doc map[string]any) error {
	if index == "" {
		return fmt.Errorf("%w: index is empty", plugin.ErrInvalidArgument)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", plugin.ErrInvalidArgument, err)
	}
	ec, err := c.conn(src)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, ec)
	if err != nil {
		return err
	}
	return decode(res, nil)
}
