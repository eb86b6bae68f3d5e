package client

import (
	"fmt"

	"github.com/longkeyy/go-dsloader/common/plugin"
)

// Conforms 检查实例是否实现了类别对应的能力接口
func Conforms(category plugin.Category, v any) error {
	var ok bool
	switch category {
	case plugin.SQL:
		_, ok = v.(SQLClient)
	case plugin.File:
		_, ok = v.(FileClient)
	case plugin.Queue:
		_, ok = v.(QueueClient)
	case plugin.Auth:
		_, ok = v.(AuthClient)
	case plugin.WideColumn:
		_, ok = v.(WideColumnClient)
	case plugin.Table:
		_, ok = v.(TableClient)
	case plugin.TimeSeries:
		_, ok = v.(TimeSeriesClient)
	case plugin.Http:
		_, ok = v.(HttpClient)
	case plugin.KeyValue:
		_, ok = v.(KeyValueClient)
	case plugin.Graph:
		_, ok = v.(GraphClient)
	case plugin.GraphV2:
		_, ok = v.(GraphV2Client)
	case plugin.Document:
		_, ok = v.(DocumentClient)
	case plugin.Search:
		_, ok = v.(SearchClient)
	default:
		return fmt.Errorf("%w: unknown category %s", plugin.ErrInvalidArgument, category)
	}

	if !ok {
		return fmt.Errorf("%w: %T is not a %s", plugin.ErrContractViolation, v, category.Entrypoint())
	}
	return nil
}
