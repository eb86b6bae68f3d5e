package tdengine

import (
	"github.com/longkeyy/go-dsloader/common/plugin"
)

func init() {
	plugin.Register("tdengine", plugin.TimeSeries, NewTimeSeriesClient)
}
