package tracing

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	renderLatency = stats.Float64("mailcanvas/render/latency", "Time to render a block tree to HTML", stats.UnitMilliseconds)
	renderBytes   = stats.Int64("mailcanvas/render/bytes", "Size of rendered HTML", stats.UnitBytes)

	// KeyRenderSource distinguishes cached renders from fresh ones
	KeyRenderSource = tag.MustNewKey("render_source")
)

// RenderViews aggregate the render measures
var RenderViews = []*view.View{
	{
		Name:        "mailcanvas/render/latency",
		Measure:     renderLatency,
		Description: "Distribution of render latency",
		TagKeys:     []tag.Key{KeyRenderSource},
		Aggregation: view.Distribution(0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250),
	},
	{
		Name:        "mailcanvas/render/bytes",
		Measure:     renderBytes,
		Description: "Distribution of rendered HTML size",
		Aggregation: view.Distribution(1<<10, 4<<10, 16<<10, 64<<10, 256<<10, 1<<20),
	},
	{
		Name:        "mailcanvas/render/count",
		Measure:     renderLatency,
		Description: "Number of renders",
		TagKeys:     []tag.Key{KeyRenderSource},
		Aggregation: view.Count(),
	},
}

// RecordRender records one render. source is "cache" or "fresh".
func RecordRender(ctx context.Context, source string, elapsed time.Duration, size int) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyRenderSource, source)},
		renderLatency.M(float64(elapsed)/float64(time.Millisecond)),
		renderBytes.M(int64(size)),
	)
}
