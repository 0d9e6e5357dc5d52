package observability

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const CollectionStatsName = "xcoll/collection"

// CollectionStats counts the mutations of one sorted collection.
// The instruments are shared by all collections, they are told apart by
// the component attribute.
type CollectionStats struct {
	ctx      context.Context
	attrs    metric.MeasurementOption
	adds     metric.Int64Counter
	removes  metric.Int64Counter
	notFound metric.Int64Counter
	size     metric.Int64UpDownCounter
}

// NewCollectionStats uses the global meter provider if mp is absent.
func NewCollectionStats(component string, mp ...metric.MeterProvider) *CollectionStats {
	provider := otel.GetMeterProvider()
	if len(mp) > 0 && mp[0] != nil {
		provider = mp[0]
	}
	meter := provider.Meter(CollectionStatsName)
	return &CollectionStats{
		ctx:   context.Background(),
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("component", component))),
		adds: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xcoll.collection.adds",
			metric.WithDescription("The number of values added into the collection."),
		)),
		removes: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xcoll.collection.removes",
			metric.WithDescription("The number of values removed from the collection."),
		)),
		notFound: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xcoll.collection.not_found",
			metric.WithDescription("The number of removals of absent values."),
		)),
		size: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"xcoll.collection.size",
			metric.WithDescription("The number of values in the collection."),
		)),
	}
}

func (stats *CollectionStats) recordAdd() {
	stats.adds.Add(stats.ctx, 1, stats.attrs)
	stats.size.Add(stats.ctx, 1, stats.attrs)
}

func (stats *CollectionStats) recordRemove() {
	stats.removes.Add(stats.ctx, 1, stats.attrs)
	stats.size.Add(stats.ctx, -1, stats.attrs)
}

func (stats *CollectionStats) recordNotFound() {
	stats.notFound.Add(stats.ctx, 1, stats.attrs)
}
