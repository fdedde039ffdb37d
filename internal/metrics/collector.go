// Package metrics exports merchant aggregates to Prometheus.
package metrics

import (
	"net/http"

	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recordstore"

// TotalsSource is read on every scrape.
type TotalsSource interface {
	Totals() merchant.Totals
}

// Collector reports merchant totals as gauges. Values are taken from one
// Totals call per scrape, so a scrape never mixes two states.
type Collector struct {
	source TotalsSource

	distinctItems *prometheus.Desc
	onHand        *prometheus.Desc
	reserved      *prometheus.Desc
	reservedValue *prometheus.Desc
	unitsSold     *prometheus.Desc
	valueSold     *prometheus.Desc
	reservations  *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source TotalsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &Collector{
		source:        source,
		distinctItems: desc("distinct_items", "Number of distinct records in the catalog."),
		onHand:        desc("units_on_hand", "Units physically in the shop, reserved or not."),
		reserved:      desc("units_reserved", "Units held by live reservations."),
		reservedValue: desc("reserved_value_pence", "Value of reserved units at current prices, in pence."),
		unitsSold:     desc("units_sold", "Units sold since the last sales tracking reset."),
		valueSold:     desc("value_sold_pence", "Revenue since the last sales tracking reset, in pence."),
		reservations:  desc("live_reservations", "Number of live reservations."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.distinctItems
	ch <- c.onHand
	ch <- c.reserved
	ch <- c.reservedValue
	ch <- c.unitsSold
	ch <- c.valueSold
	ch <- c.reservations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	t := c.source.Totals()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.distinctItems, float64(t.DistinctItems))
	gauge(c.onHand, float64(t.OnHand))
	gauge(c.reserved, float64(t.Reserved))
	gauge(c.reservedValue, float64(t.ReservedValue))
	gauge(c.unitsSold, float64(t.UnitsSold))
	gauge(c.valueSold, float64(t.ValueSold))
	gauge(c.reservations, float64(t.Reservations))
}

// NewRegistry returns a registry holding the merchant collector plus the Go
// runtime and process collectors.
func NewRegistry(source TotalsSource) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(source),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
