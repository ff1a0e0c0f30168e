package receipt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabsplit_operations_total",
		Help: "Receipt operations by type.",
	}, []string{"op"})

	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabsplit_operation_errors_total",
		Help: "Failed receipt operations by type.",
	}, []string{"op"})
)

func countOp(op string, err error) {
	operationsTotal.WithLabelValues(op).Inc()
	if err != nil {
		operationErrors.WithLabelValues(op).Inc()
	}
}
