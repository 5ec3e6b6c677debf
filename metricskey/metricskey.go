package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfCryptoOperation is perf metric
	PerfCryptoOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_crypto",
		Help:         "perf_crypto provides the sample metrics of crypto operations",
		RequiredTags: []string{"provider", "action"},
	}

	// PerfReconcile is perf metric
	PerfReconcile = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_csr_reconcile",
		Help:         "perf_csr_reconcile provides the sample metrics of CSR reconcile passes",
		RequiredTags: []string{"algorithm", "outcome"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfCryptoOperation,
	&PerfReconcile,
}
