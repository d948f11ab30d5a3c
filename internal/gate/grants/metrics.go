package grants

import (
	"errors"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts grant outcomes.
type Metrics struct {
	grantsTotal *prometheus.CounterVec
}

// NewMetrics registers thesisvault_grants_total on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		grantsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "thesisvault_grants_total",
				Help: "Signed URL grant requests by action and result",
			},
			[]string{"action", "result"},
		),
	}
}

func (m *Metrics) observe(action storage.Action, err error) {
	m.grantsTotal.WithLabelValues(string(action), resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "issued"
	case errors.Is(err, common.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, common.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
