package providers

import (
	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/metrics"
)

// ProvideMetrics provides the Prometheus registry. It returns nil when
// metrics are disabled; every consumer treats nil as "off".
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Metrics.Enabled {
		log.Info("Metrics disabled by configuration")
		return nil, nil
	}
	return metrics.New(), nil
}
