package alert

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var inconsistencies = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leads_inconsistency_total",
	Help: "Fluxos que deixaram o lead em estado parcial",
}, []string{"flow"})

// Init configura o SDK. Sem DSN o Sentry fica desligado e o reporter só loga e conta.
func Init(dsn, env string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		AttachStacktrace: true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

// Reporter registra as janelas de inconsistência conhecidas.
type Reporter struct {
	hub    *sentry.Hub
	logger *zap.Logger
}

// NewReporter: hub nil desliga o envio ao Sentry.
func NewReporter(hub *sentry.Hub, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{hub: hub, logger: logger}
}

func (r *Reporter) ReportInconsistency(ctx context.Context, flow, leadID string, err error) {
	inconsistencies.WithLabelValues(flow).Inc()
	r.logger.Error("inconsistência registrada",
		zap.String("flow", flow),
		zap.String("lead_id", leadID),
		zap.Error(err),
	)

	if r.hub == nil {
		return
	}
	hub := r.hub
	if h := sentry.GetHubFromContext(ctx); h != nil {
		hub = h
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("flow", flow)
		scope.SetTag("lead_id", leadID)
		scope.SetLevel(sentry.LevelError)
		hub.CaptureException(err)
	})
}
