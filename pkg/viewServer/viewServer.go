// Package viewServer exposes the console's view state and actions as a JSON
// API a browser front end can poll.
package viewServer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/internal/metrics/metricsTypes"
	"github.com/claimstake/console/pkg/clients/recordKeeper"
	"github.com/claimstake/console/pkg/orchestrator"
	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/presentation"
	"github.com/claimstake/console/pkg/storage"
	"github.com/claimstake/console/pkg/viewState"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type SessionView interface {
	Snapshot() viewState.ViewState
	OnPageChanged(ctx context.Context, window paginator.PageWindow) error
}

type Actions interface {
	Claim(ctx context.Context, amount string) *orchestrator.Outcome
	StakeFromClaim(ctx context.Context, amount string, months uint64) *orchestrator.Outcome
	Stake(ctx context.Context, amount string, months uint64) *orchestrator.Outcome
	Withdraw(ctx context.Context, index uint64) *orchestrator.Outcome
	ClaimRewards(ctx context.Context, index uint64) *orchestrator.Outcome
	SetClaimStart(ctx context.Context, input string) *orchestrator.Outcome
	SetClaim(ctx context.Context, user string, amount string) *orchestrator.Outcome
}

type RecordLister interface {
	Enabled() bool
	ListStakes(ctx context.Context, user string) ([]*recordKeeper.StakeSummary, error)
}

type ViewServerConfig struct {
	Port        int
	CorsOrigins []string
	Location    *time.Location
}

type ViewServer struct {
	config   *ViewServerConfig
	session  SessionView
	actions  Actions
	records  RecordLister
	journal  storage.JournalStore
	activity *ActivityFeed
	metrics  *metrics.MetricsSink
	logger   *zap.Logger

	router  *mux.Router
	handler http.Handler
	server  *http.Server

	// now is swapped in tests
	now func() time.Time
}

func NewViewServer(
	cfg *ViewServerConfig,
	session SessionView,
	actions Actions,
	records RecordLister,
	journal storage.JournalStore,
	activity *ActivityFeed,
	ms *metrics.MetricsSink,
	l *zap.Logger,
) *ViewServer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if journal == nil {
		journal = storage.NewNoopJournalStore()
	}
	vs := &ViewServer{
		config:   cfg,
		session:  session,
		actions:  actions,
		records:  records,
		journal:  journal,
		activity: activity,
		metrics:  ms,
		logger:   l,
		now:      time.Now,
	}
	vs.setupRoutes()
	return vs
}

func (vs *ViewServer) setupRoutes() {
	vs.router = mux.NewRouter()

	api := vs.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", vs.getState).Methods(http.MethodGet)
	api.HandleFunc("/stakes", vs.getStakes).Methods(http.MethodGet)
	api.HandleFunc("/records", vs.getRecords).Methods(http.MethodGet)
	api.HandleFunc("/activity", vs.getActivity).Methods(http.MethodGet)
	api.HandleFunc("/history", vs.getHistory).Methods(http.MethodGet)

	api.HandleFunc("/claim", vs.postClaim).Methods(http.MethodPost)
	api.HandleFunc("/claim/stake", vs.postStakeFromClaim).Methods(http.MethodPost)
	api.HandleFunc("/stake", vs.postStake).Methods(http.MethodPost)
	api.HandleFunc("/stakes/{index:[0-9]+}/withdraw", vs.postWithdraw).Methods(http.MethodPost)
	api.HandleFunc("/stakes/{index:[0-9]+}/rewards", vs.postClaimRewards).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(vs.ownerOnlyMiddleware)
	admin.HandleFunc("/claim-start", vs.postSetClaimStart).Methods(http.MethodPost)
	admin.HandleFunc("/claim", vs.postSetClaim).Methods(http.MethodPost)

	origins := vs.config.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	vs.router.Use(vs.metricsMiddleware)

	// cors wraps the router so preflight requests never reach route matching
	vs.handler = c.Handler(vs.router)
}

func (vs *ViewServer) Handler() http.Handler {
	return vs.handler
}

func (vs *ViewServer) Start() error {
	vs.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", vs.config.Port),
		Handler:      vs.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	vs.logger.Sugar().Infow("Starting view server", zap.Int("port", vs.config.Port))

	err := vs.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (vs *ViewServer) Stop(ctx context.Context) error {
	if vs.server == nil {
		return nil
	}
	return vs.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (vs *ViewServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		labels := []metricsTypes.MetricsLabel{{Name: "route", Value: route}}
		_ = vs.metrics.Incr(metricsTypes.Metric_Incr_HttpRequest, append(labels, metricsTypes.MetricsLabel{
			Name: "status", Value: strconv.Itoa(sr.statusCode),
		}), 1)
		_ = vs.metrics.Timing(metricsTypes.Metric_Timing_HttpDuration, time.Since(start), labels)

		vs.logger.Sugar().Debugw("Handled request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", sr.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// ownerOnlyMiddleware hides the owner panel actions from everyone but the
// claiming contract owner.
func (vs *ViewServer) ownerOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := vs.session.Snapshot()
		if !presentation.IsOwner(s.Connection, s.Claim.Owner, s.Claim.OwnerKnown) {
			vs.writeError(w, "Only the claiming contract owner can do this", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (vs *ViewServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		vs.logger.Sugar().Errorw("Failed to encode response", zap.Error(err))
	}
}

func (vs *ViewServer) writeError(w http.ResponseWriter, message string, status int) {
	vs.writeJSON(w, status, map[string]interface{}{
		"error":  message,
		"status": status,
	})
}
