package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
	"github.com/zatekoja/Telehealthmarketplace/backend/pkg/retry"
	"go.opentelemetry.io/otel/attribute"
)

// roleBuckets are the groups each dashboard renders, in display order
var roleBuckets = map[entities.Role][]entities.Bucket{
	entities.RoleDoctor:     {entities.BucketPending, entities.BucketCompleted},
	entities.RoleLaboratory: {entities.BucketPending, entities.BucketProcessing, entities.BucketCompleted},
	entities.RoleDelivery:   entities.Buckets,
	entities.RoleVendor:     entities.Buckets,
	entities.RolePatient:    entities.Buckets,
}

// BuildDashboardView derives the full view from one dashboard read. Records are
// classified, gated on payment per bucket and sorted by creation time, newest
// first. Ties keep server order. Counts are the lengths of the rendered lists.
func BuildDashboardView(role entities.Role, payload *entities.DashboardPayload, now time.Time) *entities.DashboardView {
	names, ok := roleBuckets[role]
	if !ok {
		names = entities.Buckets
	}

	grouped := make(map[entities.Bucket][]entities.Record, len(entities.Buckets))
	classes := make(map[entities.Record]entities.Classification)
	if payload != nil {
		for _, rec := range payload.Records {
			if entities.IsNilRecord(rec) {
				continue
			}
			c := ClassifyForRole(role, rec)
			classes[rec] = c
			grouped[c.Bucket] = append(grouped[c.Bucket], rec)
		}
	}

	view := &entities.DashboardView{
		Role:      role,
		Buckets:   make([]*entities.BucketView, 0, len(names)),
		FetchedAt: now,
	}
	for _, name := range names {
		visible := FilterPaid(grouped[name])
		sort.SliceStable(visible, func(i, j int) bool {
			return visible[i].Created().After(visible[j].Created())
		})

		bv := &entities.BucketView{Name: name, Records: make([]entities.RecordView, 0, len(visible))}
		for _, rec := range visible {
			c := classes[rec]
			bv.Records = append(bv.Records, entities.RecordView{
				Record:      rec,
				Domain:      rec.RecordDomain(),
				Bucket:      c.Bucket,
				Actions:     c.Actions,
				DisplayTime: displayTime(rec, now),
			})
		}
		bv.Count = len(bv.Records)
		view.Buckets = append(view.Buckets, bv)
	}
	return view
}

func displayTime(rec entities.Record, now time.Time) string {
	s, ok := rec.(entities.Scheduled)
	if !ok {
		return ""
	}
	slot, display := s.Slot()
	return entities.DisplayTimeSlot(slot, display, now)
}

// DashboardService refetches and rebuilds dashboard views
type DashboardService struct {
	api      providers.DashboardAPI
	notifier providers.Notifier
	metrics  *observability.Metrics
	retryCfg retry.Config
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(api providers.DashboardAPI, notifier providers.Notifier, metrics *observability.Metrics) *DashboardService {
	return &DashboardService{
		api:      api,
		notifier: notifier,
		metrics:  metrics,
		retryCfg: retry.ReadConfig(),
		now:      time.Now,
	}
}

// WithRetryConfig overrides the read retry policy
func (s *DashboardService) WithRetryConfig(cfg retry.Config) *DashboardService {
	s.retryCfg = cfg
	return s
}

// Refresh performs a full refetch and full rebuild for the screen. A response
// that arrives after a newer fetch was started is discarded and the screen's
// current view is returned instead. If the screen has no view yet the caller
// gets a conflict and should retry.
func (s *DashboardService) Refresh(ctx context.Context, screen *Screen) (*entities.DashboardView, error) {
	ctx, span := observability.StartSpan(ctx, "DashboardService.Refresh")
	defer span.End()

	gen := screen.BeginFetch()
	observability.SetSpanAttributes(span,
		attribute.String("dashboard.role", string(screen.Role)),
		attribute.Int64("dashboard.generation", int64(gen)),
	)
	logger := observability.LoggerFromContext(ctx)

	start := time.Now()
	var payload *entities.DashboardPayload
	err := retry.DoWithLog(ctx, s.retryCfg, "dashboard read", func() error {
		p, err := s.api.FetchDashboard(ctx, screen.Role)
		if err != nil {
			if !retryableRead(err) {
				return retry.Permanent(err)
			}
			return err
		}
		payload = p
		return nil
	}, func(attempt int, err error, next time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", next).
			Str("role", string(screen.Role)).Msg("dashboard read failed, retrying")
	})
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordDashboardFetch(ctx, s.metrics, string(screen.Role), time.Since(start), false)
		return nil, fmt.Errorf("failed to load %s dashboard: %w", screen.Role, err)
	}

	view := BuildDashboardView(screen.Role, payload, s.now())
	view.Generation = gen
	logCountMismatch(logger, payload, view)

	applied := screen.Apply(gen, view)
	observability.RecordDashboardFetch(ctx, s.metrics, string(screen.Role), time.Since(start), !applied)
	if !applied {
		logger.Debug().Uint64("generation", gen).Msg("discarding stale dashboard response")
		if current := screen.View(); current != nil {
			return current, nil
		}
		return nil, apperrors.NewConflictError("The dashboard is still loading. Please try again.")
	}

	if s.notifier != nil {
		n := entities.NewNotification(screen.SessionID, entities.NotificationDashboardRefreshed, entities.SeverityInfo, "")
		n.Payload = map[string]interface{}{
			"role":       string(screen.Role),
			"generation": gen,
			"counts":     view.Counts(),
		}
		s.notifier.Notify(ctx, n)
	}
	return view, nil
}

// retryableRead is true for transport failures and 5xx responses
func retryableRead(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		return true
	}
	if appErr.Type != apperrors.ErrorTypeExternal {
		return false
	}
	return appErr.StatusCode == 0 || appErr.StatusCode >= 500
}

// logCountMismatch notes when the server totals disagree with what is shown.
// Displayed counts always come from the filtered lists.
func logCountMismatch(logger *zerolog.Logger, payload *entities.DashboardPayload, view *entities.DashboardView) {
	if payload == nil || len(payload.ServerTotals) == 0 {
		return
	}
	serverTotal := 0
	for _, n := range payload.ServerTotals {
		serverTotal += n
	}
	shown := 0
	for _, b := range view.Buckets {
		shown += b.Count
	}
	if serverTotal != shown {
		logger.Debug().
			Str("role", string(view.Role)).
			Int("server_total", serverTotal).
			Int("shown", shown).
			Msg("server totals differ from displayed counts")
	}
}
