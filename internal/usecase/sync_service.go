package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/domain/team"
	"github.com/vglazkov/euro-oracle/internal/platform/logging"
	"github.com/vglazkov/euro-oracle/internal/platform/resilience"
)

// FixtureProvider pulls the season's fixtures from the remote feed.
// Implementations handle credential exchange and pagination; the
// returned slice covers every page.
type FixtureProvider interface {
	SeasonFixtures(ctx context.Context, seasonID int64) ([]ExternalFixture, error)
}

// ExternalFixture is one fixture as reported by the feed, already
// mapped out of the provider's stage-id scheme.
type ExternalFixture struct {
	ExternalID     int64
	SeasonID       int64
	Stage          match.Stage
	Group          string
	StartAt        time.Time
	Status         string
	Venue          string
	HomeTeam       ExternalTeam
	AwayTeam       ExternalTeam
	HomeScore90    *int
	AwayScore90    *int
	HomeScoreTotal *int
	AwayScoreTotal *int
}

type ExternalTeam struct {
	ExternalID int64
	Name       string
}

// TxRunner executes a function inside one storage transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ResultNotification is a queued message for a user whose prediction
// was just scored.
type ResultNotification struct {
	ChatID int64
	Text   string
}

// ResultNotifier delivers scoring notifications best-effort, after the
// scoring transaction has committed.
type ResultNotifier interface {
	Dispatch(ctx context.Context, notifications []ResultNotification)
}

// SyncService reconciles the provider's fixtures into local matches
// and teams, and triggers scoring for newly finished matches.
type SyncService struct {
	provider  FixtureProvider
	tx        TxRunner
	matchRepo match.Repository
	teamRepo  team.Repository
	scoring   *ScoringService
	notifier  ResultNotifier
	log       *logging.Logger

	seasonID int64
	interval time.Duration
	flight   resilience.SingleFlight
	now      func() time.Time

	statusMu sync.Mutex
	status   SyncStatus
}

// SyncStatus is a point-in-time view of the sync loop.
type SyncStatus struct {
	LastRunAt time.Time
	LastError string
	Fixtures  int
	Synced    int
	Failed    int
}

const defaultSyncInterval = time.Hour

func NewSyncService(
	provider FixtureProvider,
	tx TxRunner,
	matchRepo match.Repository,
	teamRepo team.Repository,
	scoring *ScoringService,
	notifier ResultNotifier,
	seasonID int64,
	interval time.Duration,
	log *logging.Logger,
) *SyncService {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &SyncService{
		provider:  provider,
		tx:        tx,
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		scoring:   scoring,
		notifier:  notifier,
		log:       log,
		seasonID:  seasonID,
		interval:  interval,
		now:       time.Now,
	}
}

// Run performs one sync immediately and then re-runs on the configured
// interval until the context is cancelled. Overlapping runs collapse
// into one via single-flight.
func (s *SyncService) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SyncService) runOnce(ctx context.Context) {
	_, err, shared := s.flight.Do("fixture-sync", func() (any, error) {
		return nil, s.Update(ctx)
	})
	if shared {
		s.log.InfoContext(ctx, "fixture sync already running, joined in-flight run")
		return
	}
	if err != nil && ctx.Err() == nil {
		s.log.ErrorContext(ctx, "fixture sync failed", "error", err)
	}
}

// Update pulls every fixture page and reconciles each fixture in its
// own transaction, so one bad record never aborts the batch. Newly
// finished matches are scored inside the same transaction that flips
// their processed flag.
func (s *SyncService) Update(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "SyncService.Update")
	defer span.End()

	started := s.now()
	fixtures, err := s.provider.SeasonFixtures(ctx, s.seasonID)
	if err != nil {
		err = fmt.Errorf("fetch season fixtures: %w", err)
		s.recordStatus(started, 0, 0, 0, err)
		return err
	}

	var synced, failed int
	var notifications []ResultNotification
	for _, fx := range fixtures {
		queued, err := s.syncFixture(ctx, fx)
		if err != nil {
			failed++
			s.log.ErrorContext(ctx, "sync fixture failed",
				"fixture_id", fx.ExternalID,
				"error", err,
			)
			continue
		}
		synced++
		notifications = append(notifications, queued...)
	}

	if s.notifier != nil && len(notifications) > 0 {
		s.notifier.Dispatch(ctx, notifications)
	}

	s.log.InfoContext(ctx, "fixture sync finished",
		"fixtures", len(fixtures),
		"synced", synced,
		"failed", failed,
		"took", s.now().Sub(started).String(),
	)
	s.recordStatus(started, len(fixtures), synced, failed, nil)
	return nil
}

func (s *SyncService) recordStatus(ranAt time.Time, fixtures, synced, failed int, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = SyncStatus{
		LastRunAt: ranAt,
		Fixtures:  fixtures,
		Synced:    synced,
		Failed:    failed,
	}
	if err != nil {
		s.status.LastError = err.Error()
	}
}

// Status reports the outcome of the most recent sync run.
func (s *SyncService) Status() SyncStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

func (s *SyncService) syncFixture(ctx context.Context, fx ExternalFixture) ([]ResultNotification, error) {
	var notifications []ResultNotification

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, found, err := s.matchRepo.GetByAPIIDForUpdate(ctx, fx.ExternalID)
		if err != nil {
			return fmt.Errorf("lock match api_id=%d: %w", fx.ExternalID, err)
		}
		if found && existing.Processed {
			// Processed matches are frozen; skip every mutation,
			// including team resolution.
			return nil
		}

		homeID, err := s.resolveTeam(ctx, fx.HomeTeam, fx.Group)
		if err != nil {
			return err
		}
		awayID, err := s.resolveTeam(ctx, fx.AwayTeam, fx.Group)
		if err != nil {
			return err
		}

		m := match.Match{
			APIID:          fx.ExternalID,
			SeasonID:       fx.SeasonID,
			Stage:          fx.Stage,
			Group:          fx.Group,
			StartAt:        fx.StartAt,
			Venue:          fx.Venue,
			Status:         match.StatusFromProvider(fx.Status),
			HomeTeamID:     homeID,
			AwayTeamID:     awayID,
			HomeScore90:    fx.HomeScore90,
			AwayScore90:    fx.AwayScore90,
			HomeScoreTotal: fx.HomeScoreTotal,
			AwayScoreTotal: fx.AwayScoreTotal,
		}
		if found {
			m.ID = existing.ID
			// Stage, group and venue are set at first sighting only.
			m.Stage = existing.Stage
			m.Group = existing.Group
			m.Venue = existing.Venue
		}

		if err := s.matchRepo.Upsert(ctx, &m); err != nil {
			return fmt.Errorf("upsert match api_id=%d: %w", fx.ExternalID, err)
		}

		if !m.Finished() {
			return nil
		}

		view := match.WithTeams{
			Match:        m,
			HomeTeamName: fx.HomeTeam.Name,
			AwayTeamName: fx.AwayTeam.Name,
		}
		scored, err := s.scoring.ProcessMatchResult(ctx, &view)
		if err != nil {
			return fmt.Errorf("score match api_id=%d: %w", fx.ExternalID, err)
		}
		if err := s.matchRepo.MarkProcessed(ctx, m.ID); err != nil {
			return fmt.Errorf("mark match processed id=%d: %w", m.ID, err)
		}

		for _, sp := range scored {
			if sp.Points == 0 || !sp.Notify {
				continue
			}
			notifications = append(notifications, ResultNotification{
				ChatID: sp.ChatID,
				Text:   ResultMessage(view, sp),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *SyncService) resolveTeam(ctx context.Context, et ExternalTeam, group string) (int64, error) {
	existing, found, err := s.teamRepo.GetByAPIID(ctx, et.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("get team api_id=%d: %w", et.ExternalID, err)
	}
	if found {
		return existing.ID, nil
	}

	// Name and group come from immutable fixture fields; set once at
	// first sighting. Group fixtures arrive before knockout ones, so
	// the first sighting carries the team's group letter.
	t := team.Team{APIID: et.ExternalID, Name: et.Name, Group: group, Active: true}
	if err := s.teamRepo.Upsert(ctx, &t); err != nil {
		return 0, fmt.Errorf("upsert team api_id=%d: %w", et.ExternalID, err)
	}
	return t.ID, nil
}
