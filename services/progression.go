// services/progression.go - Rank and achievement progression engine
//
// Two paths call into the engine: a fixed-interval sweep over every user and
// a synchronous run for a single user right after a post is created. Both
// funnel through the same per-user processing, so identical inputs produce
// identical results regardless of trigger order.
package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/models"
)

const defaultSweepInterval = 10 * time.Minute

// Aggregates are the per-user activity totals the engine decides on.
// FishWeight uses decimal accumulation so repeated sweeps never drift.
type Aggregates struct {
	Exp        int
	PostCount  int64
	FishCount  int64
	FishWeight decimal.Decimal
}

// ProgressionService re-evaluates user ranks and achievements.
type ProgressionService struct {
	db       *gorm.DB
	events   *EventBus
	interval time.Duration

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

var progressionService *ProgressionService

// InitProgressionService initializes the singleton progression service.
func InitProgressionService() {
	interval := defaultSweepInterval
	if raw := os.Getenv("PROGRESSION_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		} else {
			log.Printf("Invalid PROGRESSION_INTERVAL_MINUTES %q, using default", raw)
		}
	}

	progressionService = NewProgressionService(database.GetDB(), interval, NewEventBus())
}

// GetProgressionService returns the initialized progression service.
func GetProgressionService() *ProgressionService {
	return progressionService
}

func NewProgressionService(db *gorm.DB, interval time.Duration, events *EventBus) *ProgressionService {
	return &ProgressionService{
		db:       db,
		events:   events,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Events returns the bus the engine publishes promotion/unlock events on.
func (s *ProgressionService) Events() *EventBus {
	return s.events
}

// Start launches the periodic sweep worker.
func (s *ProgressionService) Start() {
	s.startOnce.Do(func() {
		s.started = true
		go func() {
			defer close(s.done)

			ticker := time.NewTicker(s.interval)
			defer ticker.Stop()

			log.Printf("⏱  Progression sweep every %s", s.interval)
			for {
				select {
				case <-ticker.C:
					s.RunSweepForAllUsers()
				case <-s.stop:
					return
				}
			}
		}()
	})
}

// Stop signals the worker to finish the current user and exit.
func (s *ProgressionService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started {
		<-s.done
	}
}

// RunSweepForAllUsers re-evaluates every user. A failure for one user is
// logged and skipped; the next sweep retries it. Partial completion is fine,
// the sweep is reconciliation, not a transaction.
func (s *ProgressionService) RunSweepForAllUsers() {
	runID := uuid.New().String()[:8]

	ranks, err := s.loadRanks()
	if err != nil {
		log.Printf("sweep %s: cannot load ranks: %v", runID, err)
		return
	}
	defs, err := s.loadAchievements()
	if err != nil {
		log.Printf("sweep %s: cannot load achievements: %v", runID, err)
		return
	}

	var userIDs []uint
	if err := s.db.Model(&models.User{}).Order("id").Pluck("id", &userIDs).Error; err != nil {
		log.Printf("sweep %s: cannot list users: %v", runID, err)
		return
	}

	processed, skipped := 0, 0
	for _, id := range userIDs {
		select {
		case <-s.stop:
			log.Printf("sweep %s: interrupted after %d users", runID, processed)
			return
		default:
		}

		if err := s.processUser(id, ranks, defs); err != nil {
			skipped++
			log.Printf("sweep %s: user %d skipped: %v", runID, id, err)
			continue
		}
		processed++
	}

	log.Printf("sweep %s: %d users processed, %d skipped", runID, processed, skipped)
}

// RunForUser re-evaluates a single user. Called synchronously after a post is
// created, and safe to run concurrently with a sweep for the same user.
func (s *ProgressionService) RunForUser(userID uint) error {
	ranks, err := s.loadRanks()
	if err != nil {
		return fmt.Errorf("load ranks: %w", err)
	}
	defs, err := s.loadAchievements()
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}

	return s.processUser(userID, ranks, defs)
}

func (s *ProgressionService) processUser(userID uint, ranks []models.Rank, defs []models.Achievement) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	agg, err := s.Aggregate(userID)
	if err != nil {
		return err
	}

	if err := s.applyRankIfChanged(&user, ResolveRank(agg.Exp, ranks), ranks); err != nil {
		return err
	}

	if _, err := s.evaluateAchievements(&user, agg, defs); err != nil {
		return err
	}

	return nil
}

// Aggregate computes the current activity totals for a user. Pure read over
// stored state; safe to call concurrently and repeatedly.
func (s *ProgressionService) Aggregate(userID uint) (Aggregates, error) {
	var user models.User
	if err := s.db.Select("id", "exp").First(&user, userID).Error; err != nil {
		return Aggregates{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	agg := Aggregates{Exp: user.Exp, FishWeight: decimal.Zero}

	if err := s.db.Model(&models.Post{}).
		Where("user_id = ?", userID).
		Count(&agg.PostCount).Error; err != nil {
		return Aggregates{}, fmt.Errorf("count posts: %w", err)
	}

	if err := s.db.Model(&models.Fish{}).
		Joins("JOIN posts ON posts.id = fish.post_id").
		Where("posts.user_id = ?", userID).
		Count(&agg.FishCount).Error; err != nil {
		return Aggregates{}, fmt.Errorf("count fish: %w", err)
	}

	row := s.db.Model(&models.Fish{}).
		Select("COALESCE(SUM(fish.weight), 0)").
		Joins("JOIN posts ON posts.id = fish.post_id").
		Where("posts.user_id = ?", userID).
		Row()
	if err := row.Scan(&agg.FishWeight); err != nil {
		return Aggregates{}, fmt.Errorf("sum fish weight: %w", err)
	}

	return agg, nil
}

// ResolveRank returns the rank with the greatest threshold not exceeding exp,
// or nil when no rank qualifies. An empty table is a valid nil result, not an
// error. Duplicate thresholds cannot happen under the unique index; if the
// table was edited around it, the lowest ID wins deterministically.
func ResolveRank(exp int, ranks []models.Rank) *models.Rank {
	var best *models.Rank
	for i := range ranks {
		r := &ranks[i]
		if r.MinExp > exp {
			continue
		}
		if best == nil || r.MinExp > best.MinExp ||
			(r.MinExp == best.MinExp && r.ID < best.ID) {
			best = r
		}
	}
	return best
}

// applyRankIfChanged promotes the user to newRank when it is a real step up.
// Ranks are never lowered, and the update is a compare-and-set on the rank
// the user was read with, so an overlapping run applies the promotion exactly
// once.
func (s *ProgressionService) applyRankIfChanged(user *models.User, newRank *models.Rank, ranks []models.Rank) error {
	if newRank == nil {
		return nil
	}

	if user.RankID != nil {
		if *user.RankID == newRank.ID {
			return nil
		}
		if current := rankByID(ranks, *user.RankID); current != nil && current.MinExp >= newRank.MinExp {
			// never demote
			return nil
		}
	}

	update := s.db.Model(&models.User{}).Where("id = ?", user.ID)
	if user.RankID == nil {
		update = update.Where("rank_id IS NULL")
	} else {
		update = update.Where("rank_id = ?", *user.RankID)
	}

	res := update.Update("rank_id", newRank.ID)
	if res.Error != nil {
		return fmt.Errorf("promote user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// a concurrent run already moved the rank
		return nil
	}

	oldRankID := user.RankID
	newRankID := newRank.ID
	user.RankID = &newRankID

	log.Printf("🏅 User %s promoted to rank %s", user.Username, newRank.Name)
	s.events.Publish(ProgressionEvent{
		Type:      EventRankUp,
		UserID:    user.ID,
		Username:  user.Username,
		OldRankID: oldRankID,
		NewRankID: &newRankID,
		RankName:  newRank.Name,
	})

	return nil
}

// evaluateAchievements grants every achievement the user now satisfies and
// has not unlocked yet. The unlocked set is re-read from storage on every
// call, and the insert relies on the (user, achievement) unique index, so a
// sweep racing the post-created path grants each achievement exactly once.
func (s *ProgressionService) evaluateAchievements(user *models.User, agg Aggregates, defs []models.Achievement) ([]models.Achievement, error) {
	var unlockedIDs []uint
	if err := s.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", user.ID).
		Pluck("achievement_id", &unlockedIDs).Error; err != nil {
		return nil, fmt.Errorf("load unlocks for user %d: %w", user.ID, err)
	}

	unlocked := make(map[uint]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = true
	}

	var granted []models.Achievement
	for _, def := range defs {
		if unlocked[def.ID] || !def.HasConditions() {
			continue
		}
		if !satisfies(def, agg) {
			continue
		}

		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserAchievement{
			UserID:        user.ID,
			AchievementID: def.ID,
			UnlockedAt:    time.Now(),
		})
		if res.Error != nil {
			return granted, fmt.Errorf("unlock achievement %d for user %d: %w", def.ID, user.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// lost the race to a concurrent run, already unlocked
			continue
		}

		granted = append(granted, def)
		log.Printf("🎖  User %s unlocked achievement %s", user.Username, def.Name)
		s.events.Publish(ProgressionEvent{
			Type:            EventAchievementUnlocked,
			UserID:          user.ID,
			Username:        user.Username,
			AchievementID:   def.ID,
			AchievementName: def.Name,
		})
	}

	return granted, nil
}

// satisfies applies the OR semantics over configured thresholds: meeting any
// one configured field unlocks the achievement.
func satisfies(def models.Achievement, agg Aggregates) bool {
	if def.MinPosts > 0 && agg.PostCount >= int64(def.MinPosts) {
		return true
	}
	if def.MinFish > 0 && agg.FishCount >= int64(def.MinFish) {
		return true
	}
	if def.MinWeight.IsPositive() && agg.FishWeight.GreaterThanOrEqual(def.MinWeight) {
		return true
	}
	return false
}

func (s *ProgressionService) loadRanks() ([]models.Rank, error) {
	var ranks []models.Rank
	if err := s.db.Order("min_exp").Find(&ranks).Error; err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(ranks))
	for _, r := range ranks {
		if other, dup := seen[r.MinExp]; dup {
			log.Printf("⚠️  Ranks %q and %q share threshold %d", other, r.Name, r.MinExp)
			continue
		}
		seen[r.MinExp] = r.Name
	}

	return ranks, nil
}

func (s *ProgressionService) loadAchievements() ([]models.Achievement, error) {
	var defs []models.Achievement
	if err := s.db.Find(&defs).Error; err != nil {
		return nil, err
	}

	for _, def := range defs {
		if !def.HasConditions() {
			log.Printf("⚠️  Achievement %q has no configured thresholds, skipping", def.Name)
		}
	}

	return defs, nil
}

func rankByID(ranks []models.Rank, id uint) *models.Rank {
	for i := range ranks {
		if ranks[i].ID == id {
			return &ranks[i]
		}
	}
	return nil
}
