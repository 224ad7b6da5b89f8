package profile

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
)

const DefaultSyntheticInterval = 5 * time.Second

// SyntheticActivity fakes a step counter for demo dashboards. The numbers
// it produces are made up and nothing in the workout pipeline reads them.
type SyntheticActivity struct {
	store    Store
	faker    *gofakeit.Faker
	interval time.Duration
}

func NewSyntheticActivity(store Store, seed int64, interval time.Duration) *SyntheticActivity {
	if interval <= 0 {
		interval = DefaultSyntheticInterval
	}
	return &SyntheticActivity{
		store:    store,
		faker:    gofakeit.New(seed),
		interval: interval,
	}
}

// Step adds 0 to 2 steps to the user's counter and returns the new total.
func (a *SyntheticActivity) Step(ctx context.Context, userID string) (int, error) {
	delta := a.faker.Number(0, 2)
	data, err := a.store.UpdateFitnessData(ctx, userID, func(current *FitnessData) (*FitnessData, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		current.Steps += delta
		return current, nil
	})
	if err != nil {
		return 0, err
	}
	return data.Steps, nil
}

// Run steps every interval until ctx is done.
func (a *SyntheticActivity) Run(ctx context.Context, userID string) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Step(ctx, userID); err != nil {
				log.Warnf("synthetic activity for %s: %s", userID, err)
			}
		}
	}
}
