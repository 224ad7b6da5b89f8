package profile

import (
	"context"
	"sync"
)

// Store persists profiles and their fitness aggregates. Emails are unique,
// compared case-insensitively.
type Store interface {
	Get(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	// Create fails with ErrEmailTaken when the email is in use.
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	FitnessData(ctx context.Context, userID string) (*FitnessData, error)
	PutFitnessData(ctx context.Context, userID string, data *FitnessData) error
	// UpdateFitnessData runs fn on the stored aggregate (nil when there is
	// none) and stores what fn returns, with no other write to the same user
	// landing in between. fn may run more than once.
	UpdateFitnessData(ctx context.Context, userID string, fn FitnessUpdate) (*FitnessData, error)
}

type FitnessUpdate func(current *FitnessData) (*FitnessData, error)

var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	byEmail  map[string]string
	fitness  map[string]*FitnessData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: map[string]Profile{},
		byEmail:  map[string]string{},
		fitness:  map[string]*FitnessData{},
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	s.mu.RLock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := NormalizeEmail(p.Email)
	if _, taken := s.byEmail[email]; taken {
		return ErrEmailTaken
	}
	s.byEmail[email] = p.ID
	s.profiles[p.ID] = *p
	return nil
}

func (s *MemoryStore) Update(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.profiles[p.ID]
	if !ok {
		return ErrNotFound
	}
	oldEmail, newEmail := NormalizeEmail(old.Email), NormalizeEmail(p.Email)
	if oldEmail != newEmail {
		if _, taken := s.byEmail[newEmail]; taken {
			return ErrEmailTaken
		}
		delete(s.byEmail, oldEmail)
		s.byEmail[newEmail] = p.ID
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *MemoryStore) FitnessData(_ context.Context, userID string) (*FitnessData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.fitness[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return data.Clone(), nil
}

func (s *MemoryStore) PutFitnessData(_ context.Context, userID string, data *FitnessData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitness[userID] = data.Clone()
	return nil
}

func (s *MemoryStore) UpdateFitnessData(_ context.Context, userID string, fn FitnessUpdate) (*FitnessData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current *FitnessData
	if data, ok := s.fitness[userID]; ok {
		current = data.Clone()
	}
	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	s.fitness[userID] = updated.Clone()
	return updated, nil
}
