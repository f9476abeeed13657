package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nhle/bizdash/internal/filter"
	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/remote"
)

// AgreementStore is the session's authoritative collection of agreements
// and agreement lists. It follows the same apply-then-sync pattern as
// TodoStore. Status changes are never checked against the current value:
// any status may follow any other.
type AgreementStore struct {
	settings

	remote remote.AgreementRemote
	cache  AgreementCache

	mu         sync.Mutex
	agreements collection[model.Agreement]
	lists      collection[model.AgreementList]
	guard      guard
	lastErr    string
}

// NewAgreementStore creates an empty store. Either dependency may be nil.
func NewAgreementStore(r remote.AgreementRemote, c AgreementCache, opts ...Option) *AgreementStore {
	s := &AgreementStore{
		settings:   defaultSettings(),
		remote:     r,
		cache:      c,
		agreements: newCollection(func(a model.Agreement) string { return a.ID }),
		lists:      newCollection(func(l model.AgreementList) string { return l.ID }),
		guard:      newGuard(),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

// Load fetches agreements and their lists from the remote and replaces
// both collections on success. On failure the previous state is kept.
func (s *AgreementStore) Load(ctx context.Context) error {
	if s.remote == nil {
		return ErrNoRemote
	}

	s.mu.Lock()
	gen := s.guard.gen
	s.mu.Unlock()

	agreements, err := s.remote.FetchAgreements(ctx)
	var lists []model.AgreementList
	if err == nil {
		lists, err = s.remote.FetchAgreementLists(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.guard.gen {
		return ErrStale
	}
	if err != nil {
		s.lastErr = err.Error()
		s.log.Error().Err(err).Msg("loading agreements")
		return fmt.Errorf("loading agreements: %w", err)
	}

	s.agreements.replace(agreements)
	s.lists.replace(lists)
	s.guard.reload()
	s.lastErr = ""
	s.persist(ctx)
	return nil
}

// LoadCached replaces the collections with the contents of the cache.
func (s *AgreementStore) LoadCached(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	agreements, err := s.cache.Agreements(ctx, nil)
	if err != nil {
		return fmt.Errorf("reading cached agreements: %w", err)
	}
	lists, err := s.cache.AgreementLists(ctx)
	if err != nil {
		return fmt.Errorf("reading cached agreement lists: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agreements.replace(agreements)
	s.lists.replace(lists)
	s.guard.reload()
	return nil
}

// LastError returns the message of the most recent failed Load.
func (s *AgreementStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Invalidate discards the results of every remote call still in flight.
func (s *AgreementStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard.invalidate()
}

func validateStatuses(a model.Agreement) error {
	if !a.Status.Valid() {
		return fmt.Errorf("status %q: %w", a.Status, ErrInvalidStatus)
	}
	if !a.SJStatus.Valid() {
		return fmt.Errorf("sj status %q: %w", a.SJStatus, ErrInvalidStatus)
	}
	return nil
}

// Add stores a new agreement under a fresh unique id. Empty statuses
// default to not_started.
func (s *AgreementStore) Add(ctx context.Context, a model.Agreement) (model.Agreement, error) {
	if strings.TrimSpace(a.Element) == "" {
		return model.Agreement{}, fmt.Errorf("agreement element must not be empty")
	}
	if a.Status == "" {
		a.Status = model.StatusNotStarted
	}
	if a.SJStatus == "" {
		a.SJStatus = model.StatusNotStarted
	}
	if err := validateStatuses(a); err != nil {
		return model.Agreement{}, err
	}

	s.mu.Lock()
	a.ID = s.newID()
	s.agreements.add(a)
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return a, nil
	}
	tk := s.guard.begin(agreementKey(a.ID))
	s.mu.Unlock()

	saved, err := s.remote.CreateAgreement(ctx, a)

	s.mu.Lock()
	defer s.mu.Unlock()
	result := a
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.agreements.remove(a.ID) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.agreements.set(a.ID, result)
		},
	)
	if err != nil {
		return model.Agreement{}, s.failed("adding agreement", err)
	}
	s.persist(ctx)
	return result, nil
}

// Update replaces the agreement with the same id.
func (s *AgreementStore) Update(ctx context.Context, a model.Agreement) (model.Agreement, error) {
	if err := validateStatuses(a); err != nil {
		return model.Agreement{}, err
	}

	s.mu.Lock()
	prev, ok := s.agreements.get(a.ID)
	if !ok {
		s.mu.Unlock()
		return model.Agreement{}, notFound("agreement", a.ID)
	}
	s.agreements.set(a.ID, a)
	return s.commit(ctx, "updating agreement", a, prev, func() (*model.Agreement, error) {
		return s.remote.UpdateAgreement(ctx, a)
	})
}

// SetStatus sets the selected status field of an agreement, leaving the
// other one unchanged.
func (s *AgreementStore) SetStatus(
	ctx context.Context,
	id string,
	field model.StatusField,
	status model.AgreementStatus,
) (model.Agreement, error) {
	if !field.Valid() {
		return model.Agreement{}, fmt.Errorf("status field %q: %w", field, ErrInvalidStatus)
	}
	if !status.Valid() {
		return model.Agreement{}, fmt.Errorf("status %q: %w", status, ErrInvalidStatus)
	}

	s.mu.Lock()
	prev, ok := s.agreements.get(id)
	if !ok {
		s.mu.Unlock()
		return model.Agreement{}, notFound("agreement", id)
	}
	next := prev.WithStatus(field, status)
	s.agreements.set(id, next)
	return s.commit(ctx, "updating agreement status", next, prev, func() (*model.Agreement, error) {
		return s.remote.UpdateAgreementStatus(ctx, id, field, status)
	})
}

// UpdateStatus sets sjStatus when isSJStatus is true and status otherwise.
func (s *AgreementStore) UpdateStatus(
	ctx context.Context,
	id string,
	status model.AgreementStatus,
	isSJStatus bool,
) (model.Agreement, error) {
	field := model.FieldStatus
	if isSJStatus {
		field = model.FieldSJStatus
	}
	return s.SetStatus(ctx, id, field, status)
}

// commit finishes a single-agreement edit. It is entered with s.mu held
// and the optimistic value already in place.
func (s *AgreementStore) commit(
	ctx context.Context,
	op string,
	next, prev model.Agreement,
	call func() (*model.Agreement, error),
) (model.Agreement, error) {
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return next, nil
	}
	tk := s.guard.begin(agreementKey(next.ID))
	s.mu.Unlock()

	saved, err := call()

	s.mu.Lock()
	defer s.mu.Unlock()
	result := next
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.agreements.set(prev.ID, prev) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.agreements.set(prev.ID, result)
		},
	)
	if err != nil {
		return model.Agreement{}, s.failed(op, err)
	}
	s.persist(ctx)
	return result, nil
}

// Delete removes an agreement.
func (s *AgreementStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	removed, pos, ok := s.agreements.remove(id)
	if !ok {
		s.mu.Unlock()
		return notFound("agreement", id)
	}
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return nil
	}
	tk := s.guard.begin(agreementKey(id))
	s.mu.Unlock()

	err := s.remote.DeleteAgreement(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.agreements.putBack(pos, removed) },
		nil,
	)
	if err != nil {
		return s.failed("deleting agreement", err)
	}
	s.persist(ctx)
	return nil
}

// AddList stores a new agreement list under a fresh unique id.
func (s *AgreementStore) AddList(ctx context.Context, list model.AgreementList) (model.AgreementList, error) {
	if strings.TrimSpace(list.Name) == "" {
		return model.AgreementList{}, fmt.Errorf("list name must not be empty")
	}

	s.mu.Lock()
	list.ID = s.newID()
	s.lists.add(list)
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return list, nil
	}
	tk := s.guard.begin(listKey(list.ID))
	s.mu.Unlock()

	saved, err := s.remote.CreateAgreementList(ctx, list)

	s.mu.Lock()
	defer s.mu.Unlock()
	result := list
	err = s.guard.settle(tk, remoteErr(err),
		func() { s.lists.remove(list.ID) },
		func() {
			if saved != nil && saved.ID != "" {
				result = *saved
			}
			s.lists.set(list.ID, result)
		},
	)
	if err != nil {
		return model.AgreementList{}, s.failed("adding agreement list", err)
	}
	s.persist(ctx)
	return result, nil
}

// DeleteList removes an agreement list and every agreement filed under it.
func (s *AgreementStore) DeleteList(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	list, pos, ok := s.lists.remove(id)
	if !ok {
		s.mu.Unlock()
		return 0, notFound("agreement list", id)
	}
	cascaded := s.agreements.removeWhere(func(a model.Agreement) bool { return a.ListID == id })
	if s.remote == nil {
		s.persist(ctx)
		s.mu.Unlock()
		return len(cascaded), nil
	}
	tk := s.guard.begin(listKey(id))
	s.mu.Unlock()

	err := s.remote.DeleteAgreementList(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.guard.settle(tk, remoteErr(err),
		func() {
			s.lists.putBack(pos, list)
			s.agreements.restore(cascaded)
		},
		nil,
	)
	if err != nil {
		return 0, s.failed("deleting agreement list", err)
	}
	s.persist(ctx)
	return len(cascaded), nil
}

// Agreements returns a copy of every agreement in insertion order.
func (s *AgreementStore) Agreements() []model.Agreement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agreements.snapshot()
}

// Lists returns a copy of every agreement list.
func (s *AgreementStore) Lists() []model.AgreementList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.snapshot()
}

// Get returns the agreement with the given id.
func (s *AgreementStore) Get(id string) (model.Agreement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agreements.get(id)
	if !ok {
		return model.Agreement{}, notFound("agreement", id)
	}
	return a, nil
}

// CountByStatus tallies agreements by the selected status field.
func (s *AgreementStore) CountByStatus(field model.StatusField) map[model.AgreementStatus]int {
	return filter.CountAgreementsByStatus(s.Agreements(), field)
}

// Filter returns agreements matching the optional list and status.
func (s *AgreementStore) Filter(
	listID *string,
	status *model.AgreementStatus,
	field model.StatusField,
) []model.Agreement {
	return filter.FilterAgreements(s.Agreements(), listID, status, field)
}

// persist mirrors the current state into the cache. Callers hold s.mu.
func (s *AgreementStore) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ReplaceAgreements(ctx, s.agreements.snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("caching agreements")
	}
	if err := s.cache.ReplaceAgreementLists(ctx, s.lists.snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("caching agreement lists")
	}
}

func (s *AgreementStore) failed(op string, err error) error {
	if errors.Is(err, ErrStale) {
		s.log.Debug().Str("op", op).Msg("stale result discarded")
		return err
	}
	s.log.Warn().Err(err).Str("op", op).Msg("remote call failed")
	return fmt.Errorf("%s: %w", op, err)
}

func agreementKey(id string) string { return "agreement:" + id }
