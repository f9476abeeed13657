package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/tests/testutil"
)

func seededAgreements(t *testing.T, r *fakeRemote) *AgreementStore {
	t.Helper()
	if r == nil {
		r = &fakeRemote{}
	}
	r.agreements = []model.Agreement{
		{ID: "A1", Element: "Deliver plan", Status: model.StatusInProgress, SJStatus: model.StatusNotStarted, ListID: "L1"},
		{ID: "A2", Element: "Review budget", Status: model.StatusStuck, SJStatus: model.StatusSJReview, ListID: "L1"},
		{ID: "A3", Element: "Sign contract", Status: model.StatusCompleted, SJStatus: model.StatusCompleted, ListID: "L2"},
	}
	r.agreementLists = []model.AgreementList{{ID: "L1", Name: "Q3"}, {ID: "L2", Name: "Q4"}}

	s := NewAgreementStore(r, nil)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestUpdateStatusLeavesOtherFieldAlone(t *testing.T) {
	s := seededAgreements(t, nil)

	a, err := s.UpdateStatus(context.Background(), "A1", model.StatusCompleted, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, a.Status)
	assert.Equal(t, model.StatusNotStarted, a.SJStatus)

	a, err = s.UpdateStatus(context.Background(), "A1", model.StatusSJReview, true)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, a.Status)
	assert.Equal(t, model.StatusSJReview, a.SJStatus)

	got, err := s.Get("A1")
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestSetStatusValidation(t *testing.T) {
	s := seededAgreements(t, nil)
	ctx := context.Background()

	_, err := s.SetStatus(ctx, "A1", model.FieldStatus, "done")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.SetStatus(ctx, "A1", "priority", model.StatusStuck)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.SetStatus(ctx, "missing", model.FieldStatus, model.StatusStuck)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Get("A1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
}

func TestAnyStatusMayFollowAnyOther(t *testing.T) {
	s := seededAgreements(t, nil)
	ctx := context.Background()

	for _, st := range []model.AgreementStatus{
		model.StatusCompleted,
		model.StatusNotStarted,
		model.StatusSJReview,
		model.StatusStuck,
	} {
		a, err := s.SetStatus(ctx, "A3", model.FieldStatus, st)
		require.NoError(t, err)
		assert.Equal(t, st, a.Status)
	}
}

func TestAddAgreementDefaultsStatuses(t *testing.T) {
	s := NewAgreementStore(nil, nil, WithIDGenerator(sequentialIDs("a-")))

	a, err := s.Add(context.Background(), model.Agreement{Element: "Kickoff", ListID: "L9"})
	require.NoError(t, err)
	assert.Equal(t, "a-1", a.ID)
	assert.Equal(t, model.StatusNotStarted, a.Status)
	assert.Equal(t, model.StatusNotStarted, a.SJStatus)

	_, err = s.Add(context.Background(), model.Agreement{Element: "Bad", Status: "later"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Len(t, s.Agreements(), 1)
}

func TestAgreementCountsAndFilter(t *testing.T) {
	s := seededAgreements(t, nil)

	counts := s.CountByStatus(model.FieldStatus)
	assert.Equal(t, 1, counts[model.StatusInProgress])
	assert.Equal(t, 1, counts[model.StatusStuck])
	assert.Equal(t, 1, counts[model.StatusCompleted])
	assert.Equal(t, 0, counts[model.StatusSJReview])

	sj := s.CountByStatus(model.FieldSJStatus)
	assert.Equal(t, 1, sj[model.StatusSJReview])

	l1 := "L1"
	stuck := model.StatusStuck
	got := s.Filter(&l1, &stuck, model.FieldStatus)
	require.Len(t, got, 1)
	assert.Equal(t, "A2", got[0].ID)

	assert.Len(t, s.Filter(&l1, nil, model.FieldStatus), 2)
}

func TestDeleteAgreementListCascades(t *testing.T) {
	s := seededAgreements(t, nil)

	n, err := s.DeleteList(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	agreements := s.Agreements()
	require.Len(t, agreements, 1)
	assert.Equal(t, "A3", agreements[0].ID)
	assert.Len(t, s.Lists(), 1)
}

func TestAgreementRemoteFailureRollsBack(t *testing.T) {
	fr := &fakeRemote{}
	s := seededAgreements(t, fr)
	ctx := context.Background()
	before := s.Agreements()

	fr.setErr(errors.New("502 bad gateway"))

	_, err := s.SetStatus(ctx, "A1", model.FieldSJStatus, model.StatusCompleted)
	require.Error(t, err)
	assert.Equal(t, before, s.Agreements())

	require.Error(t, s.Delete(ctx, "A2"))
	assert.Equal(t, before, s.Agreements())

	_, err = s.DeleteList(ctx, "L1")
	require.Error(t, err)
	assert.Equal(t, before, s.Agreements())
	assert.Len(t, s.Lists(), 2)

	err = s.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, s.LastError(), "502")
	assert.Equal(t, before, s.Agreements())
}

func TestAgreementFailedDeleteAfterReloadDoesNotDuplicate(t *testing.T) {
	fr := &fakeRemote{}
	s := seededAgreements(t, fr)
	ctx := context.Background()
	before := s.Agreements()

	unavailable := errors.New("503")
	fr.failOp("DeleteAgreement", unavailable)
	fr.failOp("DeleteAgreementList", unavailable)
	fr.hook = func(op string, _ interface{}) {
		if op == "DeleteAgreement" || op == "DeleteAgreementList" {
			assert.NoError(t, s.Load(ctx))
		}
	}

	assert.ErrorIs(t, s.Delete(ctx, "A1"), unavailable)
	assert.Equal(t, before, s.Agreements())

	_, err := s.DeleteList(ctx, "L1")
	assert.ErrorIs(t, err, unavailable)
	assert.Equal(t, before, s.Agreements())
	assert.Len(t, s.Lists(), 2)
}

func TestRacingStatusWritesResolveInIssueOrder(t *testing.T) {
	fr := &fakeRemote{}
	s := seededAgreements(t, fr)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	fr.hook = func(op string, arg interface{}) {
		if op == "UpdateAgreementStatus" && arg == model.StatusInProgress {
			close(started)
			<-release
		}
	}

	first := make(chan error, 1)
	go func() {
		_, err := s.SetStatus(ctx, "A2", model.FieldStatus, model.StatusInProgress)
		first <- err
	}()
	<-started

	_, err := s.SetStatus(ctx, "A2", model.FieldStatus, model.StatusCompleted)
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-first)

	got, err := s.Get("A2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestAgreementInvalidateDropsInFlightWrite(t *testing.T) {
	fr := &fakeRemote{}
	s := seededAgreements(t, fr)

	started := make(chan struct{})
	release := make(chan struct{})
	fr.hook = func(op string, _ interface{}) {
		if op == "DeleteAgreement" {
			close(started)
			<-release
		}
	}
	fr.setErr(errors.New("timeout"))

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background(), "A1") }()
	<-started
	s.Invalidate()
	close(release)

	assert.ErrorIs(t, <-done, ErrStale)
	_, err := s.Get("A1")
	assert.ErrorIs(t, err, ErrNotFound, "stale failures are not rolled back")
}

func TestAgreementsPersistToCache(t *testing.T) {
	c := testutil.NewTestCache(t)
	ctx := context.Background()
	s := NewAgreementStore(nil, c)

	list, err := s.AddList(ctx, model.AgreementList{Name: "Q1"})
	require.NoError(t, err)
	a, err := s.Add(ctx, model.Agreement{Element: "Audit", ListID: list.ID})
	require.NoError(t, err)
	_, err = s.SetStatus(ctx, a.ID, model.FieldSJStatus, model.StatusStuck)
	require.NoError(t, err)

	restored := NewAgreementStore(nil, c)
	require.NoError(t, restored.LoadCached(ctx))
	got, err := restored.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStuck, got.SJStatus)
	assert.Equal(t, []model.AgreementList{list}, restored.Lists())
}
