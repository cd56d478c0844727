package adoptions_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mem "straypet/internal/adapters/storage/memory"
	"straypet/internal/app"
	"straypet/internal/domain/adoptions"
	"straypet/internal/domain/events"
	"straypet/internal/domain/pets"
	"straypet/internal/platform/apperr"
	"straypet/internal/ports/auth"
)

var (
	owner = auth.Actor{UserID: "owner-1"}
	staff = auth.Actor{UserID: "staff-1", IsStaff: true}
	a1    = auth.Actor{UserID: "applicant-1"}
	a2    = auth.Actor{UserID: "applicant-2"}
)

func setup(t *testing.T) (app.Services, pets.Pet) {
	t.Helper()
	svcs := app.NewServices(app.MemoryStorage(mem.NewStore()), nil, nil, nil)
	p, err := svcs.Pets.Create(context.Background(), owner, pets.CreateInput{Name: "Burek", Species: "dog"})
	require.NoError(t, err)
	require.Equal(t, pets.StatusAvailable, p.Status)
	return svcs, p
}

func petStatus(t *testing.T, svcs app.Services, id string) pets.Status {
	t.Helper()
	p, err := svcs.Pets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func TestApply_MovesAvailablePetToPending(t *testing.T) {
	svcs, p := setup(t)

	a, err := svcs.Adoptions.Apply(context.Background(), a1, p.ID, "mam ogród")
	require.NoError(t, err)

	assert.Equal(t, adoptions.StatusSubmitted, a.Status)
	assert.Equal(t, pets.StatusPending, petStatus(t, svcs, p.ID))

	evs, err := svcs.Events.ListByPet(context.Background(), p.ID, events.ListFilter{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeAdoptionApplied, evs[0].Type)
	assert.Equal(t, "available", evs[0].FromStatus)
	assert.Equal(t, "pending", evs[0].ToStatus)
}

func TestApply_SecondApplicantKeepsPending(t *testing.T) {
	svcs, p := setup(t)
	ctx := context.Background()

	_, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
	require.NoError(t, err)
	_, err = svcs.Adoptions.Apply(ctx, a2, p.ID, "")
	require.NoError(t, err)

	assert.Equal(t, pets.StatusPending, petStatus(t, svcs, p.ID))
}

func TestApply_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate open application", func(t *testing.T) {
		svcs, p := setup(t)
		_, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
		require.NoError(t, err)

		_, err = svcs.Adoptions.Apply(ctx, a1, p.ID, "")
		assert.True(t, errors.Is(err, adoptions.ErrAlreadyApplied))
		assert.True(t, errors.Is(err, apperr.ErrConflict))
	})

	t.Run("lost pet", func(t *testing.T) {
		svcs, p := setup(t)
		_, err := svcs.Pets.MarkLost(ctx, owner, p.ID)
		require.NoError(t, err)

		_, err = svcs.Adoptions.Apply(ctx, a1, p.ID, "")
		assert.True(t, errors.Is(err, adoptions.ErrPetLost))
	})

	t.Run("draft pet", func(t *testing.T) {
		svcs, _ := setup(t)
		draft, err := svcs.Pets.Create(ctx, owner, pets.CreateInput{Name: "Mruczek", Species: "cat", Status: "draft"})
		require.NoError(t, err)

		_, err = svcs.Adoptions.Apply(ctx, a1, draft.ID, "")
		assert.True(t, errors.Is(err, adoptions.ErrPetUnavailable))
	})

	t.Run("anonymous", func(t *testing.T) {
		svcs, p := setup(t)
		_, err := svcs.Adoptions.Apply(ctx, auth.Actor{}, p.ID, "")
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	})
}

func TestReview_ApproveClosesSiblingsAndAdopts(t *testing.T) {
	svcs, p := setup(t)
	ctx := context.Background()

	first, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
	require.NoError(t, err)
	second, err := svcs.Adoptions.Apply(ctx, a2, p.ID, "")
	require.NoError(t, err)

	approved, err := svcs.Adoptions.Review(ctx, owner, first.ID, adoptions.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusApproved, approved.Status)

	other, err := svcs.Adoptions.Get(ctx, a2, second.ID)
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusClosed, other.Status)
	assert.Equal(t, pets.StatusAdopted, petStatus(t, svcs, p.ID))
}

func TestReview_RejectLastOpenReturnsPetToAvailable(t *testing.T) {
	svcs, p := setup(t)
	ctx := context.Background()

	a, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
	require.NoError(t, err)

	_, err = svcs.Adoptions.Review(ctx, owner, a.ID, adoptions.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, pets.StatusAvailable, petStatus(t, svcs, p.ID))
}

func TestReview_ClosingOneOfTwoKeepsPending(t *testing.T) {
	svcs, p := setup(t)
	ctx := context.Background()

	first, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
	require.NoError(t, err)
	_, err = svcs.Adoptions.Apply(ctx, a2, p.ID, "")
	require.NoError(t, err)

	// el solicitante retira su solicitud
	_, err = svcs.Adoptions.Review(ctx, a1, first.ID, adoptions.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, pets.StatusPending, petStatus(t, svcs, p.ID))
}

func TestReview_PermissionMatrix(t *testing.T) {
	ctx := context.Background()
	stranger := auth.Actor{UserID: "stranger"}

	cases := []struct {
		name  string
		actor auth.Actor
		to    adoptions.Status
		want  error
	}{
		{"applicant cannot approve", a1, adoptions.StatusApproved, apperr.ErrForbidden},
		{"applicant cannot process", a1, adoptions.StatusProcessing, apperr.ErrForbidden},
		{"applicant may withdraw", a1, adoptions.StatusClosed, nil},
		{"stranger cannot close", stranger, adoptions.StatusClosed, apperr.ErrForbidden},
		{"owner may process", owner, adoptions.StatusProcessing, nil},
		{"staff may reject", staff, adoptions.StatusRejected, nil},
		{"unknown status", owner, adoptions.Status("maybe"), apperr.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svcs, p := setup(t)
			a, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
			require.NoError(t, err)

			_, err = svcs.Adoptions.Review(ctx, tc.actor, a.ID, tc.to)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestReview_SameStatusIsNoopAndTerminalIsBadState(t *testing.T) {
	svcs, p := setup(t)
	ctx := context.Background()

	a, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
	require.NoError(t, err)

	_, err = svcs.Adoptions.Review(ctx, owner, a.ID, adoptions.StatusSubmitted)
	assert.True(t, errors.Is(err, apperr.ErrForbidden), "submitted is not a review target: %v", err)

	_, err = svcs.Adoptions.Review(ctx, owner, a.ID, adoptions.StatusRejected)
	require.NoError(t, err)

	got, err := svcs.Adoptions.Review(ctx, owner, a.ID, adoptions.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, adoptions.StatusRejected, got.Status)

	_, err = svcs.Adoptions.Review(ctx, owner, a.ID, adoptions.StatusApproved)
	assert.True(t, errors.Is(err, apperr.ErrBadState))
}

func TestReview_ConcurrentApprovalsAdoptOnce(t *testing.T) {
	svcs, p := setup(t)
	ctx := context.Background()

	first, err := svcs.Adoptions.Apply(ctx, a1, p.ID, "")
	require.NoError(t, err)
	second, err := svcs.Adoptions.Apply(ctx, a2, p.ID, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svcs.Adoptions.Review(ctx, owner, id, adoptions.StatusApproved)
		}(i, id)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok, "exactly one approval must win: %v", errs)

	list, err := svcs.Adoptions.ListByPet(ctx, owner, p.ID)
	require.NoError(t, err)
	approved := 0
	for _, a := range list {
		if a.Status == adoptions.StatusApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, pets.StatusAdopted, petStatus(t, svcs, p.ID))
}
