package fosters

import (
	"context"
	"errors"
	"testing"
	"time"

	"straypet/internal/domain/geo"
	"straypet/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Application
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Application{}}
}

func (r *testRepo) Create(ctx context.Context, a Application) error {
	for _, cur := range r.byID {
		if cur.UserID == a.UserID && cur.Status == StatusPending {
			return ErrAlreadyPending
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Application, error) {
	a, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) Update(ctx context.Context, a Application) error {
	cur, ok := r.byID[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.Status, a.ReviewerID, a.ReviewNote, a.ReviewedAt = cur.Status, cur.ReviewerID, cur.ReviewNote, cur.ReviewedAt
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Application, error) {
	out := []Application{}
	for _, a := range r.byID {
		if f.UserID != "" && a.UserID != f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
			continue
		}
		out = append(out, a)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *testRepo) TransitionStatus(ctx context.Context, id string, from []Status, to Status, reviewerID, note string, at time.Time) (bool, error) {
	a, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if !containsStatus(from, a.Status) {
		return false, nil
	}
	a.Status, a.ReviewerID, a.ReviewNote, a.ReviewedAt = to, reviewerID, note, &at
	r.byID[id] = a
	return true, nil
}

func containsStatus(set []Status, s Status) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

type testResolver struct{ calls int }

func (r *testResolver) ResolveOrFallback(ctx context.Context, p geo.Payload) (geo.Address, error) {
	r.calls++
	return geo.Address{ID: "addr-1", Street: p.Street}, nil
}

func ptr[T any](v T) *T { return &v }

func newTestService() (*Service, *testRepo, *testResolver) {
	repo := newTestRepo()
	res := &testResolver{}
	svc := NewService(repo, res)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo, res
}

var (
	applicant = auth.Actor{UserID: "u-applicant"}
	other     = auth.Actor{UserID: "u-other"}
	staff     = auth.Actor{UserID: "u-staff", IsStaff: true}
)

func validInput() Input {
	return Input{
		FullName:    ptr(" Ana Nowak "),
		Email:       ptr("ana@example.com"),
		Phone:       ptr("600 100 200"),
		Motivation:  ptr("Tengo jardín y tiempo libre"),
		PetCount:    ptr(1),
		CanTakeCats: ptr(true),
		TermsAgreed: ptr(true),
	}
}

func TestApply_CreatesPending(t *testing.T) {
	svc, repo, res := newTestService()

	in := validInput()
	in.Address = &geo.Payload{Street: "Długa 5", City: geo.ByName("Gdańsk")}
	a, err := svc.Apply(context.Background(), applicant, in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if a.Status != StatusPending || a.UserID != applicant.UserID {
		t.Fatalf("unexpected application: %+v", a)
	}
	if a.FullName != "Ana Nowak" || !a.CanTakeCats || a.CanTakeDogs {
		t.Fatalf("fields not applied: %+v", a)
	}
	if res.calls != 1 || a.AddressID == nil || *a.AddressID != "addr-1" {
		t.Fatalf("expected address resolved once, calls=%d addr=%v", res.calls, a.AddressID)
	}
	if _, ok := repo.byID[a.ID]; !ok {
		t.Fatalf("application not stored")
	}
}

func TestApply_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	with := func(mut func(in *Input)) Input {
		in := validInput()
		mut(&in)
		return in
	}
	cases := []struct {
		name  string
		actor auth.Actor
		in    Input
	}{
		{"anonymous", auth.Actor{}, validInput()},
		{"missing name", applicant, with(func(in *Input) { in.FullName = nil })},
		{"blank phone", applicant, with(func(in *Input) { in.Phone = ptr("  ") })},
		{"missing motivation", applicant, with(func(in *Input) { in.Motivation = nil })},
		{"bad email", applicant, with(func(in *Input) { in.Email = ptr("ana.example.com") })},
		{"terms not agreed", applicant, with(func(in *Input) { in.TermsAgreed = ptr(false) })},
		{"terms missing", applicant, with(func(in *Input) { in.TermsAgreed = nil })},
		{"negative pets", applicant, with(func(in *Input) { in.PetCount = ptr(-1) })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Apply(context.Background(), tc.actor, tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestApply_OnePendingPerUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Apply(ctx, applicant, validInput())
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := svc.Apply(ctx, applicant, validInput()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if _, err := svc.Reject(ctx, staff, first.ID, "faltan datos"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Apply(ctx, applicant, validInput()); err != nil {
		t.Fatalf("apply after rejection: %v", err)
	}
}

func TestReview_StaffOnlyAndTerminal(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Apply(ctx, applicant, validInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := svc.Approve(ctx, applicant, a.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("applicant approving: expected forbidden, got %v", err)
	}
	if _, err := svc.Reject(ctx, staff, a.ID, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty reason: expected invalid input, got %v", err)
	}

	got, err := svc.Approve(ctx, staff, a.ID, "visita ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != StatusApproved || got.ReviewerID != staff.UserID || got.ReviewNote != "visita ok" || got.ReviewedAt == nil {
		t.Fatalf("review not recorded: %+v", got)
	}

	if _, err := svc.Approve(ctx, staff, a.ID, ""); err != nil {
		t.Fatalf("approving twice should be a no-op, got %v", err)
	}
	if _, err := svc.Reject(ctx, staff, a.ID, "cambio de idea"); !errors.Is(err, ErrBadState) {
		t.Fatalf("rejecting approved: expected bad state, got %v", err)
	}
	if _, err := svc.Approve(ctx, staff, "nope", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_ApprovedLimitsApplicantFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Apply(ctx, applicant, validInput())
	if _, err := svc.Approve(ctx, staff, a.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err := svc.Update(ctx, applicant, a.ID, Input{
		FullName:    ptr("Otra Persona"),
		PetCount:    ptr(5),
		Phone:       ptr("600 999 000"),
		CanTakeDogs: ptr(true),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Phone != "600 999 000" {
		t.Fatalf("phone should change, got %q", got.Phone)
	}
	if got.FullName != "Ana Nowak" || got.PetCount != 1 || got.CanTakeDogs {
		t.Fatalf("locked fields changed: %+v", got)
	}
	if got.Status != StatusApproved {
		t.Fatalf("status must stay approved, got %s", got.Status)
	}

	got, err = svc.Update(ctx, staff, a.ID, Input{PetCount: ptr(2)})
	if err != nil {
		t.Fatalf("staff update: %v", err)
	}
	if got.PetCount != 2 {
		t.Fatalf("staff should edit any field, got pet_count=%d", got.PetCount)
	}
}

func TestGetAndList_Visibility(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	mine, _ := svc.Apply(ctx, applicant, validInput())
	_, _ = svc.Apply(ctx, other, validInput())

	if _, err := svc.Get(ctx, other, mine.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other user: expected forbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, staff, mine.ID); err != nil {
		t.Fatalf("staff get: %v", err)
	}

	own, err := svc.List(ctx, applicant, ListFilter{UserID: other.UserID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 1 || own[0].ID != mine.ID {
		t.Fatalf("non staff must only see own applications, got %+v", own)
	}

	all, _ := svc.List(ctx, staff, ListFilter{Statuses: []Status{StatusPending}})
	if len(all) != 2 {
		t.Fatalf("staff should see 2 pending, got %d", len(all))
	}
	if _, err := svc.List(ctx, staff, ListFilter{Statuses: []Status{"archived"}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: expected invalid input, got %v", err)
	}
}

func TestApprovedFor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a, _ := svc.Apply(ctx, applicant, validInput())
	if _, err := svc.ApprovedFor(ctx, applicant.UserID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pending is not a foster profile, got %v", err)
	}
	if _, err := svc.Approve(ctx, staff, a.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, err := svc.ApprovedFor(ctx, applicant.UserID)
	if err != nil {
		t.Fatalf("approved for: %v", err)
	}
	if got.ID != a.ID {
		t.Fatalf("expected %s, got %s", a.ID, got.ID)
	}
}
