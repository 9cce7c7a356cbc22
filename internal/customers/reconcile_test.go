package customers_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ymori/salesdesk/internal/customers"
	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/tests/testutil"
)

func TestReconcile_pureDecisions(t *testing.T) {
	existing := []model.Customer{
		{ID: "c1", InterviewID: "I1", LineName: "L", RealName: "R"},
	}

	cases := []struct {
		name     string
		cand     customers.Candidate
		existing []model.Customer
		want     customers.DecisionKind
	}{
		{"exact match reuses", customers.Candidate{InterviewID: "I1", LineName: "L", RealName: "R"}, existing, customers.DecisionReuse},
		{"blank names autofill", customers.Candidate{InterviewID: "I1"}, existing, customers.DecisionAutofill},
		{"differing names conflict", customers.Candidate{InterviewID: "I1", LineName: "L2", RealName: "R2"}, existing, customers.DecisionConflict},
		{"fresh id creates", customers.Candidate{InterviewID: "I9", LineName: "L", RealName: "R"}, nil, customers.DecisionCreate},
		{
			"two records block autofill",
			customers.Candidate{InterviewID: "I1"},
			[]model.Customer{
				{ID: "c1", InterviewID: "I1", LineName: "L", RealName: "R"},
				{ID: "c2", InterviewID: "I1", LineName: "L2", RealName: "R2"},
			},
			customers.DecisionConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := customers.Reconcile(tc.cand, tc.existing)
			if got.Kind != tc.want {
				t.Fatalf("kind: got %v, want %v", got.Kind, tc.want)
			}
		})
	}
}

func TestCheck_exactMatchPerformsNoCreation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)
	svc := customers.NewService(s, 5*time.Second)

	testutil.SeedCustomer(t, s, "I1", "L", "R")

	d, err := svc.Check(ctx, customers.Candidate{InterviewID: "I1", LineName: "L", RealName: "R"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Kind != customers.DecisionReuse {
		t.Fatalf("kind: got %v, want reuse", d.Kind)
	}
	if d.Existing == nil || d.Existing.InterviewID != "I1" {
		t.Fatalf("existing: %+v", d.Existing)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("reuse must not create: %d customers", len(all))
	}
}

func TestCheck_conflictSurfacesCandidates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)
	svc := customers.NewService(s, 5*time.Second)

	testutil.SeedCustomer(t, s, "I1", "L", "R")

	d, err := svc.Check(ctx, customers.Candidate{InterviewID: "I1", LineName: "L2", RealName: "R2"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if d.Kind != customers.DecisionConflict {
		t.Fatalf("kind: got %v, want conflict", d.Kind)
	}
	if len(d.Conflicts) != 1 {
		t.Fatalf("conflicts: got %d, want 1", len(d.Conflicts))
	}

	// No creation happened; an explicit Create after confirmation goes
	// through and produces the intentional duplicate.
	if _, err := svc.Create(ctx, customers.Candidate{InterviewID: "I1", LineName: "L2", RealName: "R2"}); err != nil {
		t.Fatalf("Create after confirmation: %v", err)
	}
	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d customers, want 2", len(all))
	}
}

func TestCreate_validatesFields(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)
	svc := customers.NewService(s, 5*time.Second)

	_, err := svc.Create(ctx, customers.Candidate{InterviewID: "I1", LineName: " ", RealName: "R"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}
