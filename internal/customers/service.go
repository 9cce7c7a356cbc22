package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/store"
)

// Service wraps customer persistence with the reconciliation flow.
type Service struct {
	store   store.Store
	timeout time.Duration
}

// NewService creates a customer service. timeout bounds every store call.
func NewService(s store.Store, timeout time.Duration) *Service {
	return &Service{store: s, timeout: timeout}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Check reconciles a candidate entry against the store. It fetches the
// records sharing the interview id and applies the pure decision function.
func (s *Service) Check(ctx context.Context, c Candidate) (Decision, error) {
	c.InterviewID = strings.TrimSpace(c.InterviewID)
	c.LineName = strings.TrimSpace(c.LineName)
	c.RealName = strings.TrimSpace(c.RealName)

	if c.InterviewID == "" {
		return Decision{}, errs.Validation("interview_id", "must not be blank")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	existing, err := s.store.FindCustomersByInterviewID(ctx, c.InterviewID)
	if err != nil {
		return Decision{}, fmt.Errorf("checking interview id %s: %w", c.InterviewID, err)
	}

	return Reconcile(c, existing), nil
}

// Create inserts a new customer record. Callers go through Check first;
// Create itself only validates field presence, so a confirmed intentional
// duplicate passes through.
func (s *Service) Create(ctx context.Context, c Candidate) (*model.Customer, error) {
	c.InterviewID = strings.TrimSpace(c.InterviewID)
	c.LineName = strings.TrimSpace(c.LineName)
	c.RealName = strings.TrimSpace(c.RealName)

	switch {
	case c.InterviewID == "":
		return nil, errs.Validation("interview_id", "must not be blank")
	case c.LineName == "":
		return nil, errs.Validation("line_name", "must not be blank")
	case c.RealName == "":
		return nil, errs.Validation("real_name", "must not be blank")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	created, err := s.store.CreateCustomer(ctx, model.Customer{
		InterviewID: c.InterviewID,
		LineName:    c.LineName,
		RealName:    c.RealName,
	})
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}
	return created, nil
}

// Update persists changes to an existing customer.
func (s *Service) Update(ctx context.Context, c model.Customer) (*model.Customer, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	updated, err := s.store.UpdateCustomer(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("updating customer %s: %w", c.ID, err)
	}
	return updated, nil
}

// List returns all customers, newest first.
func (s *Service) List(ctx context.Context) ([]model.Customer, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return customers, nil
}
