package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/coursemart/internal/domain/errors"
	"github.com/polkiloo/coursemart/internal/domain/model"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	ByID  map[int64]*model.User
	Next  int64
	Err   error
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		ByID:  make(map[int64]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if s.ByID == nil {
		s.ByID = make(map[int64]*model.User)
	}
	if _, exists := s.Users[login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	user := &model.User{ID: s.Next, Login: login, PasswordHash: passwordHash}
	s.Next++
	s.Users[login] = user
	s.ByID[user.ID] = user
	return user, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// CourseRepositoryStub serves a fixed catalog.
type CourseRepositoryStub struct {
	Courses map[int64]model.Course
	Err     error
}

// NewCourseRepositoryStub builds a catalog from the given courses.
func NewCourseRepositoryStub(courses ...model.Course) *CourseRepositoryStub {
	s := &CourseRepositoryStub{Courses: make(map[int64]model.Course)}
	for _, c := range courses {
		s.Courses[c.ID] = c
	}
	return s
}

// GetByID returns the course or not found.
func (s *CourseRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.Courses[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &c, nil
}

// List returns courses ordered by id.
func (s *CourseRepositoryStub) List(ctx context.Context) ([]model.Course, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	result := make([]model.Course, 0, len(s.Courses))
	for _, c := range s.Courses {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// EnrollmentRepositoryStub is an in-memory enrollment store that keeps the same
// guarantees as the SQL one: one holding enrollment per pair, payment id dedupe
// and a conditional payment transition.
type EnrollmentRepositoryStub struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]model.Enrollment
	claimed map[uuid.UUID]time.Time
	ledger  map[string]model.PaymentRecord

	Now func() time.Time
	Err error

	// BeforeApply runs before a payment transition is checked and stored.
	BeforeApply func(id uuid.UUID)
}

// NewEnrollmentRepositoryStub constructs an empty store.
func NewEnrollmentRepositoryStub() *EnrollmentRepositoryStub {
	return &EnrollmentRepositoryStub{
		rows:    make(map[uuid.UUID]model.Enrollment),
		claimed: make(map[uuid.UUID]time.Time),
		ledger:  make(map[string]model.PaymentRecord),
		Now:     time.Now,
	}
}

// Seed stores e as is, generating an id when missing.
func (s *EnrollmentRepositoryStub) Seed(e model.Enrollment) model.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = model.EnrollmentStatusPending
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = s.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.EnrolledAt
	}
	s.rows[e.ID] = e
	return e
}

// Snapshot returns the stored row and whether it exists.
func (s *EnrollmentRepositoryStub) Snapshot(id uuid.UUID) (model.Enrollment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	return e, ok
}

// Len reports the number of stored enrollments.
func (s *EnrollmentRepositoryStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// LedgerSize reports the number of recorded payments.
func (s *EnrollmentRepositoryStub) LedgerSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

func (s *EnrollmentRepositoryStub) FindByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, e := range s.rows {
		if e.UserID == userID && e.CourseID == courseID && e.Status.Holds() {
			return &e, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (s *EnrollmentRepositoryStub) GetByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	e, ok := s.rows[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &e, nil
}

func (s *EnrollmentRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Enrollment
	for _, e := range s.rows {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnrolledAt.After(result[j].EnrolledAt) })
	return result, nil
}

func (s *EnrollmentRepositoryStub) InsertPending(ctx context.Context, userID, courseID int64, orderID string) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, e := range s.rows {
		if e.UserID == userID && e.CourseID == courseID && e.Status.Holds() {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	now := s.Now()
	e := model.Enrollment{
		ID:             uuid.New(),
		UserID:         userID,
		CourseID:       courseID,
		Status:         model.EnrollmentStatusPending,
		AmountPaid:     decimal.Zero,
		GatewayOrderID: &orderID,
		EnrolledAt:     now,
		UpdatedAt:      now,
	}
	s.rows[e.ID] = e
	return &e, nil
}

func (s *EnrollmentRepositoryStub) ApplyPaymentTransition(ctx context.Context, expectedPaid decimal.Decimal, credit model.PaymentCredit, t model.Transition) error {
	if s.BeforeApply != nil {
		s.BeforeApply(credit.EnrollmentID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, dup := s.ledger[credit.PaymentID]; dup {
		return domainErrors.ErrDuplicatePayment
	}
	e, ok := s.rows[credit.EnrollmentID]
	if !ok || e.Status != model.EnrollmentStatusPending || !e.AmountPaid.Equal(expectedPaid) {
		return domainErrors.ErrConcurrentUpdate
	}

	now := s.Now()
	s.ledger[credit.PaymentID] = model.PaymentRecord{
		PaymentID:    credit.PaymentID,
		EnrollmentID: credit.EnrollmentID,
		OrderID:      credit.OrderID,
		Amount:       credit.Amount,
		Source:       credit.Source,
		RecordedAt:   now,
	}

	paymentID := credit.PaymentID
	e.Status = t.Status
	e.AmountPaid = t.AmountPaid
	e.GatewayPaymentID = &paymentID
	e.UpdatedAt = now
	s.rows[e.ID] = e
	return nil
}

func (s *EnrollmentRepositoryStub) ReassignOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	e, ok := s.rows[id]
	if !ok || e.Status != model.EnrollmentStatusPending {
		return domainErrors.ErrInvalidState
	}
	e.GatewayOrderID = &orderID
	e.UpdatedAt = s.Now()
	s.rows[id] = e
	delete(s.claimed, id)
	return nil
}

func (s *EnrollmentRepositoryStub) DeleteIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	e, ok := s.rows[id]
	if !ok || e.Status != model.EnrollmentStatusPending || !e.AmountPaid.IsZero() {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}

func (s *EnrollmentRepositoryStub) DeleteStaleOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var deleted int64
	for id, e := range s.rows {
		if e.Status == model.EnrollmentStatusPending && e.EnrolledAt.Before(cutoff) {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *EnrollmentRepositoryStub) ClaimForReconciliation(ctx context.Context, staleBefore time.Time, limit int) ([]model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var candidates []model.Enrollment
	for id, e := range s.rows {
		if e.Status != model.EnrollmentStatusPending || e.OrderID() == "" {
			continue
		}
		touched := e.UpdatedAt
		if at, ok := s.claimed[id]; ok {
			touched = at
		}
		if touched.Before(staleBefore) {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].EnrolledAt.Before(candidates[j].EnrolledAt) })
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	now := s.Now()
	for _, e := range candidates {
		s.claimed[e.ID] = now
	}
	return candidates, nil
}

func (s *EnrollmentRepositoryStub) Payments(ctx context.Context, id uuid.UUID) ([]model.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.PaymentRecord
	for _, p := range s.ledger {
		if p.EnrollmentID == id {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RecordedAt.Before(result[j].RecordedAt) })
	return result, nil
}
