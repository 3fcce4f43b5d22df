package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kmende/npi-registration/internal/app/models"
	"github.com/kmende/npi-registration/internal/app/models/dto"
	"github.com/kmende/npi-registration/internal/pkg/apperrors"
)

// In-memory store fakes backing the service tests. They reproduce the
// concurrency contracts of the pgx repositories: atomic counter reservation,
// conditional room allocation and payment deduplication.

type memPrograms struct {
	mu       sync.Mutex
	programs map[int64]*models.Program
	fees     map[int64][]*models.FeeItem
}

func newMemPrograms() *memPrograms {
	return &memPrograms{
		programs: make(map[int64]*models.Program),
		fees:     make(map[int64][]*models.FeeItem),
	}
}

func (m *memPrograms) GetByID(_ context.Context, id int64) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok {
		return nil, apperrors.ErrProgramNotFound
	}
	return p, nil
}

func (m *memPrograms) GetAll(_ context.Context) ([]*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Program
	for _, p := range m.programs {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrograms) GetFeeSchedule(_ context.Context, programID int64) ([]*models.FeeItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fees[programID], nil
}

type memSequence struct {
	mu       sync.Mutex
	counters map[string]int
	failures int           // reservation errors to inject before succeeding
	failWith error
	delay    time.Duration // widens the window between attempt resolution and first commit
}

func newMemSequence() *memSequence {
	return &memSequence{counters: make(map[string]int)}
}

func (m *memSequence) ReserveNext(_ context.Context, programID int64, enrollmentYear int, _ string) (int, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return 0, m.failWith
	}
	key := fmt.Sprintf("%d/%d", programID, enrollmentYear)
	m.counters[key]++
	return m.counters[key], nil
}

type memStudents struct {
	mu       sync.Mutex
	nextID   int64
	students map[int64]*models.Student
	byNumber map[string]int64
}

func newMemStudents() *memStudents {
	return &memStudents{
		students: make(map[int64]*models.Student),
		byNumber: make(map[string]int64),
	}
}

func (m *memStudents) Create(_ context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byNumber[student.StudentNumber]; exists {
		return apperrors.NewInvariantViolationError("student number already exists: " + student.StudentNumber)
	}
	m.nextID++
	student.ID = m.nextID
	copied := *student
	m.students[student.ID] = &copied
	m.byNumber[student.StudentNumber] = student.ID
	return nil
}

func (m *memStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memStudents) GetByStudentNumber(_ context.Context, number string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byNumber[number]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	copied := *m.students[id]
	return &copied, nil
}

func (m *memStudents) Deactivate(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	s.IsActive = false
	return nil
}

func (m *memStudents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.students)
}

type paymentKey struct {
	studentID int64
	feeItemID int64
}

type memPayments struct {
	mu       sync.Mutex
	nextID   int64
	payments map[paymentKey]*models.Payment
	byID     map[int64]*models.Payment
	failures int
	failWith error
}

func newMemPayments() *memPayments {
	return &memPayments{
		payments: make(map[paymentKey]*models.Payment),
		byID:     make(map[int64]*models.Payment),
	}
}

func (m *memPayments) Create(_ context.Context, payment *models.Payment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return false, m.failWith
	}
	key := paymentKey{payment.StudentID, payment.FeeItemID}
	if existing, ok := m.payments[key]; ok {
		*payment = *existing
		return false, nil
	}
	m.nextID++
	payment.ID = m.nextID
	copied := *payment
	m.payments[key] = &copied
	m.byID[payment.ID] = &copied
	return true, nil
}

func (m *memPayments) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memPayments) GetByStudent(_ context.Context, studentID int64) ([]*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Payment
	for _, p := range m.byID {
		if p.StudentID == studentID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPayments) ListPending(_ context.Context) ([]*dto.PendingPaymentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*dto.PendingPaymentItem
	for _, p := range m.byID {
		if p.Status == models.VerificationPending {
			copied := *p
			out = append(out, &dto.PendingPaymentItem{Payment: &copied})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Payment.ID < out[j].Payment.ID })
	return out, nil
}

func (m *memPayments) Verify(_ context.Context, id, verifierID int64, decision models.VerificationStatus) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	if p.Status != models.VerificationPending {
		return nil, apperrors.ErrPaymentFinalized
	}
	now := time.Now()
	p.Status = decision
	p.VerifiedBy = &verifierID
	p.VerifiedAt = &now
	copied := *p
	return &copied, nil
}

func (m *memPayments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memRooms struct {
	mu          sync.Mutex
	nextAllocID int64
	rooms       map[int64]*models.Room
	allocations map[int64]*models.RoomAllocation // keyed by student ID
}

func newMemRooms() *memRooms {
	return &memRooms{
		rooms:       make(map[int64]*models.Room),
		allocations: make(map[int64]*models.RoomAllocation),
	}
}

func (m *memRooms) addRoom(room *models.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

func (m *memRooms) FindCandidates(_ context.Context, roomType models.RoomType, gender models.Gender) ([]*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Room
	for _, r := range m.rooms {
		if !r.IsAvailable || r.RoomType != roomType || r.CurrentOccupancy >= r.Capacity {
			continue
		}
		if r.GenderRestriction != nil && *r.GenderRestriction != gender {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentOccupancy != out[j].CurrentOccupancy {
			return out[i].CurrentOccupancy < out[j].CurrentOccupancy
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memRooms) TryAllocate(_ context.Context, roomID, studentID int64) (*models.RoomAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	if !room.IsAvailable || room.CurrentOccupancy >= room.Capacity {
		return nil, nil
	}
	room.CurrentOccupancy++
	m.nextAllocID++
	alloc := &models.RoomAllocation{
		ID:            m.nextAllocID,
		StudentID:     studentID,
		RoomID:        roomID,
		AllocatedDate: time.Now(),
		IsActive:      true,
	}
	m.allocations[studentID] = alloc
	copied := *alloc
	return &copied, nil
}

func (m *memRooms) GetActiveAllocationByStudent(_ context.Context, studentID int64) (*models.RoomAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alloc, ok := m.allocations[studentID]
	if !ok || !alloc.IsActive {
		return nil, nil
	}
	copied := *alloc
	return &copied, nil
}

func (m *memRooms) occupancy(roomID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[roomID].CurrentOccupancy
}

type memCards struct {
	mu        sync.Mutex
	nextID    int64
	idCards   map[int64]*models.IDCard
	mealCards map[int64]*models.MealCard
}

func newMemCards() *memCards {
	return &memCards{
		idCards:   make(map[int64]*models.IDCard),
		mealCards: make(map[int64]*models.MealCard),
	}
}

func (m *memCards) CreateIDCard(_ context.Context, card *models.IDCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	card.ID = m.nextID
	copied := *card
	m.idCards[card.StudentID] = &copied
	return nil
}

func (m *memCards) GetActiveIDCardByStudent(_ context.Context, studentID int64) (*models.IDCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.idCards[studentID]
	if !ok || !card.IsActive {
		return nil, nil
	}
	copied := *card
	return &copied, nil
}

func (m *memCards) CreateMealCard(_ context.Context, card *models.MealCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	card.ID = m.nextID
	copied := *card
	m.mealCards[card.StudentID] = &copied
	return nil
}

func (m *memCards) GetActiveMealCardByStudent(_ context.Context, studentID int64) (*models.MealCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	card, ok := m.mealCards[studentID]
	if !ok || !card.IsActive {
		return nil, nil
	}
	copied := *card
	return &copied, nil
}

type memAttempts struct {
	mu       sync.Mutex
	nextID   int64
	byToken  map[string]*models.RegistrationAttempt
	byID     map[int64]*models.RegistrationAttempt
	failOn   models.Stage // reject the next transition into this stage
	failWith error
}

func newMemAttempts() *memAttempts {
	return &memAttempts{
		byToken: make(map[string]*models.RegistrationAttempt),
		byID:    make(map[int64]*models.RegistrationAttempt),
	}
}

func (m *memAttempts) Create(_ context.Context, attempt *models.RegistrationAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byToken[attempt.RequestToken]; exists {
		return apperrors.ErrDuplicateSubmission
	}
	m.nextID++
	attempt.ID = m.nextID
	attempt.CreatedAt = time.Now()
	attempt.UpdatedAt = attempt.CreatedAt
	copied := *attempt
	m.byToken[attempt.RequestToken] = &copied
	m.byID[attempt.ID] = &copied
	return nil
}

func (m *memAttempts) GetByToken(_ context.Context, token string) (*models.RegistrationAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byToken[token]
	if !ok {
		return nil, apperrors.ErrAttemptNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memAttempts) AdvanceStage(_ context.Context, attempt *models.RegistrationAttempt, expected models.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && attempt.Stage == m.failOn {
		m.failOn = ""
		return m.failWith
	}
	stored, ok := m.byID[attempt.ID]
	if !ok || stored.Stage != expected {
		// Same contract as the conditional UPDATE: zero rows when the
		// stage moved underneath the caller.
		return apperrors.NewCustomError(apperrors.ErrPersistenceConflict,
			"registration attempt was advanced by a concurrent submission")
	}
	stored.Stage = attempt.Stage
	stored.StudentNumber = attempt.StudentNumber
	stored.StudentID = attempt.StudentID
	stored.AccommodationState = attempt.AccommodationState
	stored.LastError = nil
	stored.FailedStage = nil
	stored.Resumable = true
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memAttempts) MarkFailed(_ context.Context, attemptID int64, expected, lastCompleted models.Stage, resumable bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[attemptID]
	if !ok || stored.Stage != expected {
		return apperrors.NewCustomError(apperrors.ErrPersistenceConflict,
			"registration attempt was advanced by a concurrent submission")
	}
	stored.Stage = models.StageFailed
	stored.FailedStage = &lastCompleted
	stored.LastError = &reason
	stored.Resumable = resumable
	stored.UpdatedAt = time.Now()
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func newMemAudit() *memAudit {
	return &memAudit{}
}

func (m *memAudit) Append(_ context.Context, entry *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *memAudit) ListByStudent(_ context.Context, studentID int64) ([]*models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditEntry
	for _, e := range m.entries {
		if e.StudentID != nil && *e.StudentID == studentID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	byID    map[int64]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{
		byEmail: make(map[string]*models.User),
		byID:    make(map[int64]*models.User),
	}
}

func (m *memUsers) add(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}
