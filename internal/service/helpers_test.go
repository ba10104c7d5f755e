package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/drl-go-api/internal/models"
	"github.com/noah-isme/drl-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memoryActivityRepo struct {
	mu         sync.Mutex
	activities map[uint]models.Activity
	nextID     uint
}

func newMemoryActivityRepo() *memoryActivityRepo {
	return &memoryActivityRepo{activities: make(map[uint]models.Activity), nextID: 1}
}

func (m *memoryActivityRepo) GetByID(_ context.Context, id uint) (models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[id]
	if !ok {
		return models.Activity{}, gorm.ErrRecordNotFound
	}
	return activity, nil
}

func (m *memoryActivityRepo) List(_ context.Context, filter repository.ActivityFilter) ([]models.Activity, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		if filter.Status != "" && activity.Status != filter.Status {
			continue
		}
		results = append(results, activity)
	}
	return results, int64(len(results)), nil
}

func (m *memoryActivityRepo) Create(_ context.Context, activity *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity.ID = m.nextID
	activity.CreatedAt = time.Now()
	activity.UpdatedAt = time.Now()
	m.activities[m.nextID] = *activity
	m.nextID++
	return nil
}

func (m *memoryActivityRepo) Update(_ context.Context, activity *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[activity.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	activity.UpdatedAt = time.Now()
	m.activities[activity.ID] = *activity
	return nil
}

type memoryRegistrationRepo struct {
	mu            sync.Mutex
	registrations map[uint]models.Registration
	nextID        uint
}

func newMemoryRegistrationRepo() *memoryRegistrationRepo {
	return &memoryRegistrationRepo{registrations: make(map[uint]models.Registration), nextID: 1}
}

func (m *memoryRegistrationRepo) GetByID(_ context.Context, id uint) (models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	registration, ok := m.registrations[id]
	if !ok {
		return models.Registration{}, gorm.ErrRecordNotFound
	}
	return registration, nil
}

func (m *memoryRegistrationRepo) FindActive(_ context.Context, activityID, studentID uint) (models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, registration := range m.registrations {
		if registration.ActivityID == activityID && registration.StudentID == studentID &&
			registration.Status != models.RegistrationStatusCancelled {
			return registration, nil
		}
	}
	return models.Registration{}, gorm.ErrRecordNotFound
}

func (m *memoryRegistrationRepo) List(_ context.Context, filter repository.RegistrationFilter) ([]models.Registration, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.Registration, 0, len(m.registrations))
	for _, registration := range m.registrations {
		if filter.ActivityID != nil && registration.ActivityID != *filter.ActivityID {
			continue
		}
		if filter.StudentID != nil && registration.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != "" && registration.Status != filter.Status {
			continue
		}
		results = append(results, registration)
	}
	return results, int64(len(results)), nil
}

func (m *memoryRegistrationRepo) Create(_ context.Context, registration *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the partial unique index on (activity_id, student_id).
	for _, existing := range m.registrations {
		if existing.ActivityID == registration.ActivityID && existing.StudentID == registration.StudentID &&
			existing.Status != models.RegistrationStatusCancelled {
			return gorm.ErrDuplicatedKey
		}
	}
	registration.ID = m.nextID
	registration.CreatedAt = time.Now()
	registration.UpdatedAt = time.Now()
	m.registrations[m.nextID] = *registration
	m.nextID++
	return nil
}

func (m *memoryRegistrationRepo) Update(_ context.Context, registration *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrations[registration.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	registration.UpdatedAt = time.Now()
	m.registrations[registration.ID] = *registration
	return nil
}

// memoryLedger serializes reservations with a mutex, mirroring the row-level
// serialization the SQL ledger gets from the database.
type memoryLedger struct {
	mu         sync.Mutex
	activities *memoryActivityRepo
}

func newMemoryLedger(activities *memoryActivityRepo) *memoryLedger {
	return &memoryLedger{activities: activities}
}

func (l *memoryLedger) TryReserve(_ context.Context, activityID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activities.mu.Lock()
	defer l.activities.mu.Unlock()

	activity, ok := l.activities.activities[activityID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if activity.Capacity != nil && activity.AcceptedCount >= *activity.Capacity {
		return repository.ErrCapacityExceeded
	}
	activity.AcceptedCount++
	l.activities.activities[activityID] = activity
	return nil
}

func (l *memoryLedger) Release(_ context.Context, activityID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activities.mu.Lock()
	defer l.activities.mu.Unlock()

	activity, ok := l.activities.activities[activityID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if activity.AcceptedCount > 0 {
		activity.AcceptedCount--
	}
	l.activities.activities[activityID] = activity
	return nil
}

type memoryDecisionLogRepo struct {
	mu      sync.Mutex
	entries []models.DecisionLog
}

func (m *memoryDecisionLogRepo) Create(_ context.Context, entry *models.DecisionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryDecisionLogRepo) List(_ context.Context, filter repository.DecisionLogFilter) ([]models.DecisionLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.DecisionLog, 0, len(m.entries))
	for _, entry := range m.entries {
		if filter.ActivityID != nil && entry.ActivityID != *filter.ActivityID {
			continue
		}
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		results = append(results, entry)
	}
	return results, int64(len(results)), nil
}

type memoryStudentRepo struct {
	students map[uint]models.Student
}

func newMemoryStudentRepo(students ...models.Student) *memoryStudentRepo {
	repo := &memoryStudentRepo{students: make(map[uint]models.Student, len(students))}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (m *memoryStudentRepo) GetByID(_ context.Context, id uint) (models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (m *memoryStudentRepo) ClassOf(ctx context.Context, studentID uint) (*uint, error) {
	student, err := m.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return student.ClassID, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []NotificationEvent
	fail   bool
}

func (n *recordingNotifier) Notify(_ context.Context, event NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	if n.fail {
		return errDeliveryDown
	}
	return nil
}

var errDeliveryDown = &deliveryError{}

type deliveryError struct{}

func (e *deliveryError) Error() string { return "delivery channel down" }

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }
