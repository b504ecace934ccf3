package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// memDispatcher records published events for assertions.
type memDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *memDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *memDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *memDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// fakeClock provides an adjustable deterministic time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore implements TicketRepository and AuditLogRepository in memory.
type memStore struct {
	mu       sync.Mutex
	tickets  map[string]domain.Ticket
	audits   map[string][]domain.AuditEntry
	clock    *fakeClock
	seq      int
	failNext error
}

func newMemStore(clock *fakeClock) *memStore {
	return &memStore{
		tickets: make(map[string]domain.Ticket),
		audits:  make(map[string][]domain.AuditEntry),
		clock:   clock,
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memStore) Create(_ context.Context, ticket *domain.Ticket, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	ticket.ID = m.nextID("tck")
	ticket.CreatedAt = m.clock.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	m.tickets[ticket.ID] = *ticket

	entry.TicketID = ticket.ID
	m.appendAudit(entry)
	return nil
}

func (m *memStore) ApplyTransition(_ context.Context, ticket *domain.Ticket, entry *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	if _, ok := m.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = m.clock.Now()
	m.tickets[ticket.ID] = *ticket
	m.appendAudit(entry)
	return nil
}

func (m *memStore) appendAudit(entry *domain.AuditEntry) {
	entry.ID = m.nextID("aud")
	// strictly increasing timestamps keep replay order unambiguous
	entry.CreatedAt = m.clock.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.audits[entry.TicketID] = append(m.audits[entry.TicketID], *entry)
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (m *memStore) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ticket := range m.tickets {
		if ticket.ExternalKey == key {
			t := ticket
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range m.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.ProjectID != nil && ticket.ProjectID != *filter.ProjectID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (m *memStore) ListInStatuses(_ context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range m.tickets {
		if containsStatus(statuses, ticket.Status) {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tickets, id)
	delete(m.audits, id)
	return nil
}

func (m *memStore) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry{}, m.audits[ticketID]...), nil
}

func (m *memStore) CountByTicket(_ context.Context, ticketID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audits[ticketID]), nil
}

// put places a ticket directly into the store, bypassing the engine.
func (m *memStore) put(ticket domain.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// memUsers implements UserRepository.
type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User)}
}

func (m *memUsers) add(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("usr-%d", len(m.users)+1)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// memProjects implements ProjectRepository.
type memProjects struct {
	mu       sync.Mutex
	projects map[string]domain.Project
}

func newMemProjects() *memProjects {
	return &memProjects{projects: make(map[string]domain.Project)}
}

func (m *memProjects) add(project domain.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
}

func (m *memProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &project, nil
}

func (m *memProjects) ListActive(_ context.Context) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Project
	for _, project := range m.projects {
		if project.IsActive {
			result = append(result, project)
		}
	}
	return result, nil
}

// memComments implements CommentRepository.
type memComments struct {
	mu       sync.Mutex
	comments map[string][]domain.Comment
	seq      int
}

func newMemComments() *memComments {
	return &memComments{comments: make(map[string][]domain.Comment)}
}

func (m *memComments) Create(_ context.Context, comment *domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	comment.ID = fmt.Sprintf("cmt-%d", m.seq)
	comment.CreatedAt = time.Now()
	m.comments[comment.TicketID] = append(m.comments[comment.TicketID], *comment)
	return nil
}

func (m *memComments) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Comment{}, m.comments[ticketID]...), nil
}
