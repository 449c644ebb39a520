package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"campusevents/internal/domain"
)

// In-memory fakes shared by the service tests. They mirror the storage
// semantics the postgres repositories implement (event row lock during
// booking, compound-key uniqueness, aggregate recompute) so the lifecycle
// invariants can be exercised end to end, including under concurrency.

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	m := make(map[string]*domain.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*domain.Event
	order  []string
	err    error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range events {
		f.events[e.ID] = e
		f.order = append(f.order, e.ID)
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, event *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *event
	f.events[event.ID] = &cp
	f.order = append(f.order, event.ID)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, id := range f.order {
		e := f.events[id]
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(e.Title), s) &&
				!strings.Contains(strings.ToLower(e.Description), s) {
				continue
			}
		}
		if filter.College != "" && e.College != filter.College {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if out == nil {
		out = []*domain.Event{}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, id := range f.order {
		e := f.events[id]
		if e.OrganizerID != organizerID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if out == nil {
		out = []*domain.Event{}
	}
	return out, nil
}

func (f *fakeEventRepo) ListUpcoming(ctx context.Context, after time.Time, excludeIDs []string) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	var out []*domain.Event
	for _, id := range f.order {
		e := f.events[id]
		if _, ok := excluded[e.ID]; ok {
			continue
		}
		if !e.Date.After(after) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if out == nil {
		out = []*domain.Event{}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, event *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[event.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *fakeEventRepo) DeleteCascade(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeRegistrationRepo struct {
	mu     sync.Mutex
	regs   map[string]*domain.Registration
	events *fakeEventRepo
	err    error
}

func newFakeRegistrationRepo(events *fakeEventRepo, regs ...*domain.Registration) *fakeRegistrationRepo {
	f := &fakeRegistrationRepo{regs: make(map[string]*domain.Registration), events: events}
	for _, r := range regs {
		f.regs[r.ID] = r
	}
	return f
}

// Book takes the event repo's lock for the whole operation, the same
// serialization the SQL implementation gets from SELECT ... FOR UPDATE.
func (f *fakeRegistrationRepo) Book(ctx context.Context, reg *domain.Registration) error {
	if f.err != nil {
		return f.err
	}
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	event, ok := f.events.events[reg.EventID]
	if !ok {
		return domain.ErrNotFound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.regs {
		if existing.EventID == reg.EventID && existing.StudentID == reg.StudentID {
			return domain.ErrConflict
		}
	}
	if event.Capacity != nil && event.RegistrationCount >= *event.Capacity {
		return domain.ErrCapacityExceeded
	}
	cp := *reg
	f.regs[reg.ID] = &cp
	event.RegistrationCount++
	return nil
}

func (f *fakeRegistrationRepo) Cancel(ctx context.Context, registrationID, eventID string) error {
	if f.err != nil {
		return f.err
	}
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.regs[registrationID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.regs, registrationID)
	if event, ok := f.events.events[eventID]; ok {
		event.RegistrationCount--
	}
	return nil
}

func (f *fakeRegistrationRepo) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeRegistrationRepo) GetByToken(ctx context.Context, checkinToken string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.CheckinToken == checkinToken {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.EventID == eventID && reg.StudentID == studentID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) ListByStudentID(ctx context.Context, studentID string) ([]*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Registration
	for _, reg := range f.regs {
		if reg.StudentID == studentID {
			cp := *reg
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []*domain.Registration{}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Registration
	for _, reg := range f.regs {
		if reg.EventID == eventID {
			cp := *reg
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if out == nil {
		out = []*domain.Registration{}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) MarkAttended(ctx context.Context, id string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if reg.Attended {
		return domain.ErrConflict
	}
	reg.Attended = true
	t := at
	reg.AttendanceTime = &t
	return nil
}

type fakeCertificateRepo struct {
	mu             sync.Mutex
	byRegistration map[string]*domain.Certificate
	regs           *fakeRegistrationRepo
	err            error
}

func newFakeCertificateRepo(regs *fakeRegistrationRepo) *fakeCertificateRepo {
	return &fakeCertificateRepo{
		byRegistration: make(map[string]*domain.Certificate),
		regs:           regs,
	}
}

func (f *fakeCertificateRepo) CreateAndMarkIssued(ctx context.Context, cert *domain.Certificate) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byRegistration[cert.RegistrationID]; ok {
		return domain.ErrConflict
	}
	cp := *cert
	f.byRegistration[cert.RegistrationID] = &cp

	f.regs.mu.Lock()
	defer f.regs.mu.Unlock()
	if reg, ok := f.regs.regs[cert.RegistrationID]; ok {
		reg.CertificateIssued = true
	}
	return nil
}

func (f *fakeCertificateRepo) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Certificate, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cert, ok := f.byRegistration[registrationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *cert
	return &cp, nil
}

func (f *fakeCertificateRepo) ListByStudentID(ctx context.Context, studentID string) ([]*domain.Certificate, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Certificate
	for _, cert := range f.byRegistration {
		if cert.StudentID == studentID {
			cp := *cert
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IssuedDate.After(out[j].IssuedDate) })
	if out == nil {
		out = []*domain.Certificate{}
	}
	return out, nil
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings map[string]*domain.Rating // keyed event_id:student_id
	events  *fakeEventRepo
	err     error
}

func newFakeRatingRepo(events *fakeEventRepo) *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[string]*domain.Rating), events: events}
}

func ratingKey(eventID, studentID string) string {
	return eventID + ":" + studentID
}

func (f *fakeRatingRepo) CreateAndRecompute(ctx context.Context, rating *domain.Rating) error {
	if f.err != nil {
		return f.err
	}
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	event, ok := f.events.events[rating.EventID]
	if !ok {
		return domain.ErrNotFound
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := ratingKey(rating.EventID, rating.StudentID)
	if _, ok := f.ratings[key]; ok {
		return domain.ErrConflict
	}
	cp := *rating
	f.ratings[key] = &cp

	var sum, count int
	for _, r := range f.ratings {
		if r.EventID == rating.EventID {
			sum += r.Score
			count++
		}
	}
	event.RatingAverage = math.Round(float64(sum)/float64(count)*100) / 100
	event.RatingCount = count
	return nil
}

func (f *fakeRatingRepo) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*domain.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rating, ok := f.ratings[ratingKey(eventID, studentID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rating
	return &cp, nil
}

func (f *fakeRatingRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Rating
	for _, rating := range f.ratings {
		if rating.EventID == eventID {
			cp := *rating
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []*domain.Rating{}
	}
	return out, nil
}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(studentName, eventTitle, formattedDate string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("certificate:%s:%s:%s", studentName, eventTitle, formattedDate)), nil
}

type fakeHasher struct {
	err error
}

func (f *fakeHasher) Hash(password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "hashed:" + password, nil
}

func (f *fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) Issue(subjectID, role string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token:" + subjectID + ":" + role, nil
}
