package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medcdss/cdss/internal/platform/registry"
	"github.com/medcdss/cdss/internal/platform/websocket"
)

type mockRepo struct {
	items     map[uuid.UUID]*Patient
	upsertErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Upsert(_ context.Context, p *Patient) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	now := time.Now()
	p.SyncedAt = &now
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Search(_ context.Context, query string, limit, startIndex int) ([]*Patient, int, error) {
	var matched []*Patient
	for _, p := range m.items {
		if query == "" {
			matched = append(matched, p)
			continue
		}
		if id, err := uuid.Parse(query); err == nil {
			if p.ID == id {
				matched = append(matched, p)
			}
			continue
		}
		q := strings.ToLower(query)
		if strings.Contains(strings.ToLower(p.DisplayName), q) ||
			strings.Contains(strings.ToLower(p.Identifier), q) ||
			strings.Contains(strings.ToLower(p.GivenName), q) ||
			strings.Contains(strings.ToLower(p.FamilyName), q) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].DisplayName < matched[j].DisplayName })

	total := len(matched)
	if startIndex >= total {
		return nil, total, nil
	}
	end := startIndex + limit
	if end > total {
		end = total
	}
	return matched[startIndex:end], total, nil
}

type mockRegistry struct {
	patients  []registry.Patient
	syncErr   error
	getErr    error
	createErr error
	created   *registry.Patient
}

func (m *mockRegistry) Sync(_ context.Context, _ string, limitPerCall, maxTotal int, upsert func(registry.Patient) error) (int, error) {
	if m.syncErr != nil {
		return 0, m.syncErr
	}
	synced := 0
	for _, p := range m.patients {
		if synced >= maxTotal {
			break
		}
		if err := upsert(p); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

func (m *mockRegistry) GetPatient(_ context.Context, patientUUID string) (registry.Patient, error) {
	if m.getErr != nil {
		return registry.Patient{}, m.getErr
	}
	for _, p := range m.patients {
		if p.UUID == patientUUID {
			return p, nil
		}
	}
	return registry.Patient{}, &registry.StatusError{StatusCode: 404, Body: "no such patient"}
}

func (m *mockRegistry) CreatePatient(_ context.Context, np registry.NewPatient) (registry.Patient, error) {
	if m.createErr != nil {
		return registry.Patient{}, m.createErr
	}
	if m.created != nil {
		return *m.created, nil
	}
	doc := registryDoc(uuid.NewString(), np.Identifier+" - "+np.FamilyName+" "+np.GivenName, np.Identifier, np.GivenName, np.FamilyName)
	return doc, nil
}

type recordingPublisher struct {
	events []websocket.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e websocket.Event) error {
	r.events = append(r.events, e)
	return nil
}

func registryDoc(id, display, identifier, given, family string) registry.Patient {
	raw, _ := json.Marshal(map[string]interface{}{
		"uuid":    id,
		"display": display,
		"identifiers": []map[string]string{
			{"identifier": identifier},
		},
		"person": map[string]interface{}{
			"display":   given + " " + family,
			"gender":    "M",
			"birthdate": "1960-01-01T00:00:00.000+0000",
			"preferredName": map[string]string{
				"givenName": given, "familyName": family,
			},
		},
	})
	return registry.Patient{
		UUID:        id,
		Display:     display,
		Identifier:  identifier,
		Identifiers: []string{identifier},
		GivenName:   given,
		FamilyName:  family,
		Gender:      "M",
		BirthDate:   "1960-01-01T00:00:00.000+0000",
		Raw:         raw,
	}
}

func newTestService(repo *mockRepo, reg *mockRegistry) (*Service, *recordingPublisher) {
	events := &recordingPublisher{}
	svc := NewService(repo, reg, events,
		SyncConfig{Query: "1000", Limit: 50, Max: 200}, zerolog.Nop())
	return svc, events
}

func TestSyncAndList_RefreshesDirectory(t *testing.T) {
	repo := newMockRepo()
	reg := &mockRegistry{patients: []registry.Patient{
		registryDoc(uuid.NewString(), "1000AB - Kim Minsoo", "1000AB", "Minsoo", "Kim"),
		registryDoc(uuid.NewString(), "1000CD - Lee Jiwon", "1000CD", "Jiwon", "Lee"),
	}}
	svc, _ := newTestService(repo, reg)

	result, err := svc.SyncAndList(context.Background(), "", "", 50, 0)
	if err != nil {
		t.Fatalf("sync and list: %v", err)
	}
	if result.SyncErrorDetail != "" {
		t.Errorf("unexpected sync error: %s", result.SyncErrorDetail)
	}
	if result.TotalCount != 2 || len(result.Results) != 2 {
		t.Fatalf("expected 2 patients, got total=%d len=%d", result.TotalCount, len(result.Results))
	}
	// Ordered by display name.
	if result.Results[0].Display != "1000AB - Kim Minsoo" {
		t.Errorf("unexpected order: %+v", result.Results)
	}
}

func TestSyncAndList_SyncFailureStillLists(t *testing.T) {
	repo := newMockRepo()
	stale := registryDoc(uuid.NewString(), "1000AB - Kim Minsoo", "1000AB", "Minsoo", "Kim")
	p, err := fromRegistry(stale)
	if err != nil {
		t.Fatalf("fromRegistry: %v", err)
	}
	repo.Upsert(context.Background(), p)

	svc, _ := newTestService(repo, &mockRegistry{syncErr: fmt.Errorf("connection refused")})

	result, err := svc.SyncAndList(context.Background(), "", "", 50, 0)
	if err != nil {
		t.Fatalf("listing must survive a sync failure: %v", err)
	}
	if result.SyncErrorDetail == "" {
		t.Error("expected sync_error_detail to be populated")
	}
	if result.TotalCount != 1 {
		t.Errorf("expected the stale local row to be served, got %d", result.TotalCount)
	}
}

func TestSearch_ByUUIDAndSubstring(t *testing.T) {
	repo := newMockRepo()
	kim := registryDoc(uuid.NewString(), "1000AB - Kim Minsoo", "1000AB", "Minsoo", "Kim")
	lee := registryDoc(uuid.NewString(), "2000CD - Lee Jiwon", "2000CD", "Jiwon", "Lee")
	for _, doc := range []registry.Patient{kim, lee} {
		p, _ := fromRegistry(doc)
		repo.Upsert(context.Background(), p)
	}
	svc, _ := newTestService(repo, &mockRegistry{})

	byUUID, err := svc.Search(context.Background(), kim.UUID, 50, 0)
	if err != nil {
		t.Fatalf("search by uuid: %v", err)
	}
	if byUUID.TotalCount != 1 || byUUID.Results[0].UUID != kim.UUID {
		t.Errorf("uuid search must match exactly: %+v", byUUID)
	}

	bySub, err := svc.Search(context.Background(), "jiwon", 50, 0)
	if err != nil {
		t.Fatalf("search by substring: %v", err)
	}
	if bySub.TotalCount != 1 || bySub.Results[0].UUID != lee.UUID {
		t.Errorf("substring search must be case-insensitive: %+v", bySub)
	}
}

func TestGet_ServesCachedDocument(t *testing.T) {
	repo := newMockRepo()
	doc := registryDoc(uuid.NewString(), "1000AB - Kim Minsoo", "1000AB", "Minsoo", "Kim")
	p, _ := fromRegistry(doc)
	repo.Upsert(context.Background(), p)

	// Registry unreachable: the cached document must still be served.
	svc, _ := newTestService(repo, &mockRegistry{getErr: fmt.Errorf("connection refused")})

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.RawRegistryData) == 0 {
		t.Error("expected the stored registry document")
	}
}

func TestGet_FetchesAndCachesUnknownPatient(t *testing.T) {
	repo := newMockRepo()
	doc := registryDoc(uuid.NewString(), "1000AB - Kim Minsoo", "1000AB", "Minsoo", "Kim")
	svc, _ := newTestService(repo, &mockRegistry{patients: []registry.Patient{doc}})

	id := uuid.MustParse(doc.UUID)
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Identifier != "1000AB" {
		t.Errorf("unexpected patient: %+v", got)
	}
	if _, ok := repo.items[id]; !ok {
		t.Error("expected the fetched document to be cached locally")
	}
}

func TestRegister_StoresConfirmedIdentifier(t *testing.T) {
	repo := newMockRepo()
	// The registry normalizes the submitted identifier.
	confirmed := registryDoc(uuid.NewString(), "3000EF-R - Kim Minsoo", "3000EF-R", "Minsoo", "Kim")
	reg := &mockRegistry{created: &confirmed}
	svc, events := newTestService(repo, reg)

	created, err := svc.Register(context.Background(), RegisterInput{
		GivenName: "Minsoo", FamilyName: "Kim", Gender: "M",
		BirthDate: "1960-01-01", Identifier: "3000EF",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Identifier != "3000EF-R" {
		t.Errorf("identifier must come from the registry response, got %q", created.Identifier)
	}
	if len(events.events) != 1 || events.events[0].Type != websocket.EventPatientRegistered {
		t.Errorf("expected a patient.registered event, got %+v", events.events)
	}
	if events.events[0].Topic != websocket.TopicPatients {
		t.Errorf("expected the patients topic, got %s", events.events[0].Topic)
	}
}

func TestRegister_ValidatesBeforeTouchingRegistry(t *testing.T) {
	repo := newMockRepo()
	reg := &mockRegistry{createErr: fmt.Errorf("must not be called")}
	svc, _ := newTestService(repo, reg)

	_, err := svc.Register(context.Background(), RegisterInput{GivenName: "Minsoo"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegister_RegistryRejectionPropagates(t *testing.T) {
	repo := newMockRepo()
	reg := &mockRegistry{createErr: &registry.StatusError{StatusCode: 400, Body: "identifier already in use"}}
	svc, events := newTestService(repo, reg)

	_, err := svc.Register(context.Background(), RegisterInput{
		GivenName: "Minsoo", FamilyName: "Kim", Gender: "M",
		BirthDate: "1960-01-01", Identifier: "3000EF",
	})
	var statusErr *registry.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected the registry status error, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("nothing may be stored locally when the registry rejects")
	}
	if len(events.events) != 0 {
		t.Error("no event may be published when the registry rejects")
	}
}

func TestSummary_FallsBackToColumns(t *testing.T) {
	birth := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Patient{
		ID:         uuid.New(),
		GivenName:  "Minsoo",
		FamilyName: "Kim",
		Gender:     "M",
		BirthDate:  &birth,
		Identifier: "1000AB",
	}

	s := p.Summary()
	if s.Display != "Minsoo Kim" {
		t.Errorf("expected name fallback display, got %q", s.Display)
	}
	if len(s.Identifiers) != 1 || s.Identifiers[0].Identifier != "1000AB" {
		t.Errorf("expected column identifier fallback, got %+v", s.Identifiers)
	}
	if s.Person.BirthDate != "1960-01-01" {
		t.Errorf("expected date-formatted birthdate, got %q", s.Person.BirthDate)
	}
}

func TestSummary_PrefersRawDocument(t *testing.T) {
	doc := registryDoc(uuid.NewString(), "1000AB - Kim Minsoo", "1000AB", "Minsoo", "Kim")
	p, _ := fromRegistry(doc)
	p.DisplayName = "stale local name"

	s := p.Summary()
	if s.Display != "1000AB - Kim Minsoo" {
		t.Errorf("raw document must win over local columns, got %q", s.Display)
	}
}

func TestParseBirthDate(t *testing.T) {
	cases := []string{"1960-01-01", "1960-01-01T00:00:00.000+0000", "1960-01-01T00:00:00Z"}
	for _, in := range cases {
		got := parseBirthDate(in)
		if got == nil {
			t.Errorf("parseBirthDate(%q) = nil", in)
			continue
		}
		if got.Year() != 1960 || got.Month() != time.January || got.Day() != 1 {
			t.Errorf("parseBirthDate(%q) = %v", in, got)
		}
	}
	if parseBirthDate("") != nil {
		t.Error("empty birthdate must parse to nil")
	}
	if parseBirthDate("not-a-date") != nil {
		t.Error("garbage birthdate must parse to nil")
	}
}
