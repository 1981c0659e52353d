package staff

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medcdss/cdss/internal/platform/auth"
)

type mockRepo struct {
	items map[uuid.UUID]*Staff
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Staff)}
}

func (m *mockRepo) Create(_ context.Context, s *Staff) error {
	for _, existing := range m.items {
		if existing.EmployeeID == s.EmployeeID {
			return ErrDuplicateEmployeeID
		}
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.items[s.ID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) GetByEmployeeID(_ context.Context, employeeID string) (*Staff, error) {
	for _, s := range m.items {
		if s.EmployeeID == employeeID {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListExcluding(_ context.Context, excludeID uuid.UUID) ([]*Staff, error) {
	var result []*Staff
	for _, s := range m.items {
		if s.ID != excludeID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DisplayName < result[j].DisplayName })
	return result, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, auth.NewTokenIssuer([]byte("test-secret"), time.Hour)), repo
}

func TestRegister_DerivesRoleFromBadge(t *testing.T) {
	svc, _ := newTestService()

	cases := map[string]string{
		"DOC-1234": auth.RoleDoctor,
		"NUR-2345": auth.RoleNurse,
		"TEC-3456": auth.RoleTechnician,
	}
	for employeeID, wantRole := range cases {
		member, err := svc.Register(context.Background(), RegisterInput{
			EmployeeID: employeeID,
			Password:   "correcthorse",
			FirstName:  "Minsoo",
			LastName:   "Kim",
		})
		if err != nil {
			t.Fatalf("%s: register: %v", employeeID, err)
		}
		if member.Role != wantRole {
			t.Errorf("%s: expected role %s, got %s", employeeID, wantRole, member.Role)
		}
		if member.DisplayName != "Kim Minsoo" {
			t.Errorf("%s: unexpected display name %q", employeeID, member.DisplayName)
		}
		if member.PasswordHash == "correcthorse" {
			t.Error("password must be stored hashed")
		}
	}
}

func TestRegister_RejectsBadBadge(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{
		EmployeeID: "ADM-1234",
		Password:   "correcthorse",
		FirstName:  "A",
		LastName:   "B",
	})
	if err == nil {
		t.Fatal("expected error for unknown badge prefix")
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{
		EmployeeID: "DOC-1234",
		Password:   "short",
		FirstName:  "A",
		LastName:   "B",
	})
	if err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestRegister_DuplicateBadge(t *testing.T) {
	svc, _ := newTestService()
	in := RegisterInput{EmployeeID: "DOC-1234", Password: "correcthorse", FirstName: "A", LastName: "B"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), in); err != ErrDuplicateEmployeeID {
		t.Errorf("expected ErrDuplicateEmployeeID, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	member, err := svc.Register(context.Background(), RegisterInput{
		EmployeeID: "NUR-0001", Password: "correcthorse", FirstName: "Jiwon", LastName: "Lee",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := svc.Login(context.Background(), LoginInput{EmployeeID: "NUR-0001", Password: "correcthorse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" {
		t.Error("expected a token")
	}
	if session.Staff.ID != member.ID {
		t.Error("expected the registered account in the session")
	}
}

func TestLogin_WrongPasswordAndUnknownBadgeLookAlike(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), RegisterInput{
		EmployeeID: "NUR-0001", Password: "correcthorse", FirstName: "A", LastName: "B",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPass := svc.Login(context.Background(), LoginInput{EmployeeID: "NUR-0001", Password: "nope-nope"})
	_, unknown := svc.Login(context.Background(), LoginInput{EmployeeID: "NUR-9999", Password: "correcthorse"})
	if wrongPass != ErrInvalidCredentials || unknown != ErrInvalidCredentials {
		t.Errorf("expected identical ErrInvalidCredentials, got %v and %v", wrongPass, unknown)
	}
}

func TestListColleagues_ExcludesCaller(t *testing.T) {
	svc, _ := newTestService()
	caller, _ := svc.Register(context.Background(), RegisterInput{
		EmployeeID: "DOC-0001", Password: "correcthorse", FirstName: "Minsoo", LastName: "Kim",
	})
	svc.Register(context.Background(), RegisterInput{
		EmployeeID: "NUR-0002", Password: "correcthorse", FirstName: "Jiwon", LastName: "Lee",
	})
	svc.Register(context.Background(), RegisterInput{
		EmployeeID: "TEC-0003", Password: "correcthorse", FirstName: "Haneul", LastName: "Choi",
	})

	colleagues, err := svc.ListColleagues(context.Background(), caller.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(colleagues) != 2 {
		t.Fatalf("expected 2 colleagues, got %d", len(colleagues))
	}
	for _, member := range colleagues {
		if member.ID == caller.ID {
			t.Error("caller must not appear in the colleague list")
		}
	}
	if colleagues[0].DisplayName > colleagues[1].DisplayName {
		t.Error("expected colleagues ordered by display name")
	}
}
