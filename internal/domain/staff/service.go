package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medcdss/cdss/internal/platform/auth"
)

var (
	ErrNotFound            = errors.New("staff member not found")
	ErrDuplicateEmployeeID = errors.New("employee id is already registered")
	ErrInvalidCredentials  = errors.New("invalid employee id or password")
)

const minPasswordLength = 8

type Service struct {
	repo   Repository
	issuer *auth.TokenIssuer
}

func NewService(repo Repository, issuer *auth.TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Register creates an account. The role comes from the badge prefix, never
// from the request.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Staff, error) {
	role, err := auth.RoleForEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("first_name and last_name are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	member := &Staff{
		EmployeeID:   in.EmployeeID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DisplayName:  strings.TrimSpace(in.LastName + " " + in.FirstName),
		Email:        in.Email,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Login checks the credentials and returns a session token. Unknown badge
// numbers and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	member, err := s.repo.GetByEmployeeID(ctx, in.EmployeeID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(member.ID, member.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, Staff: member}, nil
}

// Get returns one staff member by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.repo.GetByID(ctx, id)
}

// ListColleagues returns every staff member except the caller, ordered by
// display name. This backs the chat partner picker.
func (s *Service) ListColleagues(ctx context.Context, callerID uuid.UUID) ([]*Staff, error) {
	return s.repo.ListExcluding(ctx, callerID)
}
