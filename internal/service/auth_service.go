package service

import (
	"errors"
	"fmt"
	"sort"
	"unicode"

	"tienda-backend/internal/models"
	"tienda-backend/internal/repository"
	"tienda-backend/internal/token"
	"tienda-backend/pkg/utils"
)

// UserStore is the persistence contract for user records.
// Implemented by repository.UserRepository.
type UserStore interface {
	Create(user *models.User) error
	// FindByUsername matches the username case-insensitively.
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
}

// RoleStore is the persistence contract for roles and role assignments.
// Implemented by repository.RoleRepository.
type RoleStore interface {
	FindByName(name string) (*models.Role, error)
	Assign(userID, roleID uint) error
	RolesForUser(userID uint) ([]models.Role, error)
}

// AuditStore records security-relevant events.
// Implemented by repository.AuditRepository.
type AuditStore interface {
	Record(userID *uint, action string, details string) error
}

// AuthService orchestrates registration, login, token refresh, role
// assignment and logout.
type AuthService struct {
	users    UserStore
	roles    RoleStore
	registry *RefreshTokenRegistry
	signer   *token.Signer
	audit    AuditStore
}

func NewAuthService(
	users UserStore,
	roles RoleStore,
	registry *RefreshTokenRegistry,
	signer *token.Signer,
	audit AuditStore,
) *AuthService {
	return &AuthService{
		users:    users,
		roles:    roles,
		registry: registry,
		signer:   signer,
		audit:    audit,
	}
}

// Session is the result of a successful login, registration or refresh
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"-"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Register creates a new user account with the default role and opens a session
func (s *AuthService) Register(username, email, password string) (*Session, error) {
	if err := checkPasswordStrength(password); err != nil {
		return nil, err
	}

	// Pre-check for a friendlier error; the unique index is the backstop
	if existing, err := s.users.FindByUsername(username); err == nil && existing != nil {
		return nil, ErrDuplicateUsername
	}

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// New accounts start with the default role
	defaultRole, err := s.roles.FindByName(models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("find default role: %w", err)
	}
	if err := s.roles.Assign(user.ID, defaultRole.ID); err != nil {
		return nil, fmt.Errorf("assign default role: %w", err)
	}

	userIDPtr := &user.ID
	_ = s.audit.Record(userIDPtr, "user_registration", fmt.Sprintf("User %s registered", user.Username))

	return s.openSession(user)
}

// Login authenticates a user and opens a new session with a fresh chain root.
// Unknown usernames and wrong passwords produce the identical error.
func (s *AuthService) Login(username, password string) (*Session, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	userIDPtr := &user.ID
	_ = s.audit.Record(userIDPtr, "user_login", fmt.Sprintf("User %s logged in", user.Username))

	return s.openSession(user)
}

// Refresh rotates the presented refresh token and issues a new access token.
// Claims are rebuilt from the user's current role assignment, so role changes
// take effect here even though older access tokens are still live until expiry.
func (s *AuthService) Refresh(rawRefreshToken string) (*Session, error) {
	newRaw, record, err := s.registry.Rotate(rawRefreshToken)
	if err != nil {
		if errors.Is(err, ErrReplayDetected) {
			_ = s.audit.Record(nil, "refresh_replay_detected", "Refresh token reuse detected; chain revoked")
		}
		return nil, err
	}

	user, err := s.users.FindByID(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	roles, err := s.roles.RolesForUser(user.ID)
	if err != nil {
		return nil, err
	}
	roleNames := claimRoleNames(roles)

	accessToken, err := s.signer.Issue(user.ID, roleNames)
	if err != nil {
		return nil, err
	}

	userIDPtr := &user.ID
	_ = s.audit.Record(userIDPtr, "token_refresh", fmt.Sprintf("User %s refreshed session", user.Username))

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: newRaw,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Roles:    roleNames,
		},
	}, nil
}

// AssignRole grants roleName to the target user. The actor's validated claims
// must carry the admin role. Access tokens already issued to the target keep
// their old role claims until they expire or are refreshed.
func (s *AuthService) AssignRole(actor *token.Claims, targetUserID uint, roleName string) error {
	if actor == nil || !actor.HasRole(models.RoleAdmin) {
		return ErrForbidden
	}

	role, err := s.roles.FindByName(roleName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownRole
		}
		return fmt.Errorf("look up role: %w", err)
	}

	target, err := s.users.FindByID(targetUserID)
	if err != nil {
		return fmt.Errorf("look up target user: %w", err)
	}

	if err := s.roles.Assign(target.ID, role.ID); err != nil {
		return err
	}

	actorIDPtr := &actor.UserID
	_ = s.audit.Record(actorIDPtr, "role_assign", fmt.Sprintf("Assigned role %s to user ID %d", role.Name, target.ID))

	return nil
}

// Logout revokes the whole rotation chain containing the presented token.
// An unknown or missing token is not an error: the session is gone either way.
func (s *AuthService) Logout(rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}
	if err := s.registry.RevokeChain(rawRefreshToken); err != nil {
		if errors.Is(err, ErrRotationUnknown) {
			return nil
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	_ = s.audit.Record(nil, "user_logout", "Session chain revoked")
	return nil
}

// openSession builds claims from the user's current roles, issues an access
// token and roots a new refresh chain.
func (s *AuthService) openSession(user *models.User) (*Session, error) {
	roles, err := s.roles.RolesForUser(user.ID)
	if err != nil {
		return nil, err
	}
	roleNames := claimRoleNames(roles)

	accessToken, err := s.signer.Issue(user.ID, roleNames)
	if err != nil {
		return nil, err
	}

	rawRefresh, _, err := s.registry.IssueRoot(user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		User: UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Roles:    roleNames,
		},
	}, nil
}

// claimRoleNames produces a deterministic role claim list: duplicates
// collapsed, sorted by name.
func claimRoleNames(roles []models.Role) []string {
	seen := make(map[string]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, ok := seen[role.Name]; ok {
			continue
		}
		seen[role.Name] = struct{}{}
		names = append(names, role.Name)
	}
	sort.Strings(names)
	return names
}

// checkPasswordStrength enforces the registration password policy:
// at least 8 characters with at least one letter and one digit.
func checkPasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
