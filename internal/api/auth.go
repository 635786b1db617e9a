package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/communisafe/communisafe/internal/model"
)

// userPayload mirrors the backend's user document.
type userPayload struct {
	ID            string   `json:"_id"`
	AltID         string   `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"fullName"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	Status        string   `json:"status"`
	ContactNumber string   `json:"contactNumber"`
	Address       string   `json:"address"`
	CreatedAt     wireTime `json:"createdAt"`
}

func (p userPayload) toModel() model.User {
	return model.User{
		ID:            firstNonEmpty(p.ID, p.AltID),
		Name:          firstNonEmpty(p.Name, p.FullName),
		Username:      p.Username,
		Email:         p.Email,
		Role:          model.Role(p.Role),
		Status:        p.Status,
		ContactNumber: p.ContactNumber,
		Address:       p.Address,
		CreatedAt:     p.CreatedAt.Time,
	}
}

// LoginResult is the outcome of a successful login: the bearer token plus
// the authenticated user's profile.
type LoginResult struct {
	Token string
	User  model.User
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp struct {
		Token string          `json:"token"`
		User  json.RawMessage `json:"user"`
	}
	if err := c.Post(ctx, "/api/auth/login", payload, &resp); err != nil {
		return LoginResult{}, fmt.Errorf("logging in: %w", err)
	}
	if resp.Token == "" {
		return LoginResult{}, fmt.Errorf("logging in: backend returned no token")
	}

	var user userPayload
	if len(resp.User) > 0 {
		if err := json.Unmarshal(resp.User, &user); err != nil {
			return LoginResult{}, fmt.Errorf("decoding login user: %w", err)
		}
	}
	return LoginResult{Token: resp.Token, User: user.toModel()}, nil
}

// SignupDraft carries the registration form. Officials and security staff
// additionally supply an employee id and a verification document; their
// accounts start in the pending state.
type SignupDraft struct {
	Name             string
	Username         string
	Email            string
	Password         string
	Role             model.Role
	ContactNumber    string // full number including the +63 prefix
	Address          string
	VerificationCode string
	EmployeeID       string
	Document         *FormFile
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, draft SignupDraft) error {
	fields := map[string]string{
		"name":             draft.Name,
		"username":         draft.Username,
		"email":            draft.Email,
		"password":         draft.Password,
		"role":             string(draft.Role),
		"contactNumber":    draft.ContactNumber,
		"address":          draft.Address,
		"verificationCode": draft.VerificationCode,
		"employeeID":       draft.EmployeeID,
	}

	var files []FormFile
	if draft.Document != nil {
		doc := *draft.Document
		doc.Field = "file"
		files = append(files, doc)
	}

	if _, err := c.PostForm(ctx, "/api/auth/signup", fields, files); err != nil {
		return fmt.Errorf("signing up: %w", err)
	}
	return nil
}

// SendVerificationCode asks the backend to email a signup verification code.
func (c *Client) SendVerificationCode(ctx context.Context, email string) error {
	payload := map[string]string{"email": email}
	if err := c.Post(ctx, "/api/auth/send-verification-code", payload, nil); err != nil {
		return fmt.Errorf("sending verification code: %w", err)
	}
	return nil
}

// GetUser fetches one account by id. Used at startup to verify the stored
// session still belongs to an active account.
func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	body, err := c.GetRaw(ctx, "/api/auth/user/"+id)
	if err != nil {
		return model.User{}, fmt.Errorf("fetching user %s: %w", id, err)
	}

	var p userPayload
	if err := json.Unmarshal(unwrap(body, "user", "data"), &p); err != nil {
		return model.User{}, fmt.Errorf("decoding user %s: %w", id, err)
	}
	return p.toModel(), nil
}

// ListPendingUsers fetches accounts awaiting super-admin approval.
func (c *Client) ListPendingUsers(ctx context.Context) ([]model.User, error) {
	body, err := c.GetRaw(ctx, "/api/auth/pending-users")
	if err != nil {
		return nil, fmt.Errorf("fetching pending users: %w", err)
	}

	raws, err := decodeList(body, "users", "data")
	if err != nil {
		return nil, fmt.Errorf("fetching pending users: %w", err)
	}

	users := make([]model.User, 0, len(raws))
	for _, raw := range raws {
		var p userPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding pending user: %w", err)
		}
		users = append(users, p.toModel())
	}
	return users, nil
}

// SetUserStatus activates or rejects an account (super-admin only).
func (c *Client) SetUserStatus(
	ctx context.Context,
	id string,
	status string,
	role model.Role,
) error {
	path := "/api/auth/user-status/" + id
	payload := map[string]string{"status": status, "role": string(role)}
	if err := c.Put(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("updating user %s status: %w", id, err)
	}
	return nil
}
