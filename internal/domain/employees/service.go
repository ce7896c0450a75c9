package employees

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"ems/internal/domain/auth"
	"ems/internal/domain/validation"
)

const minPasswordLength = 6

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", validation.New("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validation.New("email", "email is invalid")
	}
	return email, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validation.New("name", "name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(in.Password)) < minPasswordLength {
		return nil, validation.New("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = auth.RoleEmployee
	}
	if !auth.ValidRole(role) {
		return nil, validation.New("role", "role must be employee or admin")
	}

	owner, err := s.Store.EmailOwner(ctx, email)
	if err != nil {
		return nil, err
	}
	if owner != "" {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(strings.TrimSpace(in.Password))
	if err != nil {
		return nil, err
	}

	emp, err := s.Store.Insert(ctx, Employee{
		Name:       name,
		Email:      email,
		Role:       role,
		Department: strings.TrimSpace(in.Department),
		Position:   strings.TrimSpace(in.Position),
		Phone:      strings.TrimSpace(in.Phone),
		Image:      in.Image,
	}, hash)
	if err != nil {
		return nil, err
	}
	slog.Info("employee created", "employeeId", emp.ID, "role", emp.Role)
	return emp, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validation.New("name", "name is required")
	}

	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *current
	next.Name = name

	if in.Email != nil && !strings.EqualFold(strings.TrimSpace(*in.Email), current.Email) {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		owner, err := s.Store.EmailOwner(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner != "" && owner != id {
			return nil, ErrEmailTaken
		}
		next.Email = email
	}
	if in.Role != nil {
		if !auth.ValidRole(*in.Role) {
			return nil, validation.New("role", "role must be employee or admin")
		}
		next.Role = *in.Role
	}
	if in.Status != nil {
		if *in.Status != StatusActive && *in.Status != StatusInactive {
			return nil, validation.New("status", "status must be active or inactive")
		}
		next.Status = *in.Status
	}
	if in.Department != nil {
		next.Department = strings.TrimSpace(*in.Department)
	}
	if in.Position != nil {
		next.Position = strings.TrimSpace(*in.Position)
	}
	if in.Phone != nil {
		next.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Image != nil {
		next.Image = *in.Image
	}

	var hash *string
	if in.Password != nil && strings.TrimSpace(*in.Password) != "" {
		password := strings.TrimSpace(*in.Password)
		if len(password) < minPasswordLength {
			return nil, validation.New("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		h, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	return s.Store.Update(ctx, next, hash)
}

// Delete deactivates the employee, or removes the row and its history when
// hard is set. The deleted employee is returned for the response message.
func (s *Service) Delete(ctx context.Context, id string, hard bool) (*Employee, error) {
	emp, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if hard {
		err = s.Store.Delete(ctx, id)
	} else {
		err = s.Store.SetStatus(ctx, id, StatusInactive)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("employee deleted", "employeeId", id, "hard", hard)
	return emp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	return s.Store.List(ctx, filter)
}

func (s *Service) ListActive(ctx context.Context) ([]Employee, error) {
	return s.Store.ListActive(ctx)
}

func (s *Service) DepartmentSize(ctx context.Context, department string) (int, error) {
	return s.Store.DepartmentSize(ctx, department)
}

// SetImage stores a base64 image, with or without a data URL prefix, as a
// data URL on the employee.
func (s *Service) SetImage(ctx context.Context, id, data string) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", validation.New("image_data", "image data is required")
	}
	mediaType := "image/jpeg"
	if prefix, payload, ok := strings.Cut(data, ","); ok {
		data = payload
		if mt, found := strings.CutPrefix(prefix, "data:"); found {
			mt, _, _ = strings.Cut(mt, ";")
			if strings.HasPrefix(mt, "image/") {
				mediaType = mt
			}
		}
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return "", validation.New("image_data", "image data must be base64 encoded")
	}
	url := "data:" + mediaType + ";base64," + data
	if err := s.Store.SetImage(ctx, id, url); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) Profile(ctx context.Context, id string) (Profile, error) {
	emp, err := s.Store.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return BuildProfile(*emp), nil
}
