package users

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
	"github.com/Ponloe/cinemesh-catalog/internal/notify"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type CreateUserInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type Service struct {
	repo     Repository
	notifier notify.Notifier
	log      *logrus.Logger
}

func NewService(repo Repository, notifier notify.Notifier, log *logrus.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// Register creates an account and sends a best-effort welcome email.
func (s *Service) Register(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Name: in.Name, Email: in.Email, PasswordHash: hashed}
	if err := s.repo.Create(ctx, u); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}

	msg := notify.Message{
		To:      u.Email,
		Subject: "Welcome to Cinemesh",
		HTML:    fmt.Sprintf("<p>Hi %s, your account is ready.</p>", html.EscapeString(u.Name)),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": u.ID, "error": err}).Warn("welcome email failed")
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// VerifyCredentials returns the user owning email when password matches.
// Any mismatch, including an unknown email, yields ErrInvalidCredentials.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

