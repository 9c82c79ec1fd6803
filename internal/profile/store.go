package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"Storefront/internal/kvstore"
)

const (
	KeyEmail    = "email"
	KeyAddress  = "address"
	KeyUsername = "username"

	GuestName = "Guest"
)

var ErrValidation = errors.New("validation failed")

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s required", ErrValidation, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type Profile struct {
	Email   string `json:"email" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type Notifier interface {
	Notify(msg string, ttl time.Duration)
}

type Store struct {
	KV        kvstore.Store
	Log       *zap.Logger
	Notices   Notifier
	NoticeTTL time.Duration
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Save validates and persists the delivery profile. Nothing is written unless both
// fields are present after trimming.
func (s *Store) Save(ctx context.Context, email, address string) error {
	p := Profile{
		Email:   strings.TrimSpace(email),
		Address: strings.TrimSpace(address),
	}
	if err := validate.Struct(p); err != nil {
		var fe validator.ValidationErrors
		if !errors.As(err, &fe) {
			return err
		}
		ve := &ValidationError{}
		for _, f := range fe {
			ve.Missing = append(ve.Missing, strings.ToLower(f.Field()))
		}
		return ve
	}

	s.write(ctx, KeyEmail, p.Email)
	s.write(ctx, KeyAddress, p.Address)

	if s.Notices != nil {
		s.Notices.Notify("Details saved", s.NoticeTTL)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) Profile {
	return Profile{
		Email:   s.read(ctx, KeyEmail),
		Address: s.read(ctx, KeyAddress),
	}
}

// Complete reports whether a delivery profile was previously saved.
func (s *Store) Complete(ctx context.Context) bool {
	p := s.Load(ctx)
	return p.Email != "" && p.Address != ""
}

func (s *Store) Username(ctx context.Context) string {
	if u := s.read(ctx, KeyUsername); u != "" {
		return u
	}
	return GuestName
}

// Logout wipes every durable entry, cart included. It cannot be undone.
func (s *Store) Logout(ctx context.Context) {
	if err := s.KV.Clear(ctx); err != nil {
		s.log().Error("clear storage failed",
			zap.String("kind", "storage_write_failure"),
			zap.Error(err),
		)
		return
	}
	s.log().Info("storage cleared on logout")
}

func (s *Store) read(ctx context.Context, key string) string {
	v, err := s.KV.Get(ctx, key)
	if err == nil {
		return v
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		s.log().Warn("read setting failed",
			zap.String("kind", "storage_read_failure"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return ""
}

func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.KV.Set(ctx, key, value); err != nil {
		s.log().Error("write setting failed",
			zap.String("kind", "storage_write_failure"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (s *Store) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
