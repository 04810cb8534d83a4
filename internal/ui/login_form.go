package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/mcao2/truthlens/internal/api"
)

// LoginForm collects credentials using Huh
type LoginForm struct {
	form   *huh.Form
	result *api.Credentials
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(s, "@") {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validatePassword(s string) error {
	if s == "" {
		return errors.New("password is required")
	}
	return nil
}

// NewLoginForm creates a login form, prefilled with email if known
func NewLoginForm(email string) *LoginForm {
	result := &api.Credentials{Email: email}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Validate(validateEmail).
				Value(&result.Email),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(validatePassword).
				Value(&result.Password),
		),
	).WithShowHelp(false)

	return &LoginForm{
		form:   form,
		result: result,
	}
}

// Run executes the form standalone and returns the credentials
func (lf *LoginForm) Run() (*api.Credentials, error) {
	if err := lf.form.Run(); err != nil {
		return nil, err
	}
	return lf.Credentials(), nil
}

// GetForm returns the underlying Huh form for Bubble Tea integration
func (lf *LoginForm) GetForm() *huh.Form {
	return lf.form
}

// SetForm stores the form returned by an Update call
func (lf *LoginForm) SetForm(f *huh.Form) {
	lf.form = f
}

// Completed reports whether the user submitted the form
func (lf *LoginForm) Completed() bool {
	return lf.form.State == huh.StateCompleted
}

// Credentials returns the entered values with the email trimmed
func (lf *LoginForm) Credentials() *api.Credentials {
	return &api.Credentials{
		Email:    strings.TrimSpace(lf.result.Email),
		Password: lf.result.Password,
	}
}
