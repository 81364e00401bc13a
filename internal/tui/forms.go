package tui

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/charmbracelet/huh"
)

// Confirm shows a yes/no confirmation prompt.
func Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&result).
		Run()
	if err != nil {
		return defaultValue, err
	}
	return result, nil
}

// InputRequired shows a required text input prompt.
func InputRequired(title, placeholder string) (string, error) {
	var result string
	err := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&result).
		Validate(required).
		Run()
	return strings.TrimSpace(result), err
}

// SelectOption represents an option in a select prompt.
type SelectOption struct {
	Value string
	Label string
}

// Select shows a single-select prompt.
func Select(title string, options []SelectOption) (string, error) {
	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt.Label, opt.Value)
	}

	var result string
	err := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions...).
		Value(&result).
		Run()
	return result, err
}

// Credentials is what the sign-in and registration forms collect.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// LoginForm prompts for email and password. A non-empty email skips that
// field's prompt.
func LoginForm(email string) (Credentials, error) {
	creds := Credentials{Email: email}
	var fields []huh.Field
	if email == "" {
		fields = append(fields, emailInput(&creds.Email))
	}
	fields = append(fields, passwordInput(&creds.Password))

	err := huh.NewForm(huh.NewGroup(fields...).Title("Sign in to Mzansi Plates")).Run()
	return creds, err
}

// RegisterForm prompts for the fields needed to create an account.
func RegisterForm() (Credentials, error) {
	var creds Credentials
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&creds.Name).Validate(required),
			emailInput(&creds.Email),
			passwordInput(&creds.Password),
		).Title("Create an account"),
	).Run()
	return creds, err
}

func emailInput(v *string) *huh.Input {
	return huh.NewInput().
		Title("Email").
		Placeholder("you@example.co.za").
		Value(v).
		Validate(ValidateEmail)
}

func passwordInput(v *string) *huh.Input {
	return huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(v).
		Validate(required)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("this field is required")
	}
	return nil
}

// ValidateEmail rejects values that are not a bare email address.
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("this field is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("enter a valid email address")
	}
	return nil
}
