package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/msomdec/postfeed/internal/domain"
)

// SignupInput is the payload for creating an account.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=5"`
}

// PostInput is the payload for creating or updating a post.
type PostInput struct {
	Title    string `json:"title" validate:"required,min=5"`
	Content  string `json:"content" validate:"required,min=5"`
	ImageURL string `json:"imageUrl" validate:"required"`
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

// fieldMessages holds the caller-facing message for each validated field.
var fieldMessages = map[string]string{
	"email":    "E-Mail is invalid.",
	"name":     "Name is required.",
	"password": "Password too short!",
	"title":    "Title is invalid.",
	"content":  "Content is invalid.",
	"imageUrl": "No image provided.",
	"status":   "Status is required.",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// check validates every field of input and reports all failures together as
// one domain.ErrInvalidInput carrying a message per failing field.
func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: msg})
	}
	return domain.Invalid(fields)
}

func (in *SignupInput) normalize() {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
