package forms

import (
	"strings"

	"upbilling/models"
)

// Roles accepted on signup.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type SignupForm struct {
	Name     string `json:"name" form:"name" validate:"required,max=255"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Role     string `json:"role" form:"role" validate:"required,oneof=admin staff"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
}

func (f *SignupForm) User() *models.AppUser {
	return &models.AppUser{
		Name:     strings.TrimSpace(f.Name),
		Email:    f.Email,
		Role:     f.Role,
		Password: f.Password,
	}
}

type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type ContactInput struct {
	Number string `json:"number" form:"number" validate:"required,max=64"`
	Label  string `json:"label" form:"label" validate:"max=64"`
}

// IssuerForm is the JSON body of the issuer settings endpoint.
type IssuerForm struct {
	CompanyName string         `json:"company_name" form:"company_name" validate:"required,max=255"`
	Address     string         `json:"address" form:"address" validate:"required,max=255"`
	City        string         `json:"city" form:"city" validate:"required,max=128"`
	PostalCode  string         `json:"postal_code" form:"postal_code" validate:"required,max=32"`
	VATNumber   string         `json:"vat_number" form:"vat_number" validate:"max=64"`
	Footnote    string         `json:"footnote" form:"footnote" validate:"max=1000"`
	Contacts    []ContactInput `json:"contacts" form:"contacts" validate:"dive"`
}

func (f *IssuerForm) Issuer() *models.Issuer {
	out := &models.Issuer{
		CompanyName: strings.TrimSpace(f.CompanyName),
		Address:     strings.TrimSpace(f.Address),
		City:        strings.TrimSpace(f.City),
		PostalCode:  strings.TrimSpace(f.PostalCode),
		VATNumber:   strings.TrimSpace(f.VATNumber),
		Footnote:    f.Footnote,
	}
	for _, c := range f.Contacts {
		out.Contacts = append(out.Contacts, models.ContactEntry{Number: c.Number, Label: c.Label})
	}
	return out
}
