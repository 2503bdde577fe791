// Package tenant registers a new school together with its first administrator.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/identity"
	"github.com/trezcool/masomo-web/core/school"
	"github.com/trezcool/masomo-web/core/session"
)

const (
	registerSchoolPath = "/schools/register/"
	adminRole          = "admin"

	successMessage = "تم إنشاء حساب المدرسة بنجاح"
)

var (
	// ErrEmailRegistered is returned when the identity provider already knows the email.
	ErrEmailRegistered = errors.New("البريد الإلكتروني مسجل مسبقاً")

	// field priority of validation messages
	fieldPriority = []string{"password", "email", "school_name", "admin_first_name", "admin_last_name"}
)

type (
	Registration struct {
		SchoolName     string `json:"school_name" validate:"required,notblank"`
		AdminFirstName string `json:"admin_first_name" validate:"required,notblank"`
		AdminLastName  string `json:"admin_last_name" validate:"required,notblank"`
		Email          string `json:"email" validate:"required,email"`
		Password       string `json:"password" validate:"required,password"`
		Phone          string `json:"phone,omitempty"`
		City           string `json:"city,omitempty"`
	}

	// Result is the registration response body.
	// SchoolID is null when the backend could not provision the school.
	Result struct {
		Status   string          `json:"status"`
		UserID   string          `json:"user_id"`
		SchoolID json.RawMessage `json:"school_id"`
		Message  string          `json:"message"`
	}

	welcomeData struct {
		FirstName  string
		SchoolName string
		Email      string
	}

	Service struct {
		backend    *backend.Client
		identity   identity.Provider
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}
)

func NewService(
	client *backend.Client,
	idp identity.Provider,
	mailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Service {
	return &Service{
		backend:    client,
		identity:   idp,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}
}

func (reg *Registration) clean() {
	reg.SchoolName = core.CleanString(reg.SchoolName)
	reg.AdminFirstName = core.CleanString(reg.AdminFirstName)
	reg.AdminLastName = core.CleanString(reg.AdminLastName)
	reg.Email = core.CleanString(reg.Email, true /* lower */)
	reg.Phone = core.CleanString(reg.Phone)
	reg.City = core.CleanString(reg.City)
}

// Validate rejects the registration locally. It returns a *core.ValidationError carrying one translated message.
func (svc *Service) Validate(reg *Registration) error {
	reg.clean()
	err := svc.validate.Struct(reg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	return core.NewValidationError(nil, core.TranslateFirst(verrs, svc.translator, fieldPriority...))
}

// Register runs the registration steps in order: provision the school, create the admin identity,
// then send the welcome email in the background.
func (svc *Service) Register(ctx context.Context, reg Registration) (Result, error) {
	if err := svc.Validate(&reg); err != nil {
		return Result{}, err
	}

	schoolID := svc.provisionSchool(ctx, reg)

	usr, err := svc.identity.CreateUser(ctx, identity.NewUser{
		Email:    reg.Email,
		Password: reg.Password,
		Metadata: identity.Metadata{
			FirstName: reg.AdminFirstName,
			LastName:  reg.AdminLastName,
			Phone:     reg.Phone,
			Role:      adminRole,
			SchoolID:  schoolID,
		},
	})
	if err != nil {
		if identity.IsAlreadyRegistered(err) {
			return Result{}, ErrEmailRegistered
		}
		svc.logger.Warn(fmt.Sprintf("tenant.Register: identity provider refused %s: %v", reg.Email, err))
		return Result{}, core.NewValidationError(err)
	}

	svc.sendWelcomeMail(reg)

	return Result{
		Status:   "success",
		UserID:   usr.ID,
		SchoolID: schoolID,
		Message:  successMessage,
	}, nil
}

// provisionSchool returns the JSON id of the new school, or null when the backend call fails.
func (svc *Service) provisionSchool(ctx context.Context, reg Registration) json.RawMessage {
	null := json.RawMessage("null")

	sch, err := backend.FetchInto[school.School](ctx, svc.backend, session.Session{}, registerSchoolPath, backend.Options{
		Method: http.MethodPost,
		Body: map[string]string{
			"name":             reg.SchoolName,
			"admin_email":      reg.Email,
			"admin_first_name": reg.AdminFirstName,
			"admin_last_name":  reg.AdminLastName,
			"phone":            reg.Phone,
			"city":             reg.City,
		},
	})
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("tenant.provisionSchool: continuing without a school id: %v", err))
		return null
	}
	if sch.ID == "" {
		return null
	}
	id, err := json.Marshal(sch.ID)
	if err != nil {
		return null
	}
	return id
}

func (svc *Service) sendWelcomeMail(reg Registration) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.AdminFirstName + " " + reg.AdminLastName, Address: reg.Email}},
		Subject:      "مرحباً بك في مساحة مدرستك",
		TemplateName: "welcome",
		TemplateData: welcomeData{
			FirstName:  reg.AdminFirstName,
			SchoolName: reg.SchoolName,
			Email:      reg.Email,
		},
	})
}
