package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var mailboxPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Простая форма local@domain.tld без проверки по RFC
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return mailboxPattern.MatchString(fl.Field().String())
	})

	// Пределы берутся из domain.Max*, в тегах только имена алиасов
	v.RegisterAlias("email_address", fmt.Sprintf("required,max=%d,mailbox", domain.MaxEmailLength))
	v.RegisterAlias("post_title", fmt.Sprintf("required,max=%d", domain.MaxTitleLength))
	v.RegisterAlias("post_body", fmt.Sprintf("required,max=%d", domain.MaxBodyLength))
	v.RegisterAlias("comment_content", fmt.Sprintf("required,max=%d", domain.MaxCommentLength))
	return v
}

type registerInput struct {
	Email    string `validate:"email_address"`
	Password string `validate:"required"`
}

// Пустая строка недопустима, строка из пробелов допустима.
type postInput struct {
	Title string `validate:"post_title"`
	Body  string `validate:"post_body"`
}

type commentInput struct {
	Content string `validate:"comment_content"`
}

// check валидирует вход и переводит ошибку валидатора в domain.ErrValidation.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Validationf("invalid input: %v", err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	// Для алиасов Tag() - имя алиаса, сработавшее правило в ActualTag()
	switch fe.ActualTag() {
	case "required":
		return domain.Validationf("%s is required", field)
	case "max":
		return domain.Validationf("%s must be at most %s characters", field, fe.Param())
	case "mailbox":
		return domain.Validationf("%s has an invalid format", field)
	default:
		return domain.Validationf("%s is invalid", field)
	}
}
