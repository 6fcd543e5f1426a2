package usecase

import (
	"errors"
	"fmt"
	"strings"

	"shop/internal/notify"

	"github.com/go-playground/validator/v10"
)

var formValidator = validator.New(validator.WithRequiredStructEnabled())

// 購入者フォーム
type CustomerForm struct {
	FirstName string `validate:"required,max=250"`
	LastName  string `validate:"required,max=250"`
}

// 配送先フォーム
type ShippingForm struct {
	Address string `validate:"required,max=300"`
	CityID  int64  `validate:"required,gt=0"`
	Region  string `validate:"required,max=250"`
	Phone   string `validate:"required,max=250"`
}

// 商品レビュー
type ReviewForm struct {
	Text string `validate:"required,max=2000"`
}

// メール購読
type SubscriptionForm struct {
	Mail string `validate:"required,email,max=254"`
}

// プロフィール
type ProfileForm struct {
	Photo       string `validate:"omitempty,max=255"`
	PhoneNumber string `validate:"omitempty,max=20"`
}

// 一括メール
type BroadcastForm struct {
	Text string `validate:"required,max=10000"`
}

// 管理者のカテゴリ作成
type CategoryForm struct {
	Title    string `validate:"required,max=150"`
	Slug     string `validate:"required,max=150"`
	Image    string `validate:"omitempty,max=255"`
	ParentID *int64 `validate:"omitempty,gt=0"`
}

// 管理者の商品作成/更新
type ProductForm struct {
	Title       string   `validate:"required,max=150"`
	Slug        string   `validate:"required,max=150"`
	Description string   `validate:"omitempty,max=10000"`
	Price       string   `validate:"required,numeric"`
	Quantity    int64    `validate:"gte=0"`
	CategoryID  int64    `validate:"required,gt=0"`
	Size        int      `validate:"gte=0"`
	Color       string   `validate:"omitempty,max=50"`
	Images      []string `validate:"omitempty,dive,max=255"`
}

// フォームを検証し、項目ごとのエラー文を返す。問題が無ければnil。
func formErrors(name string, form interface{}) []notify.Message {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []notify.Message{notify.Error(fmt.Sprintf("%s: invalid", name))}
	}

	msgs := make([]notify.Message, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, notify.Error(fmt.Sprintf("%s: %s", name, describeFieldError(fe))))
	}
	return msgs
}

func describeFieldError(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "numeric":
		return field + " must be a number"
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	}
	return field + " is invalid"
}

// FirstName -> first_name
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// 1つのフォームを検証して400にする
func validateForm(name string, form interface{}) error {
	if msgs := formErrors(name, form); msgs != nil {
		return ErrValidationFailed("validation failed", msgs...)
	}
	return nil
}
