package usecase

import (
	"context"
	"errors"
	"strings"

	"shop/internal/domain/model"
	"shop/internal/notify"
	repo "shop/internal/repository"

	"go.uber.org/zap"
)

// メール送信
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SubscriptionUsecase struct {
	mails   repo.MailCustomerRepository
	mailer  Mailer
	subject string
	log     *zap.Logger
}

func NewSubscriptionUsecase(mails repo.MailCustomerRepository, mailer Mailer, subject string, log *zap.Logger) *SubscriptionUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	if subject == "" {
		subject = "News from the shop"
	}
	return &SubscriptionUsecase{mails: mails, mailer: mailer, subject: subject, log: log}
}

// POST /subscriptions
// 既に登録済みのアドレスはエラーにせず警告だけ返す
func (u *SubscriptionUsecase) Subscribe(ctx context.Context, userID int64, mail string) (notify.Message, error) {
	if userID <= 0 {
		return notify.Message{}, ErrAuthenticationRequired("Log in to subscribe")
	}
	form := SubscriptionForm{Mail: strings.ToLower(strings.TrimSpace(mail))}
	if err := validateForm("subscription", form); err != nil {
		return notify.Message{}, err
	}

	uid := userID
	err := u.mails.Create(ctx, model.MailCustomer{Mail: form.Mail, UserID: &uid})
	if errors.Is(err, repo.ErrDuplicate) {
		return notify.Warning("This email is already subscribed"), nil
	}
	if err != nil {
		u.log.Error("subscribe failed", zap.Int64("user_id", userID), zap.Error(err))
		return notify.Message{}, ErrDB()
	}
	return notify.Success("Subscribed to the newsletter"), nil
}

// 1件ごとの送信結果
type BroadcastResult struct {
	Mail string `json:"mail"`
	Sent bool   `json:"sent"`
}

type BroadcastReport struct {
	Total   int               `json:"total"`
	Sent    int               `json:"sent"`
	Results []BroadcastResult `json:"results"`
}

// POST /admin/mail
// 1件失敗しても残りは送る
func (u *SubscriptionUsecase) Broadcast(ctx context.Context, text string) (BroadcastReport, error) {
	form := BroadcastForm{Text: strings.TrimSpace(text)}
	if err := validateForm("mail", form); err != nil {
		return BroadcastReport{}, err
	}

	list, err := u.mails.ListAll(ctx)
	if err != nil {
		u.log.Error("list subscribers failed", zap.Error(err))
		return BroadcastReport{}, ErrDB()
	}

	report := BroadcastReport{Total: len(list), Results: make([]BroadcastResult, 0, len(list))}
	for _, m := range list {
		if err := ctx.Err(); err != nil {
			return report, NewHTTPError(499, "request cancelled")
		}
		sendErr := u.mailer.Send(ctx, m.Mail, u.subject, form.Text)
		sent := sendErr == nil
		if sent {
			report.Sent++
		} else {
			u.log.Warn("mail send failed", zap.String("mail", m.Mail), zap.Error(sendErr))
		}
		u.log.Info("mail", zap.String("mail", m.Mail), zap.Bool("sent", sent))
		report.Results = append(report.Results, BroadcastResult{Mail: m.Mail, Sent: sent})
	}
	return report, nil
}
