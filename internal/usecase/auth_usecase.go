package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/notify"
	repo "shop/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// 登録/ログインの入力
type AuthForm struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

// 401 メールかパスワードが違う
func errInvalidCredentials() error {
	return NewHTTPError(http.StatusUnauthorized, "invalid credentials", notify.Error("Invalid email or password"))
}

type AuthUsecase struct {
	users     repo.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *AuthUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = 15 * time.Minute
	}
	return &AuthUsecase{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
		log:       log,
	}
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
	}
}

// POST /auth/register
func (u *AuthUsecase) Register(ctx context.Context, email, password string) (UserDTO, error) {
	form := AuthForm{Email: strings.ToLower(strings.TrimSpace(email)), Password: password}
	if err := validateForm("auth", form); err != nil {
		return UserDTO{}, err
	}

	//パスワードは必ずハッシュ化して保存
	pwHash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Error("hash password failed", zap.Error(err))
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Email:        form.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return UserDTO{}, ErrDuplicateEntry("This email is already registered")
		}
		u.log.Error("create user failed", zap.Error(err))
		return UserDTO{}, ErrDB()
	}

	u.log.Info("user registered", zap.Int64("user_id", user.ID))
	return toUserDTO(user), nil
}

// POST /auth/login
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (AuthLoginResponse, error) {
	form := AuthForm{Email: strings.ToLower(strings.TrimSpace(email)), Password: password}
	if err := validateForm("auth", form); err != nil {
		return AuthLoginResponse{}, err
	}

	user, err := u.users.FindByEmail(ctx, form.Email)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && user == nil) {
		return AuthLoginResponse{}, errInvalidCredentials()
	}
	if err != nil {
		u.log.Error("find user failed", zap.Error(err))
		return AuthLoginResponse{}, ErrDB()
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthLoginResponse{}, ErrForbidden()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		return AuthLoginResponse{}, errInvalidCredentials()
	}

	token, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		u.log.Error("sign token failed", zap.Error(err))
		return AuthLoginResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  token,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

// POST /auth/logout
// token_versionを上げて発行済みのトークンを全部無効にする
func (u *AuthUsecase) Logout(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		u.log.Error("logout failed", zap.Int64("user_id", userID), zap.Error(err))
		return ErrDB()
	}
	return nil
}

func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.now()
	exp := now.Add(u.tokenTTL)

	claims := jwt.MapClaims{
		"jti":  uuid.NewString(),
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(u.tokenTTL.Seconds()), nil
}
