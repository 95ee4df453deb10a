package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
)

var (
	// ErrInvalidVerificationCode indicates a missing, expired or mismatched code.
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	// ErrCodeRequestTooFrequent indicates the per-phone cooldown has not elapsed.
	ErrCodeRequestTooFrequent = errors.New("verification code requested too frequently")
	// ErrPhoneAlreadyRegistered indicates an account already exists for the phone.
	ErrPhoneAlreadyRegistered = errors.New("phone number already registered")
	// ErrUserDisabled indicates the account has been deactivated.
	ErrUserDisabled = errors.New("user account is disabled")
)

const (
	codeKeyPrefix     = "sms:code:"
	cooldownKeyPrefix = "sms:lasttime:"
)

// CodeSender delivers a verification code to a phone number. Production wires
// an SMS gateway; development logs the code instead.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogCodeSender writes codes to the log. Not for production.
type LogCodeSender struct {
	Logger zerolog.Logger
}

func (s LogCodeSender) SendCode(_ context.Context, phone, code string) error {
	s.Logger.Info().Str("phone", phone).Str("code", code).Msg("verification code issued")
	return nil
}

// AuthService exposes phone-code authentication use cases.
type AuthService interface {
	SendCode(ctx context.Context, payload dto.SendCodeRequest) error
	VerifyCode(ctx context.Context, payload dto.VerifyCodeRequest) error
	Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error)
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenResponse, error)
}

type authService struct {
	users        repository.UserRepository
	redis        *redis.Client
	sender       CodeSender
	validator    *validator.Validate
	logger       zerolog.Logger
	jwtSecret    []byte
	tokenTTL     time.Duration
	codeTTL      time.Duration
	codeCooldown time.Duration
	now          func() time.Time
}

// NewAuthService builds the authentication service.
func NewAuthService(users repository.UserRepository, redisClient *redis.Client, sender CodeSender, validate *validator.Validate, jwtSecret string, tokenTTL, codeTTL, codeCooldown time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		users:        users,
		redis:        redisClient,
		sender:       sender,
		validator:    validate,
		logger:       logger.With().Str("component", "auth_service").Logger(),
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		codeTTL:      codeTTL,
		codeCooldown: codeCooldown,
		now:          time.Now,
	}
}

// SendCode issues a six digit code for the phone. A per-phone cooldown key
// guards against hammering the SMS gateway; the code itself expires on its
// own TTL.
func (s *authService) SendCode(ctx context.Context, payload dto.SendCodeRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	acquired, err := s.redis.SetNX(ctx, cooldownKeyPrefix+payload.Phone, s.now().Unix(), s.codeCooldown).Result()
	if err != nil {
		return fmt.Errorf("checking code cooldown: %w", err)
	}
	if !acquired {
		return ErrCodeRequestTooFrequent
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, codeKeyPrefix+payload.Phone, code, s.codeTTL).Err(); err != nil {
		return fmt.Errorf("storing verification code: %w", err)
	}

	if err := s.sender.SendCode(ctx, payload.Phone, code); err != nil {
		return fmt.Errorf("delivering verification code: %w", err)
	}

	s.logger.Info().Str("phone", maskPhone(payload.Phone)).Msg("verification code sent")

	return nil
}

func (s *authService) VerifyCode(ctx context.Context, payload dto.VerifyCodeRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	return s.checkCode(ctx, payload.Phone, payload.Code)
}

// Login signs in with phone + code, creating the account on first login.
func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	if err := s.consumeCode(ctx, payload.Phone, payload.Code); err != nil {
		return dto.TokenResponse{}, err
	}

	user, err := s.users.GetByPhone(ctx, payload.Phone)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, err
		}

		nickname := payload.Nickname
		if nickname == "" {
			nickname = defaultNickname(payload.Phone)
		}

		user = models.User{
			Phone:    payload.Phone,
			Nickname: nickname,
			Role:     models.RoleUser,
			IsActive: true,
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return dto.TokenResponse{}, err
		}

		s.logger.Info().Uint("user_id", user.ID).Msg("user auto-registered on login")
	}

	if !user.IsActive {
		return dto.TokenResponse{}, ErrUserDisabled
	}

	lastLogin := s.now()
	user.LastLogin = &lastLogin
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.TokenResponse{}, err
	}

	return s.issueToken(user)
}

// Register creates an account explicitly, failing when the phone is taken.
func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	if err := s.consumeCode(ctx, payload.Phone, payload.Code); err != nil {
		return dto.TokenResponse{}, err
	}

	if _, err := s.users.GetByPhone(ctx, payload.Phone); err == nil {
		return dto.TokenResponse{}, ErrPhoneAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TokenResponse{}, err
	}

	user := models.User{
		Phone:    payload.Phone,
		Nickname: payload.Nickname,
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.TokenResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")

	return s.issueToken(user)
}

func (s *authService) checkCode(ctx context.Context, phone, code string) error {
	stored, err := s.redis.Get(ctx, codeKeyPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidVerificationCode
		}
		return fmt.Errorf("loading verification code: %w", err)
	}

	if stored != code {
		return ErrInvalidVerificationCode
	}

	return nil
}

// consumeCode validates and then invalidates the code so it is single use.
func (s *authService) consumeCode(ctx context.Context, phone, code string) error {
	if err := s.checkCode(ctx, phone, code); err != nil {
		return err
	}

	if err := s.redis.Del(ctx, codeKeyPrefix+phone).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate used verification code")
	}

	return nil
}

func (s *authService) issueToken(user models.User) (dto.TokenResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return dto.TokenResponse{}, fmt.Errorf("signing token: %w", err)
	}

	return dto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		User:        dto.NewUserResponse(user),
	}, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

func defaultNickname(phone string) string {
	if len(phone) < 4 {
		return "用户" + phone
	}

	return "用户" + phone[len(phone)-4:]
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "***"
	}

	return phone[:3] + "****" + phone[7:]
}
