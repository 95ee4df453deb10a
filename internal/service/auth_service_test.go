package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
)

type memoryUserRepo struct {
	users []models.User
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) GetByPhone(_ context.Context, phone string) (models.User, error) {
	for _, user := range m.users {
		if user.Phone == phone {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = uint(len(m.users) + 1)
	user.CreatedAt = time.Now()
	m.users = append(m.users, *user)
	return nil
}

func (m *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	for i, existing := range m.users {
		if existing.ID == user.ID {
			m.users[i] = *user
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) List(_ context.Context, _, _ int) ([]models.User, int64, error) {
	return append([]models.User(nil), m.users...), int64(len(m.users)), nil
}

type captureSender struct {
	phone string
	code  string
}

func (s *captureSender) SendCode(_ context.Context, phone, code string) error {
	s.phone = phone
	s.code = code
	return nil
}

func newAuthFixture(t *testing.T) (*memoryUserRepo, *captureSender, *miniredis.Miniredis, AuthService) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &memoryUserRepo{}
	sender := &captureSender{}
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewAuthService(repo, client, sender, validate, "test-secret", time.Hour, 5*time.Minute, time.Minute, testLogger())
	return repo, sender, server, svc
}

func TestSendCodeStoresAndDelivers(t *testing.T) {
	_, sender, server, svc := newAuthFixture(t)

	err := svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138000"})
	require.NoError(t, err)
	require.Equal(t, "13800138000", sender.phone)
	require.Len(t, sender.code, 6)

	stored, err := server.Get("sms:code:13800138000")
	require.NoError(t, err)
	require.Equal(t, sender.code, stored)
}

func TestSendCodeCooldown(t *testing.T) {
	_, _, server, svc := newAuthFixture(t)

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138001"}))

	err := svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138001"})
	require.ErrorIs(t, err, ErrCodeRequestTooFrequent)

	// After the cooldown elapses a new code may be issued.
	server.FastForward(2 * time.Minute)
	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138001"}))
}

func TestLoginAutoRegisters(t *testing.T) {
	repo, sender, _, svc := newAuthFixture(t)

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138002"}))

	token, err := svc.Login(context.Background(), dto.LoginRequest{Phone: "13800138002", Code: sender.code})
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, "用户8002", token.User.Nickname)
	require.Equal(t, models.RoleUser, token.User.Role)
	require.Len(t, repo.users, 1)
	require.NotNil(t, repo.users[0].LastLogin)

	parsed, err := jwt.Parse(token.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "1", claims["sub"])
	require.Equal(t, models.RoleUser, claims["role"])
}

func TestLoginRejectsWrongCode(t *testing.T) {
	_, _, _, svc := newAuthFixture(t)

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138003"}))

	_, err := svc.Login(context.Background(), dto.LoginRequest{Phone: "13800138003", Code: "000000"})
	require.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestLoginCodeIsSingleUse(t *testing.T) {
	_, sender, _, svc := newAuthFixture(t)

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138004"}))
	code := sender.code

	_, err := svc.Login(context.Background(), dto.LoginRequest{Phone: "13800138004", Code: code})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Phone: "13800138004", Code: code})
	require.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestLoginExpiredCode(t *testing.T) {
	_, sender, server, svc := newAuthFixture(t)

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138005"}))
	server.FastForward(10 * time.Minute)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Phone: "13800138005", Code: sender.code})
	require.ErrorIs(t, err, ErrInvalidVerificationCode)
}

func TestRegisterRejectsTakenPhone(t *testing.T) {
	repo, sender, _, svc := newAuthFixture(t)

	require.NoError(t, repo.Create(context.Background(), &models.User{Phone: "13800138006", Nickname: "已注册", Role: models.RoleUser, IsActive: true}))

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138006"}))

	_, err := svc.Register(context.Background(), dto.RegisterRequest{Phone: "13800138006", Code: sender.code, Nickname: "新昵称"})
	require.ErrorIs(t, err, ErrPhoneAlreadyRegistered)
}

func TestLoginDisabledUser(t *testing.T) {
	repo, sender, _, svc := newAuthFixture(t)

	require.NoError(t, repo.Create(context.Background(), &models.User{Phone: "13800138007", Nickname: "停用", Role: models.RoleUser, IsActive: false}))

	require.NoError(t, svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "13800138007"}))

	_, err := svc.Login(context.Background(), dto.LoginRequest{Phone: "13800138007", Code: sender.code})
	require.ErrorIs(t, err, ErrUserDisabled)
}

func TestSendCodeValidatesPhone(t *testing.T) {
	_, _, _, svc := newAuthFixture(t)

	err := svc.SendCode(context.Background(), dto.SendCodeRequest{Phone: "12345"})
	require.Error(t, err)
}
