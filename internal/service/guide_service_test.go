package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
)

func newGuideFixture(t *testing.T) GuideService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Guide{}, &models.GuideStep{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewGuideService(repository.NewGuideRepository(db), validate, testLogger())
}

func TestGuideCreateSanitizesStepContent(t *testing.T) {
	svc := newGuideFixture(t)
	author := Actor{ID: 1, Role: models.RoleUser}

	guide, err := svc.Create(context.Background(), author, dto.GuideCreateRequest{
		Title: "如何使用微信视频通话",
		Steps: []dto.GuideStepCreateRequest{
			{
				Order:   1,
				Title:   "打开微信",
				Content: `<p>点击<b>视频通话</b></p><script>alert("x")</script>`,
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, guide.Steps, 1)
	require.NotContains(t, guide.Steps[0].Content, "<script>")
	require.Contains(t, guide.Steps[0].Content, "<b>视频通话</b>")
}

func TestGuidePublishToggle(t *testing.T) {
	svc := newGuideFixture(t)
	author := Actor{ID: 1, Role: models.RoleUser}

	guide, err := svc.Create(context.Background(), author, dto.GuideCreateRequest{Title: "如何网上挂号"})
	require.NoError(t, err)
	require.False(t, guide.IsPublished)

	published := true
	updated, err := svc.Update(context.Background(), author, guide.ID, dto.GuideUpdateRequest{IsPublished: &published})
	require.NoError(t, err)
	require.True(t, updated.IsPublished)
}

func TestGuideUpdateOnlyAuthorOrAdmin(t *testing.T) {
	svc := newGuideFixture(t)
	author := Actor{ID: 1, Role: models.RoleUser}

	guide, err := svc.Create(context.Background(), author, dto.GuideCreateRequest{Title: "老年机常见问题"})
	require.NoError(t, err)

	title := "改过的标题"
	_, err = svc.Update(context.Background(), Actor{ID: 2, Role: models.RoleUser}, guide.ID, dto.GuideUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrGuideAccessDenied)

	_, err = svc.Update(context.Background(), Actor{ID: 3, Role: models.RoleAdmin}, guide.ID, dto.GuideUpdateRequest{Title: &title})
	require.NoError(t, err)
}

func TestGuideStepLifecycle(t *testing.T) {
	svc := newGuideFixture(t)
	author := Actor{ID: 1, Role: models.RoleUser}

	guide, err := svc.Create(context.Background(), author, dto.GuideCreateRequest{Title: "手机支付入门"})
	require.NoError(t, err)

	step, err := svc.AddStep(context.Background(), author, guide.ID, dto.GuideStepCreateRequest{
		Order: 1,
		Title: "绑定银行卡",
	})
	require.NoError(t, err)

	title := "绑定银行卡(更新)"
	updated, err := svc.UpdateStep(context.Background(), author, guide.ID, step.ID, dto.GuideStepUpdateRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)

	require.NoError(t, svc.DeleteStep(context.Background(), author, guide.ID, step.ID))

	err = svc.DeleteStep(context.Background(), author, guide.ID, step.ID)
	require.ErrorIs(t, err, ErrGuideStepNotFound)
}
