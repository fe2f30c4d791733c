package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	"tourbook/infras/jwt"
	jwtMocks "tourbook/infras/jwt/mocks"
	"tourbook/infras/otel/mocks"
	"tourbook/internal/domains/auth/model/dto"
	"tourbook/internal/domains/auth/service"
	userMocks "tourbook/internal/domains/user/mocks"
	userModel "tourbook/internal/domains/user/model"
	"tourbook/shared/constant"
	"tourbook/shared/failure"
	"tourbook/shared/password"
)

func newAuthService(t *testing.T) (service.Auth, *userMocks.MockUser, *jwtMocks.MockJWT) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockUserRepo := userMocks.NewMockUser(ctrl)
	mockJWT := jwtMocks.NewMockJWT(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	return service.New(mockUserRepo, cfg, mockOtel, mockJWT), mockUserRepo, mockJWT
}

func validUser(t *testing.T) userModel.User {
	t.Helper()

	hashed, err := password.Hash("password123")
	assert.NoError(t, err)

	name := "Test User"

	return userModel.User{
		ID:       "user-1",
		Email:    "test@example.com",
		Password: hashed,
		Role:     constant.RoleUser,
		FullName: &name,
		Active:   true,
	}
}

func TestAuthService_Register(t *testing.T) {
	req := dto.RegisterRequest{
		Email:    "new@example.com",
		Password: "password123",
	}

	t.Run("successful registration", func(t *testing.T) {
		svc, mockUserRepo, _ := newAuthService(t)

		mockUserRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		mockUserRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user userModel.User) error {
				assert.Equal(t, "new@example.com", user.Email)
				assert.Equal(t, constant.RoleUser, user.Role)
				assert.NotEqual(t, "password123", user.Password)
				assert.NoError(t, password.Verify("password123", user.Password))
				return nil
			})

		assert.NoError(t, svc.Register(context.Background(), req))
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, mockUserRepo, _ := newAuthService(t)

		mockUserRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := svc.Register(context.Background(), req)

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.LoginRequest
		setupMock func(repo *userMocks.MockUser, jwtMock *jwtMocks.MockJWT, user userModel.User)
		wantErr   bool
	}{
		{
			name: "successful login",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password123"},
			setupMock: func(repo *userMocks.MockUser, jwtMock *jwtMocks.MockJWT, user userModel.User) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
				jwtMock.EXPECT().
					GenerateTokenPair(user.ID, user.Email, user.Role).
					Return(&jwt.TokenPair{
						AccessToken:  "access-token",
						RefreshToken: "refresh-token",
						ExpiresIn:    900,
					}, nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "user not found",
			req:  dto.LoginRequest{Email: "nope@example.com", Password: "password123"},
			setupMock: func(repo *userMocks.MockUser, jwtMock *jwtMocks.MockJWT, user userModel.User) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, errors.New("user not found"))
			},
			wantErr: true,
		},
		{
			name: "wrong password",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "wrongpassword"},
			setupMock: func(repo *userMocks.MockUser, jwtMock *jwtMocks.MockJWT, user userModel.User) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
			},
			wantErr: true,
		},
		{
			name: "inactive user",
			req:  dto.LoginRequest{Email: "test@example.com", Password: "password123"},
			setupMock: func(repo *userMocks.MockUser, jwtMock *jwtMocks.MockJWT, user userModel.User) {
				user.Active = false
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockUserRepo, mockJWT := newAuthService(t)
			tt.setupMock(mockUserRepo, mockJWT, validUser(t))

			res, err := svc.Login(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 400, failure.GetCode(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "access-token", res.AccessToken)
				assert.Equal(t, "refresh-token", res.RefreshToken)
			}
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	t.Run("valid refresh token", func(t *testing.T) {
		svc, _, mockJWT := newAuthService(t)

		mockJWT.EXPECT().
			RefreshTokens("refresh-token").
			Return(&jwt.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil)

		res, err := svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "refresh-token"})

		assert.NoError(t, err)
		assert.Equal(t, "new-access", res.AccessToken)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		svc, _, mockJWT := newAuthService(t)

		mockJWT.EXPECT().RefreshTokens("bad-token").Return(nil, jwt.ErrInvalidToken)

		_, err := svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{RefreshToken: "bad-token"})

		assert.Error(t, err)
		assert.Equal(t, 401, failure.GetCode(err))
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	req := dto.ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "newpassword123",
	}

	t.Run("successful change", func(t *testing.T) {
		svc, mockUserRepo, _ := newAuthService(t)

		mockUserRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(validUser(t), nil)
		mockUserRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				hashed, _ := fields[userModel.FieldPassword].(string)
				assert.NoError(t, password.Verify("newpassword123", hashed))
				return nil
			})

		assert.NoError(t, svc.ChangePassword(context.Background(), req, "user-1"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, mockUserRepo, _ := newAuthService(t)

		mockUserRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(validUser(t), nil)

		err := svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "newpassword123",
		}, "user-1")

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, mockUserRepo, _ := newAuthService(t)

		mockUserRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)

		err := svc.ChangePassword(context.Background(), req, "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}
