package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/internal/application/auth"
	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/testutil/memstore"
	pkgjwt "github.com/jhoicas/inventario-stock/pkg/jwt"
)

func newAuth() *auth.AuthUseCase {
	store := memstore.New()
	return auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: "secreto", ExpMinutes: 5, Issuer: "test"})
}

func TestCreateUserYLogin(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()

	user, err := uc.CreateUser(ctx, dto.CreateUserRequest{Username: " bodega1 ", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "bodega1", user.Username)
	assert.Equal(t, "bodega1", user.Name)
	assert.True(t, user.Active)

	res, err := uc.Login(ctx, dto.LoginRequest{Username: "bodega1", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	subject, err := pkgjwt.Parse("secreto", res.Token)
	require.NoError(t, err)
	assert.Equal(t, "bodega1", subject)
}

func TestLogin_CredencialesIncorrectas(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()
	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{Username: "ana", Password: "clave-segura", Name: "Ana"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Username: "nadie", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateUser_ValidacionYDuplicado(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()

	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{Username: "ab", Password: "corta"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)

	_, err = uc.CreateUser(ctx, dto.CreateUserRequest{Username: "ana", Password: "clave-segura"})
	require.NoError(t, err)
	_, err = uc.CreateUser(ctx, dto.CreateUserRequest{Username: "ana", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
