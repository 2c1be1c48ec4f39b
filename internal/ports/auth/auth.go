// Package auth define el puerto de identidad: quién es el paciente del request.
package auth

import "context"

// Claims es lo que el proveedor de identidad devuelve para un token válido.
// UserID es el sujeto dueño de los medicamentos y las dosis.
type Claims struct {
	UserID string
	Email  string
}

// TokenVerifier verifica un bearer token y devuelve claims o error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a TokenVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
