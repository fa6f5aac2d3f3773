package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityServer(t *testing.T, status int, body any) *IdentityClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req identityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.ReturnSecureToken)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)

	ic := NewIdentityClient("test-key")
	ic.baseURL = srv.URL
	return ic
}

func TestSignInWithPassword_Success(t *testing.T) {
	ic := identityServer(t, http.StatusOK, identityResponse{
		LocalID:      "uid-1",
		Email:        "ana@example.com",
		DisplayName:  "Ana",
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    "3600",
	})

	sess, err := ic.SignInWithPassword(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", sess.UID)
	assert.Equal(t, "Ana", sess.DisplayName)
	assert.Equal(t, "id-token", sess.IDToken)
}

func TestSignInWithPassword_KnownCodes(t *testing.T) {
	cases := []struct {
		raw     string
		code    string
		message string
	}{
		{"EMAIL_NOT_FOUND", CodeEmailNotFound, "No account found with this email"},
		{"INVALID_PASSWORD", CodeInvalidPassword, "Incorrect password"},
		{"INVALID_LOGIN_CREDENTIALS", CodeInvalidCredentials, "Invalid email or password"},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account has been temporarily disabled.", CodeTooManyAttempts, "Too many failed attempts. Please try again later."},
		{"SOMETHING_NEW", "SOMETHING_NEW", genericLoginMessage},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			ic := identityServer(t, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"message": tc.raw},
			})

			_, err := ic.SignInWithPassword(context.Background(), "a@b.c", "pw")
			var provErr *ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tc.code, provErr.Code)
			assert.Equal(t, tc.message, provErr.Message)
		})
	}
}

func TestSignUp_RegistrationCodes(t *testing.T) {
	ic := identityServer(t, http.StatusBadRequest, map[string]any{
		"error": map[string]any{"message": "WEAK_PASSWORD : Password should be at least 6 characters"},
	})

	_, err := ic.SignUp(context.Background(), "a@b.c", "pw")
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, CodeWeakPassword, provErr.Code)
	assert.Equal(t, "Password should be at least 6 characters", provErr.Message)
}

func TestSignUp_UnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	t.Cleanup(srv.Close)

	ic := NewIdentityClient("test-key")
	ic.baseURL = srv.URL

	_, err := ic.SignUp(context.Background(), "a@b.c", "pw")
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "HTTP_500", provErr.Code)
	assert.Equal(t, genericRegisterMessage, provErr.Message)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WEAK_PASSWORD", normalizeCode("WEAK_PASSWORD : too short"))
	assert.Equal(t, "EMAIL_EXISTS", normalizeCode("EMAIL_EXISTS"))
	assert.Equal(t, "", normalizeCode("   "))
}
