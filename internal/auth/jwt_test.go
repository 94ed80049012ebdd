package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/saulo-duarte/codequiz-lambda/internal/auth"
)

const testSecret = "a-long-and-secure-secret-for-tests"
const testUserID = "5f0c9a5e-6b0e-4d5c-9a8e-2f3b1c4d5e6f"
const testRole = "user"

func TestInit(t *testing.T) {
	t.Run("MissingSecret", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("Init() should panic on an empty secret")
			}
		}()

		auth.Init("")
	})

	t.Run("ValidSecret", func(t *testing.T) {
		auth.Init(testSecret)
	})
}

func TestGenerateAndValidateJWT(t *testing.T) {
	auth.Init(testSecret)

	t.Run("ValidToken", func(t *testing.T) {
		tokenStr, err := auth.GenerateJWT(testUserID, testRole, 5*time.Minute)
		if err != nil {
			t.Fatalf("GenerateJWT failed: %v", err)
		}

		claims, err := auth.ValidateJWT(tokenStr)
		if err != nil {
			t.Fatalf("ValidateJWT failed unexpectedly: %v", err)
		}

		if claims.UserID != testUserID {
			t.Errorf("wrong UserID. want %s, got %s", testUserID, claims.UserID)
		}
		if claims.Role != testRole {
			t.Errorf("wrong Role. want %s, got %s", testRole, claims.Role)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		tokenStr, err := auth.GenerateJWT(testUserID, testRole, -time.Minute)
		if err != nil {
			t.Fatalf("GenerateJWT failed: %v", err)
		}

		_, err = auth.ValidateJWT(tokenStr)
		if err == nil {
			t.Fatal("ValidateJWT should fail on an expired token")
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("wrong error for expired token. want %v, got %v", jwt.ErrTokenExpired, err)
		}
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		tokenStr, err := auth.GenerateJWT(testUserID, testRole, time.Minute)
		if err != nil {
			t.Fatalf("GenerateJWT failed: %v", err)
		}

		auth.Init("a-different-secret-used-to-verify")
		defer auth.Init(testSecret)

		_, err = auth.ValidateJWT(tokenStr)
		if err == nil {
			t.Fatal("ValidateJWT should fail on a bad signature")
		}
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			t.Errorf("wrong error for bad signature: %v", err)
		}
	})
}
