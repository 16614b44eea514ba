package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/devkekops/paymentopt/internal/app/logger"
)

const (
	signatureHeader  = "X-Signature"
	invalidSignature = "Invalid signature"
)

// sign returns hex(HMAC-SHA256(sha256(secretKey), body)).
func sign(body []byte, secretKey string) string {
	key := sha256.Sum256([]byte(secretKey))
	h := hmac.New(sha256.New, key[:])
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func checkSignature(body []byte, signature string, secretKey string) error {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return err
	}
	want, _ := hex.DecodeString(sign(body, secretKey))
	if !hmac.Equal(got, want) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// signatureHandle rejects requests whose body is not signed with secretKey.
// An empty secretKey disables the check.
func signatureHandle(secretKey string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secretKey == "" {
				h.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				logger.Logger.Err(err).Msg("read body")
				return
			}
			if err := checkSignature(body, r.Header.Get(signatureHeader), secretKey); err != nil {
				http.Error(w, invalidSignature, http.StatusUnauthorized)
				logger.Logger.Info().Err(err).Str("path", r.URL.Path).Msg("rejected request")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			h.ServeHTTP(w, r)
		})
	}
}
