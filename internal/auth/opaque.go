package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// refresh/csrf用のランダム文字列。DBにはHashOpaqueの結果だけ置く
func NewOpaque() (plain, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, HashOpaque(plain), nil
}

func HashOpaque(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
