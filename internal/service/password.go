// File: internal/service/password.go
package service

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
	randRead                     = rand.Read
)

// UnusablePrefix 開頭的雜湊永遠無法通過比對
const UnusablePrefix = "!"

// HashPassword 接收明文密碼，回傳 bcrypt 哈希字串
func HashPassword(password string) (string, error) {
	hashBytes, err := bcryptGenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// MakePassword 空密碼產生不可用的雜湊，其餘交給 HashPassword
func MakePassword(password string) (string, error) {
	if password == "" {
		token, err := randomToken(24)
		if err != nil {
			return "", err
		}
		return UnusablePrefix + token, nil
	}
	return HashPassword(password)
}

// HasUsablePassword 判斷雜湊是否可用於登入
func HasUsablePassword(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, UnusablePrefix)
}

// ComparePassword 比對明文密碼與 bcrypt 哈希，成功回傳 nil，失敗則回傳錯誤
func ComparePassword(hash, password string) error {
	return bcryptCompareHashAndPassword([]byte(hash), []byte(password))
}

// RandomPassword 產生重設密碼用的隨機字串
func RandomPassword() (string, error) {
	return randomToken(12)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := randRead(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
