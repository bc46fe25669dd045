package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Cost bcrypt 计算成本，测试中可调低
var Cost = bcrypt.DefaultCost

// ErrEmpty 空密码
var ErrEmpty = errors.New("password is empty")

// Hash 生成密码哈希
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验密码
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
