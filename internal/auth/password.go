package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword は平文パスワードを bcrypt でハッシュ化します。
// ソルトは呼び出しごとにランダム生成されるため、同じ平文でも毎回異なるハッシュになります。
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードと保存済みハッシュを照合します。
// ハッシュが壊れている場合も false を返すだけで、呼び出し側にエラーを伝播しません。
func VerifyPassword(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
