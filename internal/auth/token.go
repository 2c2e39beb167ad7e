package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークン検証の失敗を表します。
// 署名不一致・構造不正・期限切れを区別せず一律にこのエラーへ畳み込みます
// （どのチェックで落ちたかを外部に漏らさないため）。
var ErrInvalidToken = errors.New("invalid token")

// TokenService は署名付きアクセストークンの発行と検証を行います。
// 秘密鍵は起動時に一度だけ設定され、プロセス生存中は不変です。
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService はトークンサービスを作成します。
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue はデフォルトの有効期限でトークンを発行します。
func (s *TokenService) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL は指定した有効期限で HS256 署名付きトークンを発行します。
// クレームは subject（ユーザー名）と絶対時刻の有効期限のみです。
func (s *TokenService) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify はトークンを検証し、subject を返します。
// 失敗理由によらず ErrInvalidToken を返します。
func (s *TokenService) Verify(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
