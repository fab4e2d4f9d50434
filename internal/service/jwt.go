package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrIdentityDisabled = errors.New("identity tokens are not configured")
)

const defaultTokenTTL = 24 * time.Hour

// Identity is the student behind a verified token.
type Identity struct {
	StudentID string `json:"studentId"`
	ClassID   string `json:"classId,omitempty"`
}

// IdentityService issues and verifies HS256 identity tokens. A service
// built with an empty secret is disabled and rejects every token.
type IdentityService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIdentityService(secret string, ttl time.Duration) *IdentityService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &IdentityService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *IdentityService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *IdentityService) Issue(studentID, classID string) (string, error) {
	if !s.Enabled() {
		return "", ErrIdentityDisabled
	}
	if studentID == "" {
		return "", errors.New("student id is required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"student_id": studentID,
		"exp":        now.Add(s.ttl).Unix(),
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
	}
	if classID != "" {
		claims["class_id"] = classID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *IdentityService) Parse(tokenString string) (*Identity, error) {
	if !s.Enabled() {
		return nil, ErrIdentityDisabled
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	studentID, _ := claims["student_id"].(string)
	if studentID == "" {
		return nil, errors.New("student_id not found")
	}
	classID, _ := claims["class_id"].(string)
	return &Identity{StudentID: studentID, ClassID: classID}, nil
}
