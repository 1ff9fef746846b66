// Package auth issues bearer tokens to API clients that present a valid client key.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/playmatatu/poolsim/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid client credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// GenerateKey returns a random 32-byte key, hex encoded.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generate key")
	}
	return hex.EncodeToString(buf), nil
}

// HashKey hashes a plain client key for storage.
func HashKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash key")
	}
	return string(hashed), nil
}

// VerifyKey checks a plain key against its stored hash.
func VerifyKey(hashed, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(key)) == nil
}

// CreateClient inserts or rotates an API client.
func CreateClient(db *sqlx.DB, clientID, name, key string) error {
	hashed, err := HashKey(key)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO api_clients (client_id, name, key_hash, is_active, created_at)
		VALUES ($1, $2, $3, true, NOW())
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name,
			key_hash = EXCLUDED.key_hash,
			is_active = true
	`, clientID, name, hashed)
	return errors.Wrapf(err, "upsert client %s", clientID)
}

// Authenticate looks up an active client and verifies its key.
func Authenticate(db *sqlx.DB, clientID, key string) (*models.APIClient, error) {
	var client models.APIClient
	err := db.Get(&client, `SELECT id, client_id, name, key_hash, is_active, created_at, last_used FROM api_clients WHERE client_id=$1`, clientID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[AUTH] Unknown client: %s", clientID)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "database error")
	}

	if !client.IsActive || !VerifyKey(client.KeyHash, key) {
		log.Printf("[AUTH] Key verification failed for client: %s", clientID)
		return nil, ErrInvalidCredentials
	}

	if _, err := db.Exec(`UPDATE api_clients SET last_used=NOW() WHERE id=$1`, client.ID); err != nil {
		log.Printf("[AUTH] Failed to touch last_used for %s: %v", clientID, err)
	}
	return &client, nil
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for clientID and its expiry.
func (i *Issuer) Issue(clientID string) (string, time.Time, error) {
	exp := i.now().Add(i.ttl)
	claims := jwt.MapClaims{
		"client_id": clientID,
		"exp":       jwt.NewNumericDate(exp).Unix(),
		"iat":       i.now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Verify parses a token and returns the client it was issued to.
func (i *Issuer) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	clientID, ok := claims["client_id"].(string)
	if !ok || clientID == "" {
		return "", ErrInvalidToken
	}
	return clientID, nil
}
