package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidInitData = errors.New("invalid init data")
	ErrInitDataExpired = errors.New("init data expired")
)

// InitData is the verified launch data of a Telegram Mini App.
type InitData struct {
	UserID    int64
	Username  string
	FirstName string
	AuthDate  time.Time
}

// ValidateInitData verifies the signature of raw init data with the bot token.
// A zero maxAge disables the age check.
func ValidateInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	got, err := hex.DecodeString(hash)
	if err != nil || !hmac.Equal(got, signInitData(values, botToken)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidInitData)
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, ErrInitDataExpired
	}

	var user struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: bad user", ErrInvalidInitData)
	}

	return &InitData{
		UserID:    user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		AuthDate:  authDate,
	}, nil
}

// signInitData computes the Telegram WebApp hash of the fields in values.
func signInitData(values url.Values, botToken string) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	return hmacSHA256(secret, []byte(strings.Join(lines, "\n")))
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

type initDataKey struct{}

func withInitData(ctx context.Context, data *InitData) context.Context {
	return context.WithValue(ctx, initDataKey{}, data)
}

func initDataFrom(ctx context.Context) *InitData {
	data, _ := ctx.Value(initDataKey{}).(*InitData)
	return data
}

// requireInitData authenticates requests carrying "Authorization: tma <initData>".
func (s *Server) requireInitData(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "tma ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing init data")
			return
		}

		data, err := ValidateInitData(raw, s.botToken, s.initDataMaxAge, s.clock())
		if err != nil {
			s.logger.Debug("rejected init data", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid init data")
			return
		}

		next(w, r.WithContext(withInitData(r.Context(), data)))
	}
}
