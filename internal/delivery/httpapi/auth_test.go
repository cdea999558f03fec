package httpapi

import (
	"encoding/hex"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-TOKEN"

// signedInitData builds init data the way Telegram clients receive it.
func signedInitData(t *testing.T, userID int64, authDate time.Time, token string) string {
	t.Helper()

	values := url.Values{}
	values.Set("query_id", "AAE123")
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Ana","username":"ana_es"}`)
	values.Set("hash", hex.EncodeToString(signInitData(values, token)))

	return values.Encode()
}

func TestValidateInitData(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, 42, now.Add(-time.Hour), testBotToken)

	data, err := ValidateInitData(raw, testBotToken, 24*time.Hour, now)
	require.NoError(t, err)

	assert.Equal(t, int64(42), data.UserID)
	assert.Equal(t, "ana_es", data.Username)
	assert.Equal(t, "Ana", data.FirstName)
	assert.Equal(t, now.Add(-time.Hour).Unix(), data.AuthDate.Unix())
}

func TestValidateInitDataRejects(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	valid := signedInitData(t, 42, now.Add(-time.Hour), testBotToken)

	tampered, err := url.ParseQuery(valid)
	require.NoError(t, err)
	tampered.Set("user", `{"id":43}`)

	tests := []struct {
		name    string
		raw     string
		maxAge  time.Duration
		wantErr error
	}{
		{name: "wrong token", raw: signedInitData(t, 42, now, "other"), wantErr: ErrInvalidInitData},
		{name: "tampered", raw: tampered.Encode(), wantErr: ErrInvalidInitData},
		{name: "no hash", raw: "auth_date=1&user=%7B%22id%22%3A1%7D", wantErr: ErrInvalidInitData},
		{name: "garbage hash", raw: "hash=zz&auth_date=1", wantErr: ErrInvalidInitData},
		{name: "expired", raw: valid, maxAge: time.Minute, wantErr: ErrInitDataExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateInitData(tt.raw, testBotToken, tt.maxAge, now)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateInitDataNoMaxAge(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, 7, now.AddDate(-1, 0, 0), testBotToken)

	_, err := ValidateInitData(raw, testBotToken, 0, now)
	assert.NoError(t, err)
}
