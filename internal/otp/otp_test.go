package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Shared secrets from RFC 4226 appendix D / RFC 6238 appendix B.
const (
	rfcSecretSHA1   = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	rfcSecretSHA256 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZA===="
	rfcSecretSHA512 = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNA="
)

func TestGenerateHOTP_RFC4226Vectors(t *testing.T) {
	want := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}
	for counter, expected := range want {
		got, err := GenerateHOTP(rfcSecretSHA1, "sha1", 6, uint64(counter))
		require.NoError(t, err)
		assert.Equal(t, expected, got, "counter %d", counter)
	}
}

func TestGenerateHOTP_TenDigitCodes(t *testing.T) {
	// With 10 digits the code is the full 31-bit truncated value
	// (RFC 4226 appendix D), zero-padded. The values above 10^10 mod 2^32
	// catch a modulus computed in 32-bit arithmetic.
	want := map[uint64]string{
		2: "0137359152",
		3: "1726969429",
		4: "1640338314",
	}
	for counter, expected := range want {
		got, err := GenerateHOTP(rfcSecretSHA1, "sha1", 10, counter)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "counter %d", counter)
	}
}

func TestGenerateTOTP_RFC6238Vectors(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		ts        int64
		want      string
	}{
		{name: "sha1 t=59", secret: rfcSecretSHA1, algorithm: "sha1", ts: 59, want: "94287082"},
		{name: "sha1 t=1111111109", secret: rfcSecretSHA1, algorithm: "sha1", ts: 1111111109, want: "07081804"},
		{name: "sha1 t=1234567890", secret: rfcSecretSHA1, algorithm: "sha1", ts: 1234567890, want: "89005924"},
		{name: "sha256 t=59", secret: rfcSecretSHA256, algorithm: "sha256", ts: 59, want: "46119246"},
		{name: "sha512 t=59", secret: rfcSecretSHA512, algorithm: "sha512", ts: 59, want: "90693936"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, err := GenerateTOTP(Params{
				Secret:    tc.secret,
				Algorithm: tc.algorithm,
				Digits:    8,
				Period:    30,
			}, time.Unix(tc.ts, 0))
			require.NoError(t, err)
			assert.Equal(t, tc.want, code.Password)
		})
	}
}

func TestGenerateTOTP_StableWithinPeriod(t *testing.T) {
	p := Params{Secret: rfcSecretSHA1}

	a, err := GenerateTOTP(p, time.Unix(1000000020, 0))
	require.NoError(t, err)
	b, err := GenerateTOTP(p, time.Unix(1000000029, 0))
	require.NoError(t, err)
	c, err := GenerateTOTP(p, time.Unix(1000000030, 0))
	require.NoError(t, err)

	assert.Equal(t, a.Password, b.Password)
	assert.NotEqual(t, b.Password, c.Password)
}

func TestGenerateTOTP_Countdown(t *testing.T) {
	p := Params{Secret: rfcSecretSHA1, Period: 30}

	// Countdown decreases strictly within a period...
	prev := int64(31)
	for ts := int64(60); ts < 90; ts++ {
		code, err := GenerateTOTP(p, time.Unix(ts, 0))
		require.NoError(t, err)
		assert.Less(t, code.Countdown, prev)
		assert.GreaterOrEqual(t, code.Countdown, int64(1))
		assert.LessOrEqual(t, code.Countdown, int64(30))
		prev = code.Countdown
	}

	// ...and resets to the full period right on the boundary.
	code, err := GenerateTOTP(p, time.Unix(90, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(30), code.Countdown)
}

func TestGenerateTOTP_Defaults(t *testing.T) {
	code, err := GenerateTOTP(Params{Secret: rfcSecretSHA1}, time.Unix(59, 0))
	require.NoError(t, err)

	assert.Len(t, code.Password, DefaultDigits)
	assert.Equal(t, int64(DefaultPeriod), code.Period)
	assert.Equal(t, int64(59), code.GeneratedAt)
}

func TestGenerateTOTP_SecretNormalization(t *testing.T) {
	canonical, err := GenerateTOTP(Params{Secret: rfcSecretSHA1}, time.Unix(59, 0))
	require.NoError(t, err)

	variants := []string{
		"gezdgnbvgy3tqojqgezdgnbvgy3tqojq",
		"GEZD GNBV GY3T QOJQ GEZD GNBV GY3T QOJQ",
		"GEZD-GNBV-GY3T-QOJQ-GEZD-GNBV-GY3T-QOJQ",
	}
	for _, v := range variants {
		code, err := GenerateTOTP(Params{Secret: v}, time.Unix(59, 0))
		require.NoError(t, err)
		assert.Equal(t, canonical.Password, code.Password, "variant %q", v)
	}
}

func TestGenerateTOTP_Errors(t *testing.T) {
	_, err := GenerateTOTP(Params{Secret: "not!base32"}, time.Unix(59, 0))
	require.ErrorIs(t, err, ErrMalformedSecret)

	_, err = GenerateTOTP(Params{Secret: ""}, time.Unix(59, 0))
	require.ErrorIs(t, err, ErrMalformedSecret)

	_, err = GenerateTOTP(Params{Secret: rfcSecretSHA1, Algorithm: "md5"}, time.Unix(59, 0))
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
