package credential

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

func testTicket(seq int) *domain.Ticket {
	return &domain.Ticket{
		ID:          "t-1",
		EventID:     "event-1",
		OwnerID:     "user-1",
		PurchasedAt: time.Date(2026, 3, 1, 10, 0, 0, 123000, time.UTC),
		Sequence:    seq,
	}
}

func TestIssuer_IssueIsDeterministic(t *testing.T) {
	iss := NewIssuer("", "https://tickets.example.com/scan")

	a, err := iss.Issue(testTicket(0))
	require.NoError(t, err)
	b, err := iss.Issue(testTicket(0))
	require.NoError(t, err)
	c, err := iss.Issue(testTicket(1))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "v1."))
}

func TestIssuer_ParseRecoversClaims(t *testing.T) {
	for _, secret := range []string{"", "s3cret", strings.Repeat("k", 100)} {
		iss := NewIssuer(secret, "https://tickets.example.com/scan")
		tk := testTicket(3)
		code, err := iss.Issue(tk)
		require.NoError(t, err)

		claims, err := iss.Parse(code)
		require.NoError(t, err)
		assert.Equal(t, "event-1", claims.EventID)
		assert.Equal(t, "user-1", claims.OwnerID)
		assert.Equal(t, tk.IssuanceNonce(), claims.Nonce)
	}
}

func TestIssuer_ParseMalformed(t *testing.T) {
	iss := NewIssuer("", "https://tickets.example.com/scan")
	valid, err := iss.Issue(testTicket(0))
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"garbage", "not-a-credential"},
		{"wrong version", "v2." + strings.Join(parts[1:], ".")},
		{"bad base64", "v1.***." + strings.Join(parts[2:], ".")},
		{"bad nonce", strings.Join(parts[:3], ".") + ".abc"},
		{"extra segment", valid + ".ff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Parse(tt.code)
			require.ErrorIs(t, err, domain.ErrMalformedCredential)
		})
	}
}

func TestIssuer_SignedRejectsForgery(t *testing.T) {
	signer := NewIssuer("s3cret", "https://tickets.example.com/scan")
	code, err := signer.Issue(testTicket(0))
	require.NoError(t, err)

	other := NewIssuer("different", "https://tickets.example.com/scan")
	_, err = other.Parse(code)
	require.ErrorIs(t, err, domain.ErrMalformedCredential)

	unsigned, err := NewIssuer("", "https://tickets.example.com/scan").Issue(testTicket(0))
	require.NoError(t, err)
	_, err = signer.Parse(unsigned)
	require.ErrorIs(t, err, domain.ErrMalformedCredential)

	idx := strings.LastIndex(code, ".")
	forged := code[:idx+1] + strings.Repeat("0", len(code)-idx-1)
	_, err = signer.Parse(forged)
	require.ErrorIs(t, err, domain.ErrMalformedCredential)
}

func TestIssuer_IssueRequiresFields(t *testing.T) {
	iss := NewIssuer("", "https://tickets.example.com/scan")
	_, err := iss.Issue(&domain.Ticket{OwnerID: "u"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = iss.Issue(nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssuer_RenderAsScannable(t *testing.T) {
	code := "v1.ZQ.dQ.1-0"

	uri := NewIssuer("", "https://tickets.example.com/scan").RenderAsScannable(code)
	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "tickets.example.com", u.Host)
	assert.Equal(t, code, u.Query().Get("code"))

	uri = NewIssuer("", "https://tickets.example.com/scan?src=app").RenderAsScannable(code)
	u, err = url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "app", u.Query().Get("src"))
	assert.Equal(t, code, u.Query().Get("code"))
}
