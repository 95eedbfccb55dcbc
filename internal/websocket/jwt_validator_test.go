package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockLandlordLookup is a test double for LandlordLookup
type mockLandlordLookup struct {
	landlordID string
	err        error
}

func (m *mockLandlordLookup) GetLandlordIDForToken(token string) (landlordID string, err error) {
	return m.landlordID, m.err
}

func TestLandlordLookup_Interface(t *testing.T) {
	// Verify mockLandlordLookup implements LandlordLookup
	var _ LandlordLookup = (*mockLandlordLookup)(nil)
}

func TestIdentityValidator_ValidateToken_Success(t *testing.T) {
	lookup := &mockLandlordLookup{landlordID: "landlord-1"}
	v := NewIdentityValidator(lookup)

	landlordID, err := v.ValidateToken("some-token")
	assert.NoError(t, err)
	assert.Equal(t, "landlord-1", landlordID)
}

func TestIdentityValidator_ValidateToken_EmptyToken(t *testing.T) {
	lookup := &mockLandlordLookup{landlordID: "landlord-1"}
	v := NewIdentityValidator(lookup)

	_, err := v.ValidateToken("")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestIdentityValidator_ValidateToken_LookupFails(t *testing.T) {
	lookup := &mockLandlordLookup{err: errors.New("not found")}
	v := NewIdentityValidator(lookup)

	_, err := v.ValidateToken("some-token")
	assert.True(t, errors.Is(err, ErrLandlordNotFound))
}
