package models

// UserProfile is the user-facing identity cached for offline sessions.
// It is stored encrypted in the auth record's profile blob.
type UserProfile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthRecord is the single offline authentication row, keyed by the fixed
// sentinel identifier. All blob fields hold AEAD ciphertext alongside
// their nonces; absent optional blobs are nil.
type AuthRecord struct {
	// ID is always common.CurrentUserID; there is one record at a time.
	ID string

	Profile      []byte
	NonceProfile []byte

	// PasswordHash is an encrypted cryptox.PasswordDigest, optional.
	PasswordHash      []byte
	NoncePasswordHash []byte

	// Credential is an encrypted CredentialInfo, optional and populated
	// independently of (and later than) the profile.
	Credential      []byte
	NonceCredential []byte
}

// CredentialInfo is the stored metadata of a platform possession
// credential (a registered passkey / security key).
type CredentialInfo struct {
	CredentialID string `json:"credential_id"`
	PublicKey    []byte `json:"public_key,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Assertion is the structured result of a platform possession-credential
// ceremony. The platform API that produces it is not part of this system;
// the vault only checks its shape and credential identifier.
type Assertion struct {
	ID       string `json:"id"`
	Response []byte `json:"response"`
}

// WellFormed reports whether the assertion carries both an identifier and
// a response payload.
func (a *Assertion) WellFormed() bool {
	return a != nil && a.ID != "" && len(a.Response) > 0
}
