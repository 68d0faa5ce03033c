package services

import (
	"fmt"

	"tradejournal/internal/crypto"
	"tradejournal/internal/models"
)

// EncryptionService seals trade notes at rest. A service without a key passes data
// through unchanged, and a nil *EncryptionService is valid.
type EncryptionService struct {
	sealer *crypto.Sealer
}

// NewEncryptionService creates the service from a base64 32-byte key. An empty key
// disables encryption.
func NewEncryptionService(encodedKey string) (*EncryptionService, error) {
	if encodedKey == "" {
		return &EncryptionService{}, nil
	}
	key, err := crypto.ParseKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("notes key: %w", err)
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		return nil, err
	}
	return &EncryptionService{sealer: sealer}, nil
}

func (s *EncryptionService) Enabled() bool { return s != nil && s.sealer != nil }

// EncryptTrade encrypts sensitive trade fields before storing. Without a key, notes that
// would read back as sealed are escaped instead.
func (s *EncryptionService) EncryptTrade(t *models.Trade) error {
	if !s.Enabled() {
		t.Notes = crypto.Escape(t.Notes)
		return nil
	}
	sealed, err := s.sealer.Seal(t.Notes)
	if err != nil {
		return fmt.Errorf("seal notes: %w", err)
	}
	t.Notes = sealed
	return nil
}

// DecryptTrade decrypts sensitive trade fields after loading
func (s *EncryptionService) DecryptTrade(t *models.Trade) error {
	if crypto.IsEscaped(t.Notes) {
		t.Notes = crypto.Unescape(t.Notes)
		return nil
	}
	if !crypto.IsSealed(t.Notes) {
		return nil
	}
	if !s.Enabled() {
		return fmt.Errorf("trade %s has encrypted notes but no key is configured", t.ID)
	}
	plain, err := s.sealer.Open(t.Notes)
	if err != nil {
		return fmt.Errorf("open notes of trade %s: %w", t.ID, err)
	}
	t.Notes = plain
	return nil
}

func (s *EncryptionService) DecryptTrades(ts []models.Trade) error {
	for i := range ts {
		if err := s.DecryptTrade(&ts[i]); err != nil {
			return err
		}
	}
	return nil
}
