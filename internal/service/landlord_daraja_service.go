package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/kodisha/rentcore/internal/daraja"
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/vault"
	"github.com/rs/zerolog/log"
)

// LandlordDarajaService manages a landlord's Daraja merchant credentials:
// configuring them (encrypting at rest via internal/vault), reporting
// status, testing them against Daraja's OAuth endpoint, and clearing
// them.
type LandlordDarajaService struct {
	landlordRepo domain.LandlordRepository
	darajaClient *daraja.Client
	vault        *vault.Vault
}

// NewLandlordDarajaService creates a new LandlordDarajaService.
func NewLandlordDarajaService(landlordRepo domain.LandlordRepository, darajaClient *daraja.Client, v *vault.Vault) *LandlordDarajaService {
	return &LandlordDarajaService{landlordRepo: landlordRepo, darajaClient: darajaClient, vault: v}
}

// shortCodePattern enforces the 5-7 ASCII digit business short code
// Daraja assigns to paybill and till accounts.
var shortCodePattern = regexp.MustCompile(`^\d{5,7}$`)

// Configure encrypts and persists a landlord's Daraja credentials;
// ConsumerKey, ConsumerSecret and Passkey are ciphertext at rest.
// Validation runs against the plaintext input before encryption: a sealed
// empty string is non-empty ciphertext, so checking afterwards would let
// blank credentials through.
func (s *LandlordDarajaService) Configure(input domain.DarajaConfigureInput, landlordID string) (*domain.Landlord, error) {
	if err := validateConfigureInput(input); err != nil {
		return nil, err
	}

	consumerKey, err := s.vault.Encrypt(input.ConsumerKey)
	if err != nil {
		return nil, fmt.Errorf("encrypting consumer key: %w", err)
	}
	consumerSecret, err := s.vault.Encrypt(input.ConsumerSecret)
	if err != nil {
		return nil, fmt.Errorf("encrypting consumer secret: %w", err)
	}
	passkey, err := s.vault.Encrypt(input.Passkey)
	if err != nil {
		return nil, fmt.Errorf("encrypting passkey: %w", err)
	}

	cfg := domain.DarajaConfig{
		ConsumerKey:       consumerKey,
		ConsumerSecret:    consumerSecret,
		Passkey:           passkey,
		Environment:       input.Environment,
		BusinessShortCode: input.BusinessShortCode,
		BusinessType:      input.BusinessType,
		IsConfigured:      true,
		IsActive:          true,
	}

	return s.landlordRepo.UpdateDarajaConfig(landlordID, cfg)
}

func validateConfigureInput(input domain.DarajaConfigureInput) error {
	if input.ConsumerKey == "" || input.ConsumerSecret == "" || input.Passkey == "" {
		return fmt.Errorf("%w: consumer key, consumer secret and passkey are required", domain.ErrInvalidInput)
	}
	if !shortCodePattern.MatchString(input.BusinessShortCode) {
		return fmt.Errorf("%w: business short code must be 5-7 digits", domain.ErrInvalidInput)
	}
	if input.BusinessType != domain.BusinessPaybill && input.BusinessType != domain.BusinessTill {
		return fmt.Errorf("%w: unknown business type %q", domain.ErrInvalidInput, input.BusinessType)
	}
	if input.Environment != domain.DarajaSandbox && input.Environment != domain.DarajaProduction {
		return fmt.Errorf("%w: unknown environment %q", domain.ErrInvalidInput, input.Environment)
	}
	return nil
}

// Status returns the landlord's Daraja configuration, with each
// credential decrypted and then masked so only its first and last four
// characters remain visible.
func (s *LandlordDarajaService) Status(landlordID string) (*domain.Landlord, error) {
	landlord, err := s.landlordRepo.GetByID(landlordID)
	if err != nil {
		return nil, err
	}
	masked := *landlord
	masked.DarajaConfig.ConsumerKey = vault.Mask(s.decryptOne(landlord.DarajaConfig.ConsumerKey), 4)
	masked.DarajaConfig.ConsumerSecret = vault.Mask(s.decryptOne(landlord.DarajaConfig.ConsumerSecret), 4)
	masked.DarajaConfig.Passkey = vault.Mask(s.decryptOne(landlord.DarajaConfig.Passkey), 4)
	return &masked, nil
}

// Test performs an OAuth auth check against Daraja with the landlord's
// stored, decrypted credentials and records the outcome timestamp.
func (s *LandlordDarajaService) Test(ctx context.Context, landlordID string) error {
	landlord, err := s.landlordRepo.GetByID(landlordID)
	if err != nil {
		return err
	}
	if !landlord.DarajaConfig.IsConfigured {
		return domain.ErrGatewayNotConfigured
	}

	creds := daraja.Credentials{
		ConsumerKey:       s.decryptOne(landlord.DarajaConfig.ConsumerKey),
		ConsumerSecret:    s.decryptOne(landlord.DarajaConfig.ConsumerSecret),
		Passkey:           s.decryptOne(landlord.DarajaConfig.Passkey),
		BusinessShortCode: landlord.DarajaConfig.BusinessShortCode,
		BusinessType:      landlord.DarajaConfig.BusinessType,
		Environment:       landlord.DarajaConfig.Environment,
	}

	testErr := s.darajaClient.Authenticate(ctx, creds)
	if err := s.landlordRepo.SetLastTestedAt(landlordID, time.Now()); err != nil {
		return fmt.Errorf("recording credential test timestamp: %w", err)
	}
	return testErr
}

// Delete deactivates a landlord's Daraja gateway without discarding the
// stored credentials.
func (s *LandlordDarajaService) Delete(landlordID string) error {
	return s.landlordRepo.ClearDarajaConfig(landlordID)
}

// decryptOne mirrors PaymentIntentService's fallback-on-corruption
// behavior: a decrypt failure falls back to the raw value rather than
// failing the request, to tolerate a legacy-plaintext row.
func (s *LandlordDarajaService) decryptOne(ciphertext string) string {
	if !vault.IsEncrypted(ciphertext) {
		return ciphertext
	}
	plaintext, err := s.vault.Decrypt(ciphertext)
	if err != nil {
		log.Warn().Err(err).Msg("daraja credential failed to decrypt, falling back to stored value")
		return ciphertext
	}
	return plaintext
}
