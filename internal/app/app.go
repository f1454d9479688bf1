// Package app is the application layer between the CLI and the
// VaultService. It constructs all dependencies from config, recovers
// the ledger from the registry, and refuses to start over a ledger
// that fails verification.
package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"evault-go/internal/config"
	"evault-go/internal/encryption"
	"evault-go/internal/evault"
	"evault-go/internal/ledger"
	"evault-go/internal/model"
	"evault-go/internal/registry"
	"evault-go/internal/registry/migrations"
	"evault-go/internal/vault"
)

// EVaultApp wires config, registry, vault, encryptor, sessions, and the
// service. The caller must call Close when done.
type EVaultApp struct {
	cfg      *config.Config
	registry evault.Registry
	vault    evault.Vault
	service  *evault.VaultService
	logFile  *os.File
}

// NewEVaultApp creates a fully wired EVaultApp from the given config.
// operation identifies the CLI command being run (e.g. "Upload",
// "Transfer"); it tags every log line written during the invocation.
func NewEVaultApp(cfg *config.Config, operation string) (*EVaultApp, error) {
	clock := evault.RealClock{}

	reg, err := registry.NewRegistryFromConfig(cfg.Registry)
	if err != nil {
		return nil, fmt.Errorf("creating registry: %w", err)
	}

	// SQLite registries carry a migration-tracked schema; refuse to run
	// against a stale one.
	if sqliteReg, ok := reg.(*registry.SQLiteRegistry); ok {
		if err := migrations.CheckStatus(sqliteReg.DB()); err != nil {
			reg.Close()
			return nil, fmt.Errorf("registry schema out of date: %w", err)
		}
	}

	chain, err := recoverChain(reg, clock)
	if err != nil {
		reg.Close()
		return nil, err
	}

	v, err := vault.NewVaultFromConfig(cfg.Vault)
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if err := v.ValidateSetup(); err != nil {
		reg.Close()
		return nil, fmt.Errorf("validating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if !enc.IsConfigured() {
		reg.Close()
		return nil, fmt.Errorf("encryption key not configured: run `evault config init` first")
	}

	ttl := time.Duration(cfg.Sessions.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	sessions, err := evault.NewSessionManager(ttl, clock)
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("creating session manager: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID+"/"+operation)
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := evault.NewVaultService(reg, v, enc, sessions, chain,
		&slogAdapter{l: logger}, clock, evault.UUIDGenerator{})

	return &EVaultApp{
		cfg:      cfg,
		registry: reg,
		vault:    v,
		service:  svc,
		logFile:  logFile,
	}, nil
}

// recoverChain rebuilds the ledger from persisted blocks. An empty
// registry gets a fresh genesis block, persisted immediately. A block
// set that fails verification is fatal: serving mutations on top of a
// corrupted ledger would let valid-looking blocks launder the damage.
func recoverChain(reg evault.Registry, clock evault.Clock) (*ledger.Chain, error) {
	blocks, err := reg.ListBlocks()
	if err != nil {
		return nil, fmt.Errorf("loading ledger blocks: %w", err)
	}

	if len(blocks) == 0 {
		chain := ledger.NewChain(clock.Now())
		if err := reg.AppendBlock(chain.Head()); err != nil {
			return nil, fmt.Errorf("persisting genesis block: %w", err)
		}
		return chain, nil
	}

	chain, err := ledger.Load(blocks)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, evault.ErrChainIntegrity)
	}
	return chain, nil
}

// InitializeStorage prepares a fresh installation: applies registry
// migrations and generates the system encryption key. Called by
// `evault config init` after the config file is written.
func InitializeStorage(cfg *config.Config) error {
	if cfg.Registry.Type == "sqlite" {
		reg, err := registry.NewRegistryFromConfig(cfg.Registry)
		if err != nil {
			return fmt.Errorf("creating registry: %w", err)
		}
		defer reg.Close()

		sqliteReg, ok := reg.(*registry.SQLiteRegistry)
		if !ok {
			return errors.New("sqlite registry has unexpected type")
		}
		if err := migrations.Up(sqliteReg.DB()); err != nil {
			return fmt.Errorf("migrating registry: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if !enc.IsConfigured() {
		if err := enc.Setup(); err != nil {
			return fmt.Errorf("generating encryption key: %w", err)
		}
	}
	return nil
}

// Register creates a new user account.
func (a *EVaultApp) Register(username, password string) (*model.User, error) {
	return a.service.Register(username, password)
}

// Login verifies credentials and returns a session for this invocation.
func (a *EVaultApp) Login(username, password string) (evault.Session, error) {
	return a.service.Login(username, password)
}

// Logout invalidates the session token.
func (a *EVaultApp) Logout(token string) {
	a.service.Logout(token)
}

// ChangePassword rotates the user's password and salt.
func (a *EVaultApp) ChangePassword(token, oldPassword, newPassword string) error {
	return a.service.ChangePassword(token, oldPassword, newPassword)
}

// UploadFile reads a file from disk and stores it as a new document.
func (a *EVaultApp) UploadFile(token, path string, req evault.UploadRequest) (*model.Document, ledger.Block, error) {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return nil, ledger.Block{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return a.service.UploadDocument(token, req, plaintext)
}

// GetDocumentContent returns the decrypted plaintext of a document.
func (a *EVaultApp) GetDocumentContent(token, documentID string) ([]byte, error) {
	return a.service.GetDocumentContent(token, documentID)
}

// TransferDocument records an ownership transfer.
func (a *EVaultApp) TransferDocument(token, documentID, recipient string) (ledger.Block, error) {
	return a.service.TransferDocument(token, documentID, recipient)
}

// ListOwnedDocuments returns the documents the session's user owns.
func (a *EVaultApp) ListOwnedDocuments(token string) ([]*model.Document, error) {
	return a.service.ListOwnedDocuments(token)
}

// GetHistory returns the custody history of a document.
func (a *EVaultApp) GetHistory(documentID string) ([]ledger.Transaction, error) {
	return a.service.GetHistory(documentID)
}

// GetUserTransactions returns every custody event involving the
// session's user.
func (a *EVaultApp) GetUserTransactions(token string) ([]ledger.Transaction, error) {
	return a.service.GetUserTransactions(token)
}

// VerifyChain walks the full ledger and reports the result.
func (a *EVaultApp) VerifyChain() ledger.Report {
	return a.service.VerifyChain()
}

// VerifyDocument checks stored content against the recorded fingerprint.
func (a *EVaultApp) VerifyDocument(documentID string) error {
	return a.service.VerifyDocument(documentID)
}

// Close releases the registry and log file.
func (a *EVaultApp) Close() error {
	var firstErr error
	if err := a.registry.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
