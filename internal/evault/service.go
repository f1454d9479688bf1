package evault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"evault-go/internal/ledger"
	"evault-go/internal/model"
)

// UploadRequest carries the logical metadata for a new document.
type UploadRequest struct {
	Title       string
	Description string
	ContentType string
}

// VaultService orchestrates the registry, vault, encryptor, sessions,
// and ledger. It is the only writer to the ledger and the content
// store, which keeps the two transactionally aligned: an upload or
// transfer counts as committed only once both the content write and
// the ledger append have succeeded.
//
// Mutations run under a single writer lock so block indices stay
// gap-free and two uploads can never race on the same document ID.
// Reads share a read lock and therefore always observe a chain whose
// last block is fully linked.
type VaultService struct {
	mu        sync.RWMutex
	registry  Registry
	vault     Vault
	encryptor Encryptor
	sessions  *SessionManager
	chain     *ledger.Chain
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewVaultService creates a service over an already-verified chain.
func NewVaultService(registry Registry, vault Vault, encryptor Encryptor, sessions *SessionManager, chain *ledger.Chain, logger Logger, clock Clock, idgen IDGenerator) *VaultService {
	return &VaultService{
		registry:  registry,
		vault:     vault,
		encryptor: encryptor,
		sessions:  sessions,
		chain:     chain,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Register creates a new user account with a fresh salt.
func (s *VaultService) Register(username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username must not be empty")
	}
	if password == "" {
		return nil, errors.New("password must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     username,
		Salt:         salt,
		PasswordHash: HashPassword(password, salt),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.registry.CreateUser(user); err != nil {
		return nil, fmt.Errorf("registering %s: %w", username, err)
	}

	s.logger.Info("user registered", "username", username)
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown users
// and wrong passwords both come back as ErrInvalidCredentials, and no
// token is issued in either case.
func (s *VaultService) Login(username, password string) (Session, error) {
	s.mu.RLock()
	user, err := s.registry.FindUser(username)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, fmt.Errorf("login for %s: %w", username, ErrInvalidCredentials)
		}
		return Session{}, fmt.Errorf("login for %s: %w", username, err)
	}
	if !VerifyPassword(user.PasswordHash, password, user.Salt) {
		return Session{}, fmt.Errorf("login for %s: %w", username, ErrInvalidCredentials)
	}

	session, err := s.sessions.Issue(username)
	if err != nil {
		return Session{}, fmt.Errorf("login for %s: %w", username, err)
	}
	s.logger.Info("user logged in", "username", username)
	return session, nil
}

// Logout invalidates the session token.
func (s *VaultService) Logout(token string) {
	s.sessions.Revoke(token)
}

// ChangePassword verifies the old password and replaces hash and salt.
// The new salt is as fresh and random as the one at registration.
func (s *VaultService) ChangePassword(token, oldPassword, newPassword string) error {
	username, err := s.sessions.Validate(token)
	if err != nil {
		return err
	}
	if newPassword == "" {
		return errors.New("new password must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.registry.FindUser(username)
	if err != nil {
		return fmt.Errorf("changing password for %s: %w", username, err)
	}
	if !VerifyPassword(user.PasswordHash, oldPassword, user.Salt) {
		return fmt.Errorf("changing password for %s: %w", username, ErrInvalidCredentials)
	}

	salt, err := NewSalt()
	if err != nil {
		return err
	}
	if err := s.registry.UpdateUserPassword(username, salt, HashPassword(newPassword, salt)); err != nil {
		return fmt.Errorf("changing password for %s: %w", username, err)
	}
	s.logger.Info("password changed", "username", username)
	return nil
}

// UploadDocument encrypts and stores the plaintext, records the document
// metadata, and appends an upload transaction carrying the plaintext
// fingerprint. The sealed block is persisted before the in-memory chain
// adopts it, so a failed write leaves the ledger unchanged.
func (s *VaultService) UploadDocument(token string, req UploadRequest, plaintext []byte) (*model.Document, ledger.Block, error) {
	username, err := s.sessions.Validate(token)
	if err != nil {
		return nil, ledger.Block{}, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ledger.Block{}, errors.New("document title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	documentID := s.idgen.New()
	fingerprint := ledger.NewDigest(plaintext)

	var ciphertext bytes.Buffer
	if err := s.encryptor.Encrypt(bytes.NewReader(plaintext), &ciphertext); err != nil {
		return nil, ledger.Block{}, fmt.Errorf("encrypting document: %w", err)
	}
	if err := s.vault.PutContent(documentID, bytes.NewReader(ciphertext.Bytes()), int64(ciphertext.Len())); err != nil {
		return nil, ledger.Block{}, fmt.Errorf("storing document content: %w", err)
	}

	doc := &model.Document{
		ID:          documentID,
		Title:       req.Title,
		Description: req.Description,
		ContentType: req.ContentType,
		Fingerprint: fingerprint,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.registry.CreateDocument(doc); err != nil {
		return nil, ledger.Block{}, fmt.Errorf("recording document metadata: %w", err)
	}

	block, err := s.appendLocked(ledger.Transaction{
		Kind:        ledger.KindUpload,
		DocumentID:  documentID,
		Actor:       username,
		Timestamp:   s.clock.Now().UnixNano(),
		Fingerprint: fingerprint,
	})
	if err != nil {
		return nil, ledger.Block{}, err
	}

	s.logger.Info("document uploaded",
		"document_id", documentID, "owner", username, "block", block.Index)
	return doc, block, nil
}

// TransferDocument appends a transfer transaction after checking that
// the authenticated user is the current owner and the recipient exists.
// Content is not touched: only custody changes, so the fingerprint
// history stays intact.
func (s *VaultService) TransferDocument(token, documentID, recipient string) (ledger.Block, error) {
	username, err := s.sessions.Validate(token)
	if err != nil {
		return ledger.Block{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.registry.FindDocument(documentID)
	if err != nil {
		return ledger.Block{}, fmt.Errorf("transferring %s: %w", documentID, err)
	}
	owner, err := s.chain.ResolveOwner(documentID)
	if err != nil {
		return ledger.Block{}, fmt.Errorf("transferring %s: %w", documentID, ErrNotFound)
	}
	if owner != username {
		return ledger.Block{}, fmt.Errorf("transferring %s: %s is %w", documentID, username, ErrNotOwner)
	}
	if _, err := s.registry.FindUser(recipient); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ledger.Block{}, fmt.Errorf("transferring %s to %q: %w", documentID, recipient, ErrUnknownUser)
		}
		return ledger.Block{}, fmt.Errorf("transferring %s: %w", documentID, err)
	}

	block, err := s.appendLocked(ledger.Transaction{
		Kind:        ledger.KindTransfer,
		DocumentID:  documentID,
		Actor:       username,
		Recipient:   recipient,
		Timestamp:   s.clock.Now().UnixNano(),
		Fingerprint: doc.Fingerprint,
	})
	if err != nil {
		return ledger.Block{}, err
	}

	s.logger.Info("document transferred",
		"document_id", documentID, "from", username, "to", recipient, "block", block.Index)
	return block, nil
}

// GetDocumentContent returns the decrypted plaintext for the document.
// Only the current ledger-derived owner may read it.
func (s *VaultService) GetDocumentContent(token, documentID string) ([]byte, error) {
	username, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.registry.FindDocument(documentID); err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentID, err)
	}
	owner, err := s.chain.ResolveOwner(documentID)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentID, ErrNotFound)
	}
	if owner != username {
		return nil, fmt.Errorf("reading %s: %s is %w", documentID, username, ErrNotOwner)
	}
	return s.decryptContent(documentID)
}

// ListOwnedDocuments returns metadata for every document the session's
// user currently owns, in first-appearance order.
func (s *VaultService) ListOwnedDocuments(token string) ([]*model.Document, error) {
	username, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.chain.OwnedBy(username)
	docs := make([]*model.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.registry.FindDocument(id)
		if err != nil {
			return nil, fmt.Errorf("listing documents for %s: %w", username, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// GetHistory returns the full custody history of a document in
// chronological order.
func (s *VaultService) GetHistory(documentID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.registry.FindDocument(documentID); err != nil {
		return nil, fmt.Errorf("history of %s: %w", documentID, err)
	}
	return s.chain.History(documentID), nil
}

// GetUserTransactions returns every custody event the session's user
// acted in or received, in chronological order.
func (s *VaultService) GetUserTransactions(token string) ([]ledger.Transaction, error) {
	username, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.TransactionsByUser(username), nil
}

// VerifyChain walks the whole ledger, recomputing digests and linkage.
func (s *VaultService) VerifyChain() ledger.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chain.Verify()
}

// VerifyDocument checks stored content against the fingerprint recorded
// by the most recent transaction touching the document. A decryption
// failure or fingerprint mismatch signals content corruption,
// independent of chain-level verification.
func (s *VaultService) VerifyDocument(documentID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.registry.FindDocument(documentID); err != nil {
		return fmt.Errorf("verifying %s: %w", documentID, err)
	}
	history := s.chain.History(documentID)
	if len(history) == 0 {
		return fmt.Errorf("verifying %s: %w", documentID, ErrNotFound)
	}
	recorded := history[len(history)-1].Fingerprint

	plaintext, err := s.decryptContent(documentID)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", documentID, err)
	}
	if ledger.NewDigest(plaintext) != recorded {
		return fmt.Errorf("verifying %s: %w", documentID, ErrContentMismatch)
	}
	return nil
}

// decryptContent fetches and decrypts the document's ciphertext.
// Callers hold at least the read lock.
func (s *VaultService) decryptContent(documentID string) ([]byte, error) {
	var ciphertext bytes.Buffer
	if err := s.vault.GetContent(documentID, &ciphertext); err != nil {
		return nil, fmt.Errorf("fetching content: %w", err)
	}
	var plaintext bytes.Buffer
	if err := s.encryptor.Decrypt(&ciphertext, &plaintext); err != nil {
		return nil, fmt.Errorf("decrypting content: %w", err)
	}
	return plaintext.Bytes(), nil
}

// appendLocked seals a block, persists it, and only then lets the
// in-memory chain adopt it. Callers hold the writer lock.
func (s *VaultService) appendLocked(txs ...ledger.Transaction) (ledger.Block, error) {
	block, err := s.chain.Seal(s.clock.Now(), txs...)
	if err != nil {
		return ledger.Block{}, fmt.Errorf("sealing block: %w", err)
	}
	if err := s.registry.AppendBlock(block); err != nil {
		return ledger.Block{}, fmt.Errorf("persisting block %d: %w", block.Index, err)
	}
	if err := s.chain.Commit(block); err != nil {
		return ledger.Block{}, fmt.Errorf("committing block %d: %w", block.Index, err)
	}
	return block, nil
}
