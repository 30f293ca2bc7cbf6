// Package payu implements the PayU hash handshake: signing outbound
// payment-initiation requests and verifying the hash on provider
// callbacks. Both directions are pure string-build + SHA-512; all I/O
// stays in the HTTP layer.
package payu

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// Credentials is the merchant key/salt pair issued by the provider.
// The salt never leaves the process except inside the one-way digest.
type Credentials struct {
	Key  string
	Salt string
}

var ErrMissingCredentials = errors.New("payu: merchant key or salt not configured")

// The provider reserves ten optional UDF slots between the payer email
// and the salt. They stay empty here but must be present in the hash
// string, in both directions.
const reservedSlots = 10

const StatusSuccess = "success"

const ReasonHashMismatch = "hash_mismatch"

// Request carries the fields the merchant signs when initiating a
// payment. Amount is passed through exactly as supplied; the provider
// hashes the literal string, so any normalization would break the
// handshake.
type Request struct {
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	Phone       string
}

// Payload is what the storefront posts to the provider's checkout
// page: the original fields, the callback URLs and the computed hash.
type Payload struct {
	Key         string `json:"key"`
	TxnID       string `json:"txnid"`
	Amount      string `json:"amount"`
	ProductInfo string `json:"productinfo"`
	FirstName   string `json:"firstname"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SuccessURL  string `json:"surl"`
	FailureURL  string `json:"furl"`
	Hash        string `json:"hash"`
}

// Callback is the form-encoded payload the provider posts back after
// the payer leaves its checkout page. Provider-specific extras are
// ignored.
type Callback struct {
	Status      string
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	Hash        string
}

// Result is the verifier's verdict. Reason is set to
// ReasonHashMismatch when the supplied hash failed the integrity
// check; it stays empty for a provider-reported failure.
type Result struct {
	Verified bool
	TxnID    string
	Reason   string
}

// Sign computes the request hash and bundles the outbound payload.
// It refuses to sign with an unset key or salt.
func Sign(creds Credentials, req Request, successURL, failureURL string) (Payload, error) {
	if creds.Key == "" || creds.Salt == "" {
		return Payload{}, ErrMissingCredentials
	}
	return Payload{
		Key:         creds.Key,
		TxnID:       req.TxnID,
		Amount:      req.Amount,
		ProductInfo: req.ProductInfo,
		FirstName:   req.FirstName,
		Email:       req.Email,
		Phone:       req.Phone,
		SuccessURL:  successURL,
		FailureURL:  failureURL,
		Hash:        hashHex(requestString(creds, req)),
	}, nil
}

// Verify authenticates a provider callback. A non-success status is a
// plain cancellation and needs no hash work. A success status is
// trusted only when the recomputed response hash matches the supplied
// one; a mismatch is reported as cancelled with ReasonHashMismatch,
// never as success. Pure and idempotent: the same callback always
// yields the same verdict.
func Verify(creds Credentials, cb Callback) (Result, error) {
	if creds.Key == "" || creds.Salt == "" {
		return Result{}, ErrMissingCredentials
	}
	if cb.Status != StatusSuccess {
		return Result{TxnID: cb.TxnID}, nil
	}
	want := hashHex(responseString(creds, cb))
	got := strings.ToLower(cb.Hash)
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1 {
		return Result{Verified: true, TxnID: cb.TxnID}, nil
	}
	return Result{TxnID: cb.TxnID, Reason: ReasonHashMismatch}, nil
}

// ResponseHash computes the digest the provider attaches on the return
// leg. Exposed for tests and for reconciliation tooling.
func ResponseHash(creds Credentials, cb Callback) string {
	return hashHex(responseString(creds, cb))
}

// requestString builds the forward hash string:
// key|txnid|amount|productinfo|firstname|email|<reserved>|salt
func requestString(creds Credentials, req Request) string {
	fields := make([]string, 0, 7+reservedSlots)
	fields = append(fields, creds.Key, req.TxnID, req.Amount, req.ProductInfo, req.FirstName, req.Email)
	for i := 0; i < reservedSlots; i++ {
		fields = append(fields, "")
	}
	fields = append(fields, creds.Salt)
	return strings.Join(fields, "|")
}

// responseString builds the return-leg hash string. Per the provider
// docs it is the forward string reversed, with the transaction status
// inserted after the salt:
// salt|status|<reserved>|email|firstname|productinfo|amount|txnid|key
// The asymmetry is provider-mandated, not an implementation choice.
func responseString(creds Credentials, cb Callback) string {
	fields := make([]string, 0, 8+reservedSlots)
	fields = append(fields, creds.Salt, cb.Status)
	for i := 0; i < reservedSlots; i++ {
		fields = append(fields, "")
	}
	fields = append(fields, cb.Email, cb.FirstName, cb.ProductInfo, cb.Amount, cb.TxnID, creds.Key)
	return strings.Join(fields, "|")
}

func hashHex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
