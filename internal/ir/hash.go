package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix enables future algorithm migration.
const (
	DomainProgram = "scriptc/program/v1"
	DomainExpr    = "scriptc/expr/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed identity of a program together
// with the dialect it will be compiled for. Callers use it as a cache key;
// the compiler itself never caches.
func ProgramHash(p *Program, dialect string) (string, error) {
	doc, err := p.Document()
	if err != nil {
		return "", fmt.Errorf("ProgramHash: %w", err)
	}
	canonical, err := MarshalCanonical(DocObject{
		"program":    doc,
		"dialect":    DocString(dialect),
		"ir_version": DocString(IRVersion),
		"compiler":   DocString(CompilerVersion),
	})
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// ExprHash computes the identity of a single (possibly annotated) expression.
func ExprHash(e Expr) (string, error) {
	doc, err := ExprDocument(e)
	if err != nil {
		return "", fmt.Errorf("ExprHash: %w", err)
	}
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("ExprHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainExpr, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramHash(p *Program, dialect string) string {
	h, err := ProgramHash(p, dialect)
	if err != nil {
		panic(err)
	}
	return h
}
