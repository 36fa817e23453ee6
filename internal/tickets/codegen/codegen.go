package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrCodeExhausted is returned when every generation attempt collided with an
// existing code. Fatal to the calling issuance operation.
var ErrCodeExhausted = errors.New("unique ticket code generation exhausted")

const (
	codePrefix      = "T"
	randomLength    = 8
	defaultAttempts = 10

	// Uppercase alphanumerics keep codes readable on printed tickets.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeStore is the persistent code namespace the generator checks against.
type CodeStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

type Generator struct {
	Store       CodeStore
	MaxAttempts int
}

func NewGenerator(store CodeStore) *Generator {
	return &Generator{Store: store, MaxAttempts: defaultAttempts}
}

// GenerateUniqueCode produces a T-<base36 timestamp>-<random> code that does
// not yet exist in the store. Generation has no side effects; the caller
// persists the code by creating the ticket.
func (g *Generator) GenerateUniqueCode(ctx context.Context) (string, error) {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	for i := 0; i < attempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate ticket code: %w", err)
		}

		exists, err := g.Store.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check ticket code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrCodeExhausted
}

func newCode() (string, error) {
	timestamp := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	buf := make([]byte, randomLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return fmt.Sprintf("%s-%s-%s", codePrefix, timestamp, string(buf)), nil
}
