package mintledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/mintledger"
)

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{mintledger.ErrInsufficientBalance, "InsufficientBalance"},
		{mintledger.ErrInvalidRecipient, "InvalidRecipient"},
		{mintledger.ErrExceedsDailyMintLimit, "ExceedsDailyMintLimit"},
		{mintledger.ErrAlreadyMintedToday, "AlreadyMintedToday"},
		{mintledger.ErrArithmeticOverflow, "ArithmeticOverflow"},
		{mintledger.ErrUnauthorized, "Unauthorized"},
		{mintledger.ErrTransferFailed, "TransferFailed"},
		{fmt.Errorf("wrapped: %w", mintledger.ErrAlreadyMintedToday), "AlreadyMintedToday"},
		{mintledger.ErrStoreClosed, "Internal"},
		{errors.New("other"), "Internal"},
	}

	for _, tt := range tests {
		if got := mintledger.Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !mintledger.IsAdmissionError(mintledger.ErrExceedsDailyMintLimit) {
		t.Error("ceiling rejection should be an admission error")
	}
	if mintledger.IsAdmissionError(mintledger.ErrInsufficientBalance) {
		t.Error("balance rejection is not an admission error")
	}
	if !mintledger.IsRejection(mintledger.ErrUnauthorized) {
		t.Error("unauthorized should be a rejection")
	}
	if mintledger.IsRejection(nil) || mintledger.IsRejection(mintledger.ErrJournalCorrupt) {
		t.Error("nil and infrastructure errors are not rejections")
	}
	if !mintledger.IsRetryable(fmt.Errorf("x: %w", mintledger.ErrTransferFailed)) {
		t.Error("failed payout should be retryable")
	}
	if mintledger.IsRetryable(mintledger.ErrUnauthorized) {
		t.Error("unauthorized is not retryable")
	}
}

func TestMultiError(t *testing.T) {
	var m mintledger.MultiError
	if m.ErrOrNil() != nil || m.HasErrors() || m.First() != nil {
		t.Fatal("empty MultiError should report no errors")
	}

	m.Add(nil)
	m.Add(mintledger.ValidationError{Field: "owner", Message: "required"})
	m.Add(mintledger.ErrUnauthorized)

	err := m.ErrOrNil()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, mintledger.ErrUnauthorized) {
		t.Error("MultiError should unwrap to its members")
	}
	if !errors.Is(err, mintledger.ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
	if len(m.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d", len(m.Errors))
	}
}
