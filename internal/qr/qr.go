package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Table codes are printed as QR stickers on tables. The encoded form is
// base64 over `B:<branch-uuid>|T:<table-number>`; the self-order page scans
// it to know which branch and table it is ordering for.

var ErrInvalidTableCode = errors.New("invalid table code")

type TableCode struct {
	BranchID    uuid.UUID
	TableNumber string
}

// Encode renders the sticker payload for one table.
func Encode(branchID uuid.UUID, tableNumber string) string {
	raw := fmt.Sprintf("B:%s|T:%s", branchID.String(), tableNumber)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses a scanned sticker payload.
func Decode(code string) (TableCode, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(code))
	if err != nil {
		return TableCode{}, ErrInvalidTableCode
	}

	branchPart, tablePart, found := strings.Cut(string(raw), "|")
	if !found {
		return TableCode{}, ErrInvalidTableCode
	}

	branchValue, ok := strings.CutPrefix(branchPart, "B:")
	if !ok {
		return TableCode{}, ErrInvalidTableCode
	}
	tableValue, ok := strings.CutPrefix(tablePart, "T:")
	if !ok || tableValue == "" {
		return TableCode{}, ErrInvalidTableCode
	}

	branchID, err := uuid.Parse(branchValue)
	if err != nil {
		return TableCode{}, ErrInvalidTableCode
	}

	return TableCode{BranchID: branchID, TableNumber: tableValue}, nil
}
