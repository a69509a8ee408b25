package qr

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// bankBinMap maps common Vietnamese bank names to their NAPAS BIN codes.
var bankBinMap = map[string]string{
	"vietcombank": "970436",
	"vcb":         "970436",
	"techcombank": "970407",
	"tcb":         "970407",
	"tpbank":      "970423",
	"tpb":         "970423",
	"mbbank":      "970422",
	"mb":          "970422",
	"acb":         "970416",
	"vietinbank":  "970415",
	"agribank":    "970405",
	"sacombank":   "970403",
	"bidv":        "970418",
}

const defaultBankBin = "970436"

// NewTransferContent generates a fresh correlation token. The token is
// uppercase alphanumeric so it survives bank memo normalisation, and the
// NAP prefix keeps it recognisable in statements.
func NewTransferContent() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "NAP" + raw[:12]
}

// VietQRURL builds an image URL for the VietQR rendering service. Unknown
// bank names fall back to the Vietcombank BIN.
func VietQRURL(bankName, bankAccount, accountHolder string, amountVnd int64, transferContent string) string {
	key := strings.ToLower(strings.ReplaceAll(bankName, " ", ""))
	bin, ok := bankBinMap[key]
	if !ok {
		bin = defaultBankBin
	}

	return fmt.Sprintf("https://img.vietqr.io/image/%s-%s-compact.jpg?amount=%d&addInfo=%s&accountName=%s",
		bin, bankAccount, amountVnd,
		url.QueryEscape(transferContent),
		url.QueryEscape(accountHolder))
}
