package blockchain

import (
	"fmt"

	domain_service "jetton-ticket-tracker/internal/domain/service"

	"github.com/xssnick/tonutils-go/address"
)

// TonAddressCodec converts raw TON addresses (workchain:hex) into the
// bounceable user-friendly base64 form. Conversion is pure and
// deterministic; feeding an already-friendly address back in is a no-op.
type TonAddressCodec struct{}

// NewTonAddressCodec creates a new address codec
func NewTonAddressCodec() domain_service.AddressCodec {
	return &TonAddressCodec{}
}

// Normalize converts a raw chain address into its canonical display form.
func (c *TonAddressCodec) Normalize(raw string) (string, error) {
	addr, err := address.ParseRawAddr(raw)
	if err != nil {
		// Accept the friendly form as well so Normalize is idempotent.
		addr, err = address.ParseAddr(raw)
		if err != nil {
			return "", fmt.Errorf("malformed address %q: %w", raw, err)
		}
	}
	return addr.Bounce(true).String(), nil
}

// NormalizeBatch converts a batch of raw addresses. Equivalent to calling
// Normalize per item; the first conversion failure aborts the batch.
func (c *TonAddressCodec) NormalizeBatch(raws []string) ([]string, error) {
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		canonical, err := c.Normalize(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, canonical)
	}
	return out, nil
}
