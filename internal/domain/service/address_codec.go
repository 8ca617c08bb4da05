package service

// AddressCodec defines the interface for canonical address conversion
type AddressCodec interface {
	// Normalize converts a raw chain address into its canonical
	// user-friendly form. It is pure and deterministic; the same raw
	// address always maps to the same canonical string.
	Normalize(raw string) (string, error)

	// NormalizeBatch converts a batch of raw addresses. Equivalent to
	// per-item Normalize calls; no cross-item state.
	NormalizeBatch(raws []string) ([]string, error)
}
