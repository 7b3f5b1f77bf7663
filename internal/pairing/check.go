package pairing

import "rawvariant/internal/model"

// CheckProduct validates the pairing references of p against its template flag.
func CheckProduct(p *model.Product, hasRawProducts bool) error {
	if !hasRawProducts {
		if p.Paired() {
			return &UnexpectedPairingError{ProductID: p.ID, Product: p.DisplayName()}
		}
		return nil
	}
	if p.IsRawProduct && p.RawProductID != nil {
		return &InvalidRawRoleError{ProductID: p.ID, Product: p.DisplayName()}
	}
	if !p.IsRawProduct && p.MainProductID != nil {
		return &InvalidMainRoleError{ProductID: p.ID, Product: p.DisplayName()}
	}
	return nil
}
