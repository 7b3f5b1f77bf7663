package pairing

import "rawvariant/internal/model"

// DeriveCode computes the display code of p.
//
// Outside a raw-enabled template, and whenever the prefix for the product's
// role is not configured, the code is the template base code followed by the
// suffix. Otherwise it is prefix + separator + suffix.
func DeriveCode(cfg Config, tpl *model.Template, p *model.Product) string {
	base := p.SuffixCode
	if tpl != nil {
		base = tpl.Code + p.SuffixCode
	}
	if tpl == nil || !tpl.HasRawProducts {
		return base
	}

	prefix := cfg.MainPrefix
	if p.IsRawProduct {
		prefix = cfg.RawPrefix
	}
	if prefix == "" {
		return base
	}
	return prefix + cfg.Separator + p.SuffixCode
}
