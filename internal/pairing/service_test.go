package pairing_test

import (
	"context"
	"testing"

	"rawvariant/internal/model"
	"rawvariant/internal/pairing"
	"rawvariant/internal/pairing/pairingtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

var prefixes = pairing.Config{RawPrefix: "RAW", MainPrefix: "MAIN"}

type recordingInvalidator struct{ codes []string }

func (r *recordingInvalidator) Invalidate(_ context.Context, codes ...string) {
	r.codes = append(r.codes, codes...)
}

func newService(t *testing.T, cfg pairing.Config) (*pairing.Service, *pairingtest.MemStore) {
	t.Helper()
	store := pairingtest.NewMemStore()
	return pairing.NewService(store, cfg, nil), store
}

func seedTemplate(t *testing.T, svc *pairing.Service, code string, hasRaw bool) *model.Template {
	t.Helper()
	tpl, _, err := svc.CreateTemplate(context.Background(), pairing.NewTemplate{
		Name:           "Template " + code,
		Code:           code,
		HasRawProducts: hasRaw,
	})
	require.NoError(t, err)
	return tpl
}

func createOne(t *testing.T, svc *pairing.Service, in pairing.NewProduct) model.Product {
	t.Helper()
	out, err := svc.CreateProducts(context.Background(), []pairing.NewProduct{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func mustGet(t *testing.T, svc *pairing.Service, id uuid.UUID) *model.Product {
	t.Helper()
	p, err := svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p
}

// assertFullyPaired checks that every variant of every raw-enabled template
// has exactly one counterpart of the opposite role that points back.
func assertFullyPaired(t *testing.T, svc *pairing.Service) {
	t.Helper()
	findings, err := svc.Audit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, findings)

	yes := true
	products, err := svc.SearchProducts(context.Background(), pairing.ProductFilter{HasRawProducts: &yes})
	require.NoError(t, err)
	for _, p := range products {
		cp := p.Counterpart()
		require.NotNil(t, cp, "variant %s is unpaired", p.Code)
		other := mustGet(t, svc, *cp)
		assert.NotEqual(t, p.IsRawProduct, other.IsRawProduct)
		require.NotNil(t, other.Counterpart())
		assert.Equal(t, p.ID, *other.Counterpart())
	}
}

// ── Provisioning ──────────────────────────────────────────────────────────────

func TestCreateMainProvisionsRawCounterpart(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)

	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	assert.False(t, main.IsRawProduct)
	assert.Equal(t, "MAIN10", main.Code)
	require.NotNil(t, main.RawProductID)
	assert.Nil(t, main.MainProductID)

	raw := mustGet(t, svc, *main.RawProductID)
	assert.True(t, raw.IsRawProduct)
	assert.Equal(t, "RAW10", raw.Code)
	assert.Equal(t, "10", raw.SuffixCode)
	require.NotNil(t, raw.MainProductID)
	assert.Equal(t, main.ID, *raw.MainProductID)
	assert.Nil(t, raw.RawProductID)
}

func TestCreateRawProvisionsMainCounterpart(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)

	raw := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "7", IsRawProduct: true})

	assert.Equal(t, "RAW7", raw.Code)
	require.NotNil(t, raw.MainProductID)
	main := mustGet(t, svc, *raw.MainProductID)
	assert.False(t, main.IsRawProduct)
	assert.Equal(t, "MAIN7", main.Code)
}

func TestPrimaryRawPolicyForcesRawRole(t *testing.T) {
	cfg := prefixes
	cfg.Primary = pairing.PrimaryRaw
	svc, _ := newService(t, cfg)
	tpl := seedTemplate(t, svc, "", true)

	created := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	assert.True(t, created.IsRawProduct)
	assert.Equal(t, "RAW10", created.Code)
	require.NotNil(t, created.MainProductID)
	assert.Equal(t, "MAIN10", mustGet(t, svc, *created.MainProductID).Code)
}

func TestTemplateWithoutRawVariantsNeverProvisions(t *testing.T) {
	svc, store := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "BOLT-", false)

	p := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "M8"})

	assert.Equal(t, "BOLT-M8", p.Code)
	assert.False(t, p.Paired())
	assert.Equal(t, 0, store.Links())

	mains, err := svc.MainProducts(context.Background(), tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, mains)
}

func TestSuppressedProvisioningLeavesOrphanAndIsRejected(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)

	ctx := pairing.WithoutAutoProvision(context.Background())
	_, err := svc.CreateProducts(ctx, []pairing.NewProduct{{TemplateID: tpl.ID, SuffixCode: "1"}})

	var missing *pairing.MissingCounterpartError
	require.ErrorAs(t, err, &missing)

	all, err := svc.SearchProducts(context.Background(), pairing.ProductFilter{TemplateID: &tpl.ID})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected batch must not leave rows behind")
}

func TestSuppliedCounterpartIsLinkedInsteadOfCloned(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	first := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "1"})

	// the raw of "first" is taken, pairing another main with it must fail
	_, err := svc.CreateProducts(context.Background(), []pairing.NewProduct{{
		TemplateID:   tpl.ID,
		SuffixCode:   "2",
		RawProductID: first.RawProductID,
	}})
	var paired *pairing.AlreadyPairedError
	require.ErrorAs(t, err, &paired)
	assert.Equal(t, *first.RawProductID, paired.CounterpartID)
}

func TestLinkAcrossTemplatesIsRejected(t *testing.T) {
	svc, store := newService(t, prefixes)
	a := seedTemplate(t, svc, "", true)
	b := seedTemplate(t, svc, "", true)

	// a lone raw variant of template b, stored directly
	orphan := model.Product{ID: uuid.New(), TemplateID: b.ID, SuffixCode: "9", IsRawProduct: true, Active: true}
	store.Put(orphan)

	_, err := svc.CreateProducts(context.Background(), []pairing.NewProduct{{
		TemplateID:   a.ID,
		SuffixCode:   "9",
		RawProductID: &orphan.ID,
	}})
	var mismatch *pairing.TemplateMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestPairingUnderPlainTemplateIsRejected(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "P", false)
	other := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "1", IsRawProduct: true})

	_, err := svc.CreateProducts(context.Background(), []pairing.NewProduct{{
		TemplateID:   tpl.ID,
		SuffixCode:   "2",
		RawProductID: &other.ID,
	}})
	var unexpected *pairing.UnexpectedPairingError
	require.ErrorAs(t, err, &unexpected)
}

func TestUnknownTemplate(t *testing.T) {
	svc, _ := newService(t, prefixes)
	_, err := svc.CreateProducts(context.Background(), []pairing.NewProduct{{TemplateID: uuid.New(), SuffixCode: "1"}})
	assert.True(t, pairing.IsNotFound(err))
}

// ── Role changes ──────────────────────────────────────────────────────────────

func TestFlipRoleOfPairedVariantIsRejected(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	yes, no := true, false
	_, err := svc.UpdateProduct(context.Background(), main.ID, pairing.ProductChanges{IsRawProduct: &yes})
	var rawRole *pairing.InvalidRawRoleError
	require.ErrorAs(t, err, &rawRole)
	assert.Equal(t, main.ID, rawRole.ProductID)

	_, err = svc.UpdateProduct(context.Background(), *main.RawProductID, pairing.ProductChanges{IsRawProduct: &no})
	var mainRole *pairing.InvalidMainRoleError
	require.ErrorAs(t, err, &mainRole)

	assert.False(t, mustGet(t, svc, main.ID).IsRawProduct)
	assert.Equal(t, "MAIN10", mustGet(t, svc, main.ID).Code)
}

func TestSuffixChangeRederivesCode(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	suffix := "20"
	updated, err := svc.UpdateProduct(context.Background(), main.ID, pairing.ProductChanges{SuffixCode: &suffix})
	require.NoError(t, err)
	assert.Equal(t, "MAIN20", updated.Code)
	assert.Equal(t, "MAIN20", mustGet(t, svc, main.ID).Code)
}

func TestRecomputeCodesIsIdempotent(t *testing.T) {
	svc, store := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})
	writes := store.Writes[main.ID]

	n, err := svc.RecomputeCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = svc.RecomputeCodes(context.Background(), &tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, writes, store.Writes[main.ID], "an already correct code must not be written")
}

func TestRecomputeCodesAfterPrefixChange(t *testing.T) {
	store := pairingtest.NewMemStore()
	old := pairing.NewService(store, prefixes, nil)
	tpl := seedTemplate(t, old, "", true)
	main := createOne(t, old, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	inv := &recordingInvalidator{}
	svc := pairing.NewService(store, pairing.Config{RawPrefix: "R", MainPrefix: "M", Separator: "-"}, inv)
	n, err := svc.RecomputeCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "M-10", mustGet(t, svc, main.ID).Code)
	assert.Equal(t, "R-10", mustGet(t, svc, *main.RawProductID).Code)
	assert.Subset(t, inv.codes, []string{"MAIN10", "RAW10", "M-10", "R-10"})
}

// ── Templates ─────────────────────────────────────────────────────────────────

func TestCreateTemplateWithVariants(t *testing.T) {
	svc, _ := newService(t, prefixes)
	ctx := context.Background()

	tpl, variants, err := svc.CreateTemplate(ctx, pairing.NewTemplate{
		Name:           "Test Product Raw",
		HasRawProducts: true,
		Variants:       []pairing.NewProduct{{SuffixCode: "10"}},
	})
	require.NoError(t, err)
	require.Len(t, variants, 1)

	raws, err := svc.RawProducts(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "RAW10", raws[0].Code)
	mains, err := svc.MainProducts(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, mains, 1)
	assert.Equal(t, "MAIN10", mains[0].Code)

	_, err = svc.CreateProducts(ctx, []pairing.NewProduct{{TemplateID: tpl.ID, SuffixCode: "11"}})
	require.NoError(t, err)
	raws, _ = svc.RawProducts(ctx, tpl.ID)
	mains, _ = svc.MainProducts(ctx, tpl.ID)
	require.Len(t, raws, 2)
	require.Len(t, mains, 2)
	assert.Equal(t, "RAW11", raws[1].Code)
	assert.Equal(t, "MAIN11", mains[1].Code)

	_, err = svc.DeleteProducts(ctx, []uuid.UUID{mains[1].ID}, true)
	require.NoError(t, err)
	raws, _ = svc.RawProducts(ctx, tpl.ID)
	assert.Len(t, raws, 1)
	assertFullyPaired(t, svc)
}

func TestEnablingRawVariantsProvisionsExistingVariants(t *testing.T) {
	svc, _ := newService(t, prefixes)
	ctx := context.Background()
	tpl := seedTemplate(t, svc, "T", false)
	a := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "1"})
	b := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "2", IsRawProduct: true})
	assert.Equal(t, "T1", a.Code)

	yes := true
	_, err := svc.UpdateTemplate(ctx, tpl.ID, pairing.TemplateChanges{HasRawProducts: &yes})
	require.NoError(t, err)

	a2 := mustGet(t, svc, a.ID)
	assert.Equal(t, "MAIN1", a2.Code)
	require.NotNil(t, a2.RawProductID)
	assert.Equal(t, "RAW1", mustGet(t, svc, *a2.RawProductID).Code)

	b2 := mustGet(t, svc, b.ID)
	assert.Equal(t, "RAW2", b2.Code)
	require.NotNil(t, b2.MainProductID)
	assert.Equal(t, "MAIN2", mustGet(t, svc, *b2.MainProductID).Code)
	assertFullyPaired(t, svc)
}

func TestEnablingRawVariantsUnderPrimaryRaw(t *testing.T) {
	cfg := prefixes
	cfg.Primary = pairing.PrimaryRaw
	svc, _ := newService(t, cfg)
	tpl := seedTemplate(t, svc, "", false)
	a := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "1"})

	yes := true
	_, err := svc.UpdateTemplate(context.Background(), tpl.ID, pairing.TemplateChanges{HasRawProducts: &yes})
	require.NoError(t, err)

	a2 := mustGet(t, svc, a.ID)
	assert.True(t, a2.IsRawProduct)
	assert.Equal(t, "RAW1", a2.Code)
	require.NotNil(t, a2.MainProductID)
	assert.Equal(t, "MAIN1", mustGet(t, svc, *a2.MainProductID).Code)
}

func TestDisablingRawVariantsWithPairingsIsRejected(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	no := false
	_, err := svc.UpdateTemplate(context.Background(), tpl.ID, pairing.TemplateChanges{HasRawProducts: &no})
	var unexpected *pairing.UnexpectedPairingError
	require.ErrorAs(t, err, &unexpected)

	got, err := svc.GetTemplate(context.Background(), tpl.ID)
	require.NoError(t, err)
	assert.True(t, got.HasRawProducts)
	assert.Equal(t, "MAIN10", mustGet(t, svc, main.ID).Code)
}

func TestDisablingRawVariantsAfterDeletingPairs(t *testing.T) {
	svc, _ := newService(t, prefixes)
	ctx := context.Background()
	tpl := seedTemplate(t, svc, "T", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})
	_, err := svc.DeleteProducts(ctx, []uuid.UUID{main.ID}, true)
	require.NoError(t, err)

	no := false
	got, err := svc.UpdateTemplate(ctx, tpl.ID, pairing.TemplateChanges{HasRawProducts: &no})
	require.NoError(t, err)
	assert.False(t, got.HasRawProducts)
}

func TestTemplateCodeChangeRederivesCodes(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "OLD-", false)
	p := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "5"})

	code := "NEW-"
	_, err := svc.UpdateTemplate(context.Background(), tpl.ID, pairing.TemplateChanges{Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "NEW-5", mustGet(t, svc, p.ID).Code)
}

// ── Deletion ──────────────────────────────────────────────────────────────────

func TestDeleteMainWithoutCascadeIsForbidden(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	_, err := svc.DeleteProducts(context.Background(), []uuid.UUID{main.ID}, false)
	var forbidden *pairing.DeleteForbiddenError
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, main.ID, forbidden.ProductID)
	assert.Equal(t, *main.RawProductID, forbidden.CounterpartID)
	assert.False(t, forbidden.Raw)
	assert.Contains(t, err.Error(), "MAIN10")
	assert.Contains(t, err.Error(), "RAW10")

	mustGet(t, svc, main.ID)
}

func TestDeleteMainWithCascade(t *testing.T) {
	svc, store := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	deleted, err := svc.DeleteProducts(context.Background(), []uuid.UUID{main.ID}, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{main.ID, *main.RawProductID}, deleted)
	assert.Equal(t, 0, store.Links())

	_, err = svc.GetProduct(context.Background(), *main.RawProductID)
	assert.True(t, pairing.IsNotFound(err))
}

func TestDeleteRawAloneIsForbidden(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	for _, cascade := range []bool{false, true} {
		_, err := svc.DeleteProducts(context.Background(), []uuid.UUID{*main.RawProductID}, cascade)
		var forbidden *pairing.DeleteForbiddenError
		require.ErrorAs(t, err, &forbidden)
		assert.True(t, forbidden.Raw)
		assert.Equal(t, main.ID, forbidden.CounterpartID)
	}
}

func TestDeleteBothMembersExplicitly(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	deleted, err := svc.DeleteProducts(context.Background(), []uuid.UUID{*main.RawProductID, main.ID, main.ID}, false)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)
}

func TestDeleteUnknownProduct(t *testing.T) {
	svc, _ := newService(t, prefixes)
	_, err := svc.DeleteProducts(context.Background(), []uuid.UUID{uuid.New()}, true)
	assert.True(t, pairing.IsNotFound(err))
}

// ── Whole-catalog properties ──────────────────────────────────────────────────

func TestNoOrphansAfterMixedSequence(t *testing.T) {
	svc, _ := newService(t, prefixes)
	ctx := context.Background()
	rawTpl := seedTemplate(t, svc, "", true)
	plainTpl := seedTemplate(t, svc, "P", false)

	var inputs []pairing.NewProduct
	for i, s := range []string{"1", "2", "3", "4"} {
		inputs = append(inputs,
			pairing.NewProduct{TemplateID: rawTpl.ID, SuffixCode: s, IsRawProduct: i%2 == 0},
			pairing.NewProduct{TemplateID: plainTpl.ID, SuffixCode: s},
		)
	}
	_, err := svc.CreateProducts(ctx, inputs)
	require.NoError(t, err)

	yes := true
	_, err = svc.UpdateTemplate(ctx, plainTpl.ID, pairing.TemplateChanges{HasRawProducts: &yes})
	require.NoError(t, err)

	suffix := "9"
	mains, err := svc.MainProducts(ctx, rawTpl.ID)
	require.NoError(t, err)
	_, err = svc.UpdateProduct(ctx, mains[0].ID, pairing.ProductChanges{SuffixCode: &suffix})
	require.NoError(t, err)

	assertFullyPaired(t, svc)
}

func TestAuditReportsCorruptData(t *testing.T) {
	svc, store := newService(t, prefixes)
	plain := seedTemplate(t, svc, "P", false)
	rawTpl := seedTemplate(t, svc, "", true)

	a := model.Product{ID: uuid.New(), TemplateID: plain.ID, Code: "P1", Active: true}
	b := model.Product{ID: uuid.New(), TemplateID: plain.ID, Code: "P2", IsRawProduct: true, Active: true}
	lone := model.Product{ID: uuid.New(), TemplateID: rawTpl.ID, Code: "MAIN3", Active: true}
	store.Put(a)
	store.Put(b)
	store.Put(lone)
	store.ForceLink(a.ID, b.ID)

	findings, err := svc.Audit(context.Background())
	require.NoError(t, err)
	byProduct := map[uuid.UUID]string{}
	for _, f := range findings {
		byProduct[f.ProductID] = f.Invariant
	}
	assert.Equal(t, pairing.InvariantUnexpectedPairing, byProduct[a.ID])
	assert.Equal(t, pairing.InvariantUnexpectedPairing, byProduct[b.ID])
	assert.Equal(t, pairing.InvariantMissingPair, byProduct[lone.ID])
}

func TestInvalidatorReceivesTouchedCodes(t *testing.T) {
	store := pairingtest.NewMemStore()
	inv := &recordingInvalidator{}
	svc := pairing.NewService(store, prefixes, inv)
	tpl := seedTemplate(t, svc, "", true)

	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})
	assert.ElementsMatch(t, []string{"MAIN10", "RAW10"}, inv.codes)

	inv.codes = nil
	_, err := svc.DeleteProducts(context.Background(), []uuid.UUID{main.ID}, false)
	require.Error(t, err)
	assert.Empty(t, inv.codes, "rolled back batches invalidate nothing")
}

func TestFindByCode(t *testing.T) {
	svc, _ := newService(t, prefixes)
	tpl := seedTemplate(t, svc, "", true)
	main := createOne(t, svc, pairing.NewProduct{TemplateID: tpl.ID, SuffixCode: "10"})

	got, err := svc.FindByCode(context.Background(), "RAW10")
	require.NoError(t, err)
	assert.Equal(t, *main.RawProductID, got.ID)

	_, err = svc.FindByCode(context.Background(), "NOPE")
	assert.True(t, pairing.IsNotFound(err))
}
